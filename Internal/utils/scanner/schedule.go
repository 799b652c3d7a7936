package scanner

import "time"

// ShouldScan reports whether a scan is due given the last run.
// A zero lastScan always means a scan is due.
func ShouldScan(now, lastScan time.Time, interval time.Duration) bool {
	if lastScan.IsZero() {
		return true
	}
	nextDue := GetNextScanDue(lastScan, interval)
	return now.After(nextDue) || now.Equal(nextDue)
}

func GetNextScanDue(lastScan time.Time, interval time.Duration) time.Time {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return lastScan.Add(interval)
}
