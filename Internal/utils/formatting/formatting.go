package formatting

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout matches the local ISO timestamps stored in ultimaAtualizacao.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Separator returns a line separator of given width
func Separator(width int) string {
	return strings.Repeat("=", width)
}

func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a timestamp in the formats the collector and the backends emit
func ParseTimestamp(s string) time.Time {
	formats := []string{
		TimestampLayout,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}

	for _, format := range formats {
		if t, err := time.ParseInLocation(format, s, time.Local); err == nil {
			return t
		}
	}

	return time.Time{}
}

// SignedPercent renders a variation the way insights show it, e.g. "+12.3".
func SignedPercent(v float64) string {
	return fmt.Sprintf("%+.1f", v)
}

// Forecast renders the short forecast line, e.g. "14°-22° - Ensolarado".
func Forecast(min, max float64, condition string) string {
	return fmt.Sprintf("%.0f°-%.0f° - %s", min, max, condition)
}
