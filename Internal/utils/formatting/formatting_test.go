package formatting

import (
	"testing"
	"time"
)

func TestTimestampRoundTrip(t *testing.T) {
	ts := time.Date(2025, 6, 1, 10, 30, 15, 123456000, time.Local)
	s := Timestamp(ts)
	if s != "2025-06-01T10:30:15.123456" {
		t.Fatalf("Timestamp = %q", s)
	}
	if got := ParseTimestamp(s); !got.Equal(ts) {
		t.Errorf("ParseTimestamp = %v, want %v", got, ts)
	}
	if !ParseTimestamp("garbage").IsZero() {
		t.Error("expected zero time for garbage")
	}
}

func TestSignedPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{12.34, "+12.3"},
		{-4, "-4.0"},
		{0, "+0.0"},
	}
	for _, tt := range tests {
		if got := SignedPercent(tt.in); got != tt.want {
			t.Errorf("SignedPercent(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestForecast(t *testing.T) {
	if got := Forecast(13.6, 22.4, "Ensolarado"); got != "14°-22° - Ensolarado" {
		t.Errorf("Forecast = %q", got)
	}
}
