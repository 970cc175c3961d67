package utils

import (
	"fmt"
	"math"
	"time"
)

// Times inside the engine are minutes after midnight of the session day.
// The range is widened at both ends so that synthesized entry and exit
// nodes always sort before and after every planned stop.
const (
	MinMinutes float64 = 0
	MaxMinutes float64 = 24 * 60
)

// ClockToMinutes parses a HH:MM clock string into minutes after midnight.
func ClockToMinutes(clock string) (float64, error) {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", clock, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock value %q", clock)
	}
	return float64(h*60 + m), nil
}

// MinutesToClock formats minutes after midnight as HH:MM, rounding to the
// nearest whole minute.
func MinutesToClock(minutes float64) string {
	m := int(math.Round(minutes))
	for m < 0 {
		m += 24 * 60
	}
	m %= 24 * 60
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// MinutesFromUnix converts a Unix timestamp to minutes after local midnight.
func MinutesFromUnix(sec int64) float64 {
	t := time.Unix(sec, 0)
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return t.Sub(midnight).Minutes()
}

// Ptr returns a pointer to v. Optional times are *float64 throughout the
// engine so that an explicit midnight (0.0) stays distinct from absent.
func Ptr(v float64) *float64 { return &v }
