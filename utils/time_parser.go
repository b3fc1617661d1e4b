package utils

import (
	"fmt"
	"time"
)

// Named scan windows as fixed offsets back from now.
var scanWindows = map[string]time.Duration{
	"last_hour":  time.Hour,
	"last_day":   24 * time.Hour,
	"last_week":  7 * 24 * time.Hour,
	"last_month": 30 * 24 * time.Hour,
}

// WindowStart resolves a named relative window to its lower bound.
func WindowStart(name string, now time.Time) (time.Time, error) {
	d, ok := scanWindows[name]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown duration %q (expected last_hour, last_day, last_week or last_month)", name)
	}
	return now.Add(-d), nil
}

// ParseTimestamp parses an explicit scan bound. RFC3339 is accepted first,
// then a plain date.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q (expected RFC3339 or YYYY-MM-DD)", s)
	}
	return t, nil
}
