package util

import (
	"fmt"
	"strconv"
	"time"
)

func ParseTimeFlexible(timeStr string) (time.Time, error) {
	// Try parsing as RFC3339 (ISO 8601)
	t, err := time.Parse(time.RFC3339Nano, timeStr)
	if err == nil {
		return t.UTC(), nil // Convert to UTC
	}
	t, err = time.Parse(time.RFC3339, timeStr) // Try without nano
	if err == nil {
		return t.UTC(), nil
	}

	// Try parsing as epoch milliseconds
	ms, err := strconv.ParseInt(timeStr, 10, 64)
	if err == nil {
		return time.UnixMilli(ms).UTC(), nil // Convert to UTC
	}

	return time.Time{}, fmt.Errorf("invalid time format: %s", timeStr)
}

// ParseDurationFlexible accepts either a Go duration string ("1500ms", "2s")
// or a bare integer meaning milliseconds, which is what the panel sends for
// its polling interval hint.
func ParseDurationFlexible(s string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}
	return d, nil
}

// DayIndex returns "<prefix>-YYYY-MM-DD" in UTC, the daily index naming used
// for audit events.
func DayIndex(prefix string, t time.Time) string {
	return prefix + "-" + t.UTC().Format("2006-01-02")
}
