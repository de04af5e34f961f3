package cmd

import (
	"fmt"
	"time"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// parseTime reads a timestamp in local time. A bare date is returned as
// local midnight.
func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use YYYY-MM-DD, YYYY-MM-DD HH:MM or RFC 3339", s)
}

// parseDeadline is parseTime, except that a bare date means the end of
// that day so the day itself is still scheduled.
func parseDeadline(s string) (time.Time, error) {
	if d, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return d.AddDate(0, 0, 1).Add(-time.Second), nil
	}
	return parseTime(s)
}
