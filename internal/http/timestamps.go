package http

import (
	"fmt"
	"strings"
	"time"
)

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseTimestamp accepts RFC 3339 or a zone-less local timestamp, which is
// interpreted in loc.
func parseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

func formatTimestamp(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(time.RFC3339)
}
