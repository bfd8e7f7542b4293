package logentry

import (
	"fmt"
	"strings"
	"time"
)

// Layouts accepted without a zone designator. Both the T and the space
// separator are allowed, and fractional seconds may have any precision.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Zone suffixes tried after a naive layout.
var zoneSuffixes = []string{"Z07:00", "Z0700", "Z07"}

// ParseTimestamp parses an ISO-8601 date or datetime. It reports whether the
// value had no zone designator; such values are returned in UTC.
func ParseTimestamp(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if len(s) < len("2006-01-02") {
		return time.Time{}, false, fmt.Errorf("timestamp too short: %q", s)
	}
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + s[11:]
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true, nil
		}
	}

	// Zone designators only make sense on datetimes.
	for _, layout := range naiveLayouts[:2] {
		for _, zone := range zoneSuffixes {
			if t, err := time.Parse(layout+zone, s); err == nil {
				return t, false, nil
			}
		}
	}

	return time.Time{}, false, fmt.Errorf("invalid ISO-8601 timestamp: %q", s)
}

// FormatTimestamp renders t as ISO-8601. Naive values omit the offset,
// matching how they appeared in the source.
func FormatTimestamp(t time.Time, naive bool) string {
	if naive {
		return t.Format("2006-01-02T15:04:05.999999")
	}
	return t.Format("2006-01-02T15:04:05.999999Z07:00")
}

// HourBucket truncates t to its hour, formatted as YYYY-MM-DD HH:00 in the
// timestamp's own zone.
func HourBucket(t time.Time) string {
	return t.Format("2006-01-02 15:00")
}
