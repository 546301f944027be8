package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Layouts accepted for timestamps without a UTC offset. Fractional seconds
// are optional in the first two.
var floatingLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Time is an ISO 8601 timestamp from a request body. It may carry a UTC
// offset (RFC 3339) or not; a timestamp without one is a wall-clock time that
// only becomes an instant once a timezone is known, see In.
type Time struct {
	time.Time
	// Floating is set when the input had no offset.
	Floating bool
}

// ParseTime parses s as RFC 3339 or as one of the offset-less ISO 8601 forms.
func ParseTime(s string) (Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Time{Time: t}, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05.999999999Z07:00", s); err == nil {
		return Time{Time: t}, nil
	}
	for _, layout := range floatingLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Time{Time: t, Floating: true}, nil
		}
	}
	return Time{}, fmt.Errorf("invalid datetime %q: expected ISO 8601, e.g. 2030-06-10T10:00:00 or 2030-06-10T10:00:00+05:30", s)
}

func (t *Time) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("datetime must be a string: %w", err)
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// In returns the instant t denotes. A floating time is read as wall-clock
// time in loc; an offset time is returned unchanged.
func (t Time) In(loc *time.Location) time.Time {
	if !t.Floating {
		return t.Time
	}
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, mo, d, h, mi, s, t.Nanosecond(), loc)
}
