// Package daykey formats and parses the calendar-day keys used to index
// per-day goal progress.
package daykey

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the zero-padded Gregorian YYYY-MM-DD layout.
const Layout = "2006-01-02"

// ErrInvalid is returned when a key is not a canonical day key.
var ErrInvalid = errors.New("invalid day key")

// Format returns the day key of t in t's own location.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Today returns the day key of now as observed in loc.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return Format(now.In(loc))
}

// Parse returns midnight of the day named by key in loc. Keys that do not
// round-trip through Format (for example "2024-2-3") are rejected.
func Parse(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(Layout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalid, key)
	}
	if Format(t) != key {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalid, key)
	}
	return t, nil
}

// Valid reports whether key is a canonical day key.
func Valid(key string) bool {
	_, err := Parse(key, time.UTC)
	return err == nil
}
