// Package dateonly converts between calendar dates ("YYYY-MM-DD") and
// timestamps. Every conversion is done against the local calendar so that a
// task due "today" stays due today regardless of the UTC offset.
package dateonly

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical calendar-date layout.
const Layout = "2006-01-02"

// dateLayouts are accepted for calendar-date strings. The second form
// tolerates single-digit months and days ("2024-1-5").
var dateLayouts = []string{
	Layout,
	"2006-1-2",
}

// timestampLayouts are accepted for timestamp strings. Layouts without a
// zone are interpreted in the local zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999 -0700 MST",
}

// FormatLocal returns the local calendar date of t.
func FormatLocal(t time.Time) string {
	return t.In(time.Local).Format(Layout)
}

// ParseLocal parses a calendar date and returns local midnight of that day.
func ParseLocal(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}

// Valid reports whether s is a well-formed, zero-padded calendar date.
func Valid(s string) bool {
	_, err := time.ParseInLocation(Layout, s, time.Local)
	return err == nil
}

// Coerce normalizes v to "YYYY-MM-DD". It accepts a calendar-date string,
// a timestamp string, a time.Time or a *time.Time. The boolean is false
// when v cannot be interpreted as a date.
func Coerce(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return coerceString(x)
	case time.Time:
		if x.IsZero() {
			return "", false
		}
		return FormatLocal(x), true
	case *time.Time:
		if x == nil || x.IsZero() {
			return "", false
		}
		return FormatLocal(*x), true
	default:
		return "", false
	}
}

func coerceString(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.Format(Layout), true
		}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return FormatLocal(t), true
		}
	}
	return "", false
}

// EndOfDayLocal returns the last instant of the given local calendar day.
func EndOfDayLocal(s string) (time.Time, error) {
	day, err := ParseLocal(s)
	if err != nil {
		return time.Time{}, err
	}
	return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

// Today returns the current local calendar date.
func Today() string {
	return FormatLocal(time.Now())
}

// SameDay reports whether t falls on the local calendar day s.
func SameDay(t time.Time, s string) bool {
	return FormatLocal(t) == s
}

// Compare orders two calendar dates. Both must be zero-padded, which makes
// lexical order equal to chronological order.
func Compare(a, b string) int {
	return strings.Compare(a, b)
}

// AtClock returns the instant at hh:mm on the local calendar day s.
func AtClock(s string, hh, mm int) (time.Time, error) {
	day, err := ParseLocal(s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, time.Local), nil
}
