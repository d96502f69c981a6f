package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// Business is the business time zone. Dates without a zone are read in it.
var Business = time.UTC

// SetLocation switches the business time zone, e.g. "Asia/Dubai".
func SetLocation(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("load location %q: %w", name, err)
	}
	Business = loc
	return nil
}

// Now returns the current time in the business zone
func Now() time.Time {
	return time.Now().In(Business)
}

// ParseDate accepts YYYY-MM-DD or RFC3339. Plain dates are midnight in the business zone.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation(DateLayout, value, Business); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t.In(Business), nil
}

// StartOfDay returns 00:00:00 of t's business day.
func StartOfDay(t time.Time) time.Time {
	b := t.In(Business)
	return time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, Business)
}

// EndOfDay returns the last nanosecond of t's business day.
func EndOfDay(t time.Time) time.Time {
	b := t.In(Business)
	return time.Date(b.Year(), b.Month(), b.Day(), 23, 59, 59, 999999999, Business)
}

// Format formats t in the business zone
func Format(t time.Time, layout string) string {
	return t.In(Business).Format(layout)
}

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006"
)
