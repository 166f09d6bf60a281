package domain

import (
	"fmt"
	"time"
)

// DateLayout is the storage and display layout for calendar dates.
const DateLayout = "2006-01-02"

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayNumber returns the number of days since 1970-01-01 for the calendar date of t.
func DayNumber(t time.Time) int {
	return int(DateOnly(t).Unix() / 86400)
}

// DaysBetween returns b - a in whole calendar days.
func DaysBetween(a, b time.Time) int {
	return DayNumber(b) - DayNumber(a)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, ErrValidation)
	}
	return t, nil
}

// DatePtr returns a pointer to the date-only copy of t.
func DatePtr(t time.Time) *time.Time {
	d := DateOnly(t)
	return &d
}
