// Package workcal answers working-day questions for a weekend pattern and a
// set of holidays. All dates are treated as calendar days in UTC.
package workcal

import (
	"errors"
	"time"

	"github.com/alexanderramin/stagegate/internal/domain"
)

// DefaultWeekend is Saturday and Sunday.
var DefaultWeekend = []time.Weekday{time.Saturday, time.Sunday}

// Calendar is immutable after construction and safe for concurrent use.
type Calendar struct {
	weekend  [7]bool
	holidays map[int]struct{} // day numbers
}

// New builds a calendar. At least one weekday must remain a working day.
func New(weekend []time.Weekday, holidays []domain.Holiday) (*Calendar, error) {
	c := &Calendar{holidays: make(map[int]struct{}, len(holidays))}
	for _, d := range weekend {
		if d < time.Sunday || d > time.Saturday {
			return nil, errors.New("weekend day out of range")
		}
		c.weekend[d] = true
	}
	working := 0
	for _, off := range c.weekend {
		if !off {
			working++
		}
	}
	if working == 0 {
		return nil, errors.New("calendar has no working weekdays")
	}
	for _, h := range holidays {
		c.holidays[domain.DayNumber(h.Date)] = struct{}{}
	}
	return c, nil
}

// Default returns a Saturday/Sunday weekend calendar with no holidays.
func Default() *Calendar {
	c, _ := New(DefaultWeekend, nil)
	return c
}

// IsWorkingDay reports whether d is neither a weekend day nor a holiday.
func (c *Calendar) IsWorkingDay(d time.Time) bool {
	d = domain.DateOnly(d)
	if c.weekend[d.Weekday()] {
		return false
	}
	_, holiday := c.holidays[domain.DayNumber(d)]
	return !holiday
}

// NextWorkingDay returns the first working day strictly after d.
func (c *Calendar) NextWorkingDay(d time.Time) time.Time {
	d = domain.DateOnly(d).AddDate(0, 0, 1)
	for !c.IsWorkingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// ShiftToWorkingDay returns d when it is a working day, otherwise the next one.
func (c *Calendar) ShiftToWorkingDay(d time.Time) time.Time {
	d = domain.DateOnly(d)
	if c.IsWorkingDay(d) {
		return d
	}
	return c.NextWorkingDay(d)
}

// AddWorkingDays shifts d to a working day and then advances n working days.
// Negative n is treated as zero.
func (c *Calendar) AddWorkingDays(d time.Time, n int) time.Time {
	d = c.ShiftToWorkingDay(d)
	for i := 0; i < n; i++ {
		d = c.NextWorkingDay(d)
	}
	return d
}

// WorkingDaysBetween counts working days in the half-open range (a, b].
// It returns zero when b is not after a.
func (c *Calendar) WorkingDaysBetween(a, b time.Time) int {
	a, b = domain.DateOnly(a), domain.DateOnly(b)
	n := 0
	for d := a.AddDate(0, 0, 1); !d.After(b); d = d.AddDate(0, 0, 1) {
		if c.IsWorkingDay(d) {
			n++
		}
	}
	return n
}
