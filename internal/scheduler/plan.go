package scheduler

import (
	"time"

	"github.com/alexanderramin/stagegate/internal/domain"
)

// WorkingCalendar is the subset of workcal.Calendar the planner needs.
type WorkingCalendar interface {
	NextWorkingDay(d time.Time) time.Time
	ShiftToWorkingDay(d time.Time) time.Time
	AddWorkingDays(d time.Time, n int) time.Time
}

// StageDuration is the planning input for one stage.
type StageDuration struct {
	Code         string
	Sequence     int
	DurationDays int
	Skip         bool
}

// DerivePlan lays stages end to end from anchor. The first scheduled stage
// starts on the first working day on or after anchor; each stage of n
// working days ends on its n-th working day, and the next stage starts on
// the following working day. Skipped stages get no dates and do not move
// the cursor. Input order is the schedule order.
func DerivePlan(anchor time.Time, stages []StageDuration, cal WorkingCalendar) []domain.StagePlan {
	plans := make([]domain.StagePlan, 0, len(stages))
	next := cal.ShiftToWorkingDay(anchor)
	for _, s := range stages {
		p := domain.StagePlan{
			StageCode:    s.Code,
			Sequence:     s.Sequence,
			DurationDays: s.DurationDays,
			Skip:         s.Skip,
		}
		if !s.Skip {
			start := next
			due := cal.AddWorkingDays(start, effectiveDuration(s.DurationDays)-1)
			p.PlannedStart = &start
			p.PlannedDue = &due
			next = cal.NextWorkingDay(due)
		}
		plans = append(plans, p)
	}
	return plans
}

// effectiveDuration treats zero or negative durations as one working day.
func effectiveDuration(days int) int {
	if days < 1 {
		return 1
	}
	return days
}
