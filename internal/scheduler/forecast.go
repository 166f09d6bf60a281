package scheduler

import (
	"time"

	"github.com/alexanderramin/stagegate/internal/domain"
)

// Forecast is the re-computed expected window of one stage.
type Forecast struct {
	Code          string
	ForecastStart *time.Time
	ForecastDue   *time.Time
	// Slipping is set when the forecast due date is later than the planned one.
	Slipping  bool
	DeltaDays int
}

// Reforecast walks stages in order and pushes each open stage behind the
// forecast end of its predecessor. Completed stages anchor the cursor at
// their completion date; skipped stages are transparent. An open stage whose
// window has already passed is re-forecast to finish no earlier than today.
func Reforecast(stages []domain.ProjectStage, today time.Time, cal WorkingCalendar) []Forecast {
	today = domain.DateOnly(today)
	out := make([]Forecast, 0, len(stages))
	var prevEnd *time.Time

	for _, s := range stages {
		f := Forecast{Code: s.Code}
		switch s.Status {
		case domain.StageSkipped:
			out = append(out, f)
			continue

		case domain.StageCompleted:
			f.ForecastStart = firstDate(s.ActualStart, s.PlannedStart, s.CompletedOn)
			f.ForecastDue = s.CompletedOn
			if s.CompletedOn != nil {
				prevEnd = s.CompletedOn
			}

		default:
			start := openStageStart(s, prevEnd, cal)
			if start == nil {
				// Nothing to anchor on: no plan, no actual start, no predecessor.
				out = append(out, f)
				continue
			}
			due := cal.AddWorkingDays(*start, effectiveDuration(s.DurationDays)-1)
			if due.Before(today) {
				due = cal.ShiftToWorkingDay(today)
			}
			f.ForecastStart = start
			f.ForecastDue = &due
			prevEnd = &due
		}

		if f.ForecastDue != nil && s.PlannedDue != nil {
			f.DeltaDays = domain.DaysBetween(*s.PlannedDue, *f.ForecastDue)
			f.Slipping = f.DeltaDays > 0
		}
		out = append(out, f)
	}
	return out
}

func openStageStart(s domain.ProjectStage, prevEnd *time.Time, cal WorkingCalendar) *time.Time {
	if s.ActualStart != nil {
		d := domain.DateOnly(*s.ActualStart)
		return &d
	}
	var start *time.Time
	if s.PlannedStart != nil {
		d := cal.ShiftToWorkingDay(*s.PlannedStart)
		start = &d
	}
	if prevEnd != nil {
		after := cal.NextWorkingDay(*prevEnd)
		if start == nil || after.After(*start) {
			start = &after
		}
	}
	return start
}

func firstDate(ds ...*time.Time) *time.Time {
	for _, d := range ds {
		if d != nil {
			return d
		}
	}
	return nil
}

// ApplyForecast copies forecast dates onto the matching stages in place.
func ApplyForecast(stages []domain.ProjectStage, forecasts []Forecast) {
	byCode := make(map[string]Forecast, len(forecasts))
	for _, f := range forecasts {
		byCode[f.Code] = f
	}
	for i := range stages {
		f, ok := byCode[stages[i].Code]
		if !ok {
			continue
		}
		stages[i].ForecastStart = f.ForecastStart
		stages[i].ForecastDue = f.ForecastDue
	}
}
