package scheduler

import (
	"time"

	"github.com/alexanderramin/stagegate/internal/domain"
)

// Thresholds tune the RAG rules. The zero value is not useful; start from
// DefaultThresholds.
type Thresholds struct {
	// RedSlipDays is the slip at or above which a project is red.
	RedSlipDays int
	// AmberWindowDays is how many days ahead an open stage's due date turns
	// the project amber.
	AmberWindowDays int
}

// DefaultThresholds: red at 7 days slip, amber when a stage is due within 2 days.
var DefaultThresholds = Thresholds{RedSlipDays: 7, AmberWindowDays: 2}

// Health is the outcome of ComputeHealth.
type Health struct {
	RAG        domain.RAG
	Slip       map[string]int // stage code -> days overdue
	MaxSlip    int
	WorstStage string   // first stage in sequence order with MaxSlip > 0
	DueSoon    []string // open stages due within the amber window
}

// StageSlip returns the number of days the stage is overdue as of today.
// Skipped stages never slip. Completed stages slip only when they finished
// after their planned due date. Open stages slip once today passes the
// planned due date. A stage without a planned due date has no slip.
func StageSlip(s domain.ProjectStage, today time.Time) int {
	if s.PlannedDue == nil {
		return 0
	}
	var slip int
	switch s.Status {
	case domain.StageSkipped:
		return 0
	case domain.StageCompleted:
		if s.CompletedOn == nil {
			return 0
		}
		slip = domain.DaysBetween(*s.PlannedDue, *s.CompletedOn)
	default:
		slip = domain.DaysBetween(*s.PlannedDue, today)
	}
	if slip < 0 {
		return 0
	}
	return slip
}

// ComputeHealth evaluates stages with DefaultThresholds.
func ComputeHealth(stages []domain.ProjectStage, today time.Time) Health {
	return ComputeHealthWith(stages, today, DefaultThresholds)
}

// ComputeHealthWith returns per-stage slip and the aggregate RAG status.
// RAG only ever escalates while iterating, so a red stage cannot be masked
// by a later green one.
func ComputeHealthWith(stages []domain.ProjectStage, today time.Time, th Thresholds) Health {
	h := Health{RAG: domain.RAGGreen, Slip: make(map[string]int, len(stages))}
	for _, s := range stages {
		slip := StageSlip(s, today)
		h.Slip[s.Code] = slip
		if slip > h.MaxSlip {
			h.MaxSlip = slip
			h.WorstStage = s.Code
		}

		level := domain.RAGGreen
		switch {
		case slip >= th.RedSlipDays:
			level = domain.RAGRed
		case slip >= 1:
			level = domain.RAGAmber
		case dueSoon(s, today, th.AmberWindowDays):
			level = domain.RAGAmber
			h.DueSoon = append(h.DueSoon, s.Code)
		}
		h.RAG = escalate(h.RAG, level)
	}
	return h
}

func dueSoon(s domain.ProjectStage, today time.Time, window int) bool {
	if s.PlannedDue == nil {
		return false
	}
	if s.Status != domain.StageNotStarted && s.Status != domain.StageInProgress {
		return false
	}
	left := domain.DaysBetween(today, *s.PlannedDue)
	return left >= 0 && left <= window
}

func escalate(current, next domain.RAG) domain.RAG {
	if RAGPriority(next) < RAGPriority(current) {
		return next
	}
	return current
}
