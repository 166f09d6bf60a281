package domain

import (
	"fmt"
	"time"
)

// ProjectStage is one phase of a project's procurement lifecycle.
// All date fields hold calendar dates (midnight UTC).
type ProjectStage struct {
	ID            string
	ProjectID     string
	Code          string
	Name          string
	Sequence      int
	DurationDays  int // working days
	PlannedStart  *time.Time
	PlannedDue    *time.Time
	ForecastStart *time.Time
	ForecastDue   *time.Time
	ActualStart   *time.Time
	CompletedOn   *time.Time
	Status        StageStatus
	RowVersion    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsOpen reports whether work on the stage is still outstanding.
func (s *ProjectStage) IsOpen() bool {
	switch s.Status {
	case StageNotStarted, StageInProgress, StageBlocked:
		return true
	}
	return false
}

func (s *ProjectStage) transitionErr(target StageStatus) error {
	return fmt.Errorf("stage %s cannot move from %s to %s: %w", s.Code, s.Status, target, ErrInvalidTransition)
}

// Start moves a not-started or blocked stage into progress.
func (s *ProjectStage) Start(on time.Time) error {
	if s.Status != StageNotStarted && s.Status != StageBlocked {
		return s.transitionErr(StageInProgress)
	}
	if s.ActualStart == nil {
		s.ActualStart = DatePtr(on)
	}
	s.Status = StageInProgress
	return nil
}

// Complete marks the stage completed on the given date. A stage that was
// never started is treated as having started and finished the same day.
func (s *ProjectStage) Complete(on time.Time) error {
	if s.Status != StageNotStarted && s.Status != StageInProgress {
		return s.transitionErr(StageCompleted)
	}
	done := DateOnly(on)
	if s.ActualStart != nil && done.Before(*s.ActualStart) {
		return fmt.Errorf("stage %s cannot complete on %s before it started on %s: %w",
			s.Code, done.Format(DateLayout), s.ActualStart.Format(DateLayout), ErrValidation)
	}
	if s.ActualStart == nil {
		s.ActualStart = DatePtr(done)
	}
	s.CompletedOn = &done
	s.Status = StageCompleted
	return nil
}

// Skip marks a stage that will not be carried out.
func (s *ProjectStage) Skip() error {
	if s.Status != StageNotStarted && s.Status != StageBlocked {
		return s.transitionErr(StageSkipped)
	}
	s.Status = StageSkipped
	return nil
}

// Block flags an open stage as waiting on something outside the project.
func (s *ProjectStage) Block() error {
	if s.Status != StageNotStarted && s.Status != StageInProgress {
		return s.transitionErr(StageBlocked)
	}
	s.Status = StageBlocked
	return nil
}

// Reopen returns a completed or skipped stage to work in progress.
func (s *ProjectStage) Reopen(on time.Time) error {
	if s.Status != StageCompleted && s.Status != StageSkipped {
		return s.transitionErr(StageInProgress)
	}
	s.CompletedOn = nil
	if s.ActualStart == nil {
		s.ActualStart = DatePtr(on)
	}
	s.Status = StageInProgress
	return nil
}
