package domain

import (
	"fmt"
	"strings"
	"time"
)

// PlanVersion is one approvable revision of a project's stage schedule.
type PlanVersion struct {
	ID           string
	ProjectID    string
	Version      int
	AnchorDate   time.Time
	Status       PlanStatus
	CreatedBy    string
	SubmittedAt  *time.Time
	DecidedBy    string
	DecidedAt    *time.Time
	DecisionNote string
	Stages       []StagePlan
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StagePlan is the planned window of a single stage inside a PlanVersion.
type StagePlan struct {
	PlanVersionID string
	StageCode     string
	Sequence      int
	DurationDays  int
	PlannedStart  *time.Time
	PlannedDue    *time.Time
	Skip          bool
}

// Submit sends a draft for approval.
func (v *PlanVersion) Submit(now time.Time) error {
	if v.Status != PlanDraft {
		return fmt.Errorf("plan v%d is %s, only drafts can be submitted: %w", v.Version, v.Status, ErrInvalidTransition)
	}
	v.Status = PlanPendingApproval
	v.SubmittedAt = &now
	return nil
}

// Approve accepts a pending plan.
func (v *PlanVersion) Approve(by, note string, now time.Time) error {
	if v.Status != PlanPendingApproval {
		return fmt.Errorf("plan v%d is %s, only pending plans can be approved: %w", v.Version, v.Status, ErrInvalidTransition)
	}
	v.Status = PlanApproved
	v.DecidedBy = by
	v.DecidedAt = &now
	v.DecisionNote = strings.TrimSpace(note)
	return nil
}

// Reject declines a pending plan. A reason is mandatory.
func (v *PlanVersion) Reject(by, note string, now time.Time) error {
	if v.Status != PlanPendingApproval {
		return fmt.Errorf("plan v%d is %s, only pending plans can be rejected: %w", v.Version, v.Status, ErrInvalidTransition)
	}
	if strings.TrimSpace(note) == "" {
		return fmt.Errorf("a rejection note is required: %w", ErrValidation)
	}
	v.Status = PlanRejected
	v.DecidedBy = by
	v.DecidedAt = &now
	v.DecisionNote = strings.TrimSpace(note)
	return nil
}

// StageByCode returns the plan entry for code, or nil.
func (v *PlanVersion) StageByCode(code string) *StagePlan {
	for i := range v.Stages {
		if v.Stages[i].StageCode == code {
			return &v.Stages[i]
		}
	}
	return nil
}
