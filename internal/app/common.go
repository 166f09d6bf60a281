package app

import (
	"time"

	"github.com/alexanderramin/stagegate/internal/domain"
)

// StageHealthView is one row of a project's health breakdown.
type StageHealthView struct {
	Code          string
	Name          string
	Sequence      int
	Status        domain.StageStatus
	PlannedStart  *time.Time
	PlannedDue    *time.Time
	ForecastStart *time.Time
	ForecastDue   *time.Time
	CompletedOn   *time.Time
	Slip          int
	Slipping      bool
	DeltaDays     int
	DueSoon       bool
}

// ProjectHealth is the per-stage health of a single project.
type ProjectHealth struct {
	ProjectID  string
	ShortID    string
	Name       string
	Today      time.Time
	RAG        domain.RAG
	MaxSlip    int
	WorstStage string
	Stages     []StageHealthView
}
