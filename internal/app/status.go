package app

import (
	"time"

	"github.com/alexanderramin/stagegate/internal/domain"
)

type StatusRequest struct {
	// Today overrides the evaluation date; nil means the current UTC date.
	Today           *time.Time
	ProjectScope    []string // project IDs or short IDs
	IncludeArchived bool
}

func NewStatusRequest() StatusRequest {
	return StatusRequest{}
}

type ProjectStatusView struct {
	ProjectID          string
	ShortID            string
	ProjectName        string
	Status             domain.ProjectStatus
	RAG                domain.RAG
	MaxSlip            int
	WorstStage         string
	CurrentStage       string
	DueSoon            []string
	PlannedCompletion  *time.Time
	ForecastCompletion *time.Time
	StagesTotal        int
	StagesDone         int
	StagesBlocked      int
}

func (v ProjectStatusView) RankRAG() domain.RAG { return v.RAG }
func (v ProjectStatusView) RankSlip() int       { return v.MaxSlip }
func (v ProjectStatusView) RankName() string    { return v.ProjectName }

type StatusSummary struct {
	GeneratedAt time.Time
	Today       time.Time
	CountsTotal int
	CountsGreen int
	CountsAmber int
	CountsRed   int
}

type StatusResponse struct {
	Summary  StatusSummary
	Projects []ProjectStatusView
	Warnings []string
}

type StatusErrorCode string

const (
	StatusErrInvalidScope StatusErrorCode = "INVALID_SCOPE"
)

type StatusError struct {
	Code    StatusErrorCode
	Message string
}

func (e *StatusError) Error() string {
	return string(e.Code) + ": " + e.Message
}
