package httpapi

import (
	"time"

	"github.com/alexanderramin/stagegate/internal/app"
	"github.com/alexanderramin/stagegate/internal/domain"
)

// timestampFormat is used for RFC3339 timestamps in API payloads; calendar
// dates use domain.DateLayout.
const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

func date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampFormat)
}

type Project struct {
	ID         string `json:"id"`
	ShortID    string `json:"shortId"`
	Name       string `json:"name"`
	Sponsor    string `json:"sponsor,omitempty"`
	Category   string `json:"category,omitempty"`
	Budget     int64  `json:"budget"`
	StartDate  string `json:"startDate"`
	Status     string `json:"status"`
	RowVersion int    `json:"rowVersion"`
	ArchivedAt string `json:"archivedAt,omitempty"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

func fromProject(p *domain.Project) Project {
	dto := Project{
		ID:         p.ID,
		ShortID:    p.ShortID,
		Name:       p.Name,
		Sponsor:    p.Sponsor,
		Category:   p.Category,
		Budget:     p.Budget,
		StartDate:  date(&p.StartDate),
		Status:     string(p.Status),
		RowVersion: p.RowVersion,
		CreatedAt:  timestamp(p.CreatedAt),
		UpdatedAt:  timestamp(p.UpdatedAt),
	}
	if p.ArchivedAt != nil {
		dto.ArchivedAt = timestamp(*p.ArchivedAt)
	}
	return dto
}

type Stage struct {
	ID            string `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Sequence      int    `json:"sequence"`
	DurationDays  int    `json:"durationDays"`
	Status        string `json:"status"`
	PlannedStart  string `json:"plannedStart,omitempty"`
	PlannedDue    string `json:"plannedDue,omitempty"`
	ForecastStart string `json:"forecastStart,omitempty"`
	ForecastDue   string `json:"forecastDue,omitempty"`
	ActualStart   string `json:"actualStart,omitempty"`
	CompletedOn   string `json:"completedOn,omitempty"`
	RowVersion    int    `json:"rowVersion"`
}

func fromStage(s *domain.ProjectStage) Stage {
	return Stage{
		ID:            s.ID,
		Code:          s.Code,
		Name:          s.Name,
		Sequence:      s.Sequence,
		DurationDays:  s.DurationDays,
		Status:        string(s.Status),
		PlannedStart:  date(s.PlannedStart),
		PlannedDue:    date(s.PlannedDue),
		ForecastStart: date(s.ForecastStart),
		ForecastDue:   date(s.ForecastDue),
		ActualStart:   date(s.ActualStart),
		CompletedOn:   date(s.CompletedOn),
		RowVersion:    s.RowVersion,
	}
}

type PlanStage struct {
	Code         string `json:"code"`
	Sequence     int    `json:"sequence"`
	DurationDays int    `json:"durationDays"`
	PlannedStart string `json:"plannedStart,omitempty"`
	PlannedDue   string `json:"plannedDue,omitempty"`
	Skip         bool   `json:"skip"`
}

type Plan struct {
	ID           string      `json:"id"`
	ProjectID    string      `json:"projectId"`
	Version      int         `json:"version"`
	AnchorDate   string      `json:"anchorDate"`
	Status       string      `json:"status"`
	CreatedBy    string      `json:"createdBy"`
	SubmittedAt  string      `json:"submittedAt,omitempty"`
	DecidedBy    string      `json:"decidedBy,omitempty"`
	DecidedAt    string      `json:"decidedAt,omitempty"`
	DecisionNote string      `json:"decisionNote,omitempty"`
	Stages       []PlanStage `json:"stages"`
}

func fromPlan(v *domain.PlanVersion) Plan {
	dto := Plan{
		ID:           v.ID,
		ProjectID:    v.ProjectID,
		Version:      v.Version,
		AnchorDate:   date(&v.AnchorDate),
		Status:       string(v.Status),
		CreatedBy:    v.CreatedBy,
		DecidedBy:    v.DecidedBy,
		DecisionNote: v.DecisionNote,
		Stages:       make([]PlanStage, len(v.Stages)),
	}
	if v.SubmittedAt != nil {
		dto.SubmittedAt = timestamp(*v.SubmittedAt)
	}
	if v.DecidedAt != nil {
		dto.DecidedAt = timestamp(*v.DecidedAt)
	}
	for i, s := range v.Stages {
		dto.Stages[i] = PlanStage{
			Code:         s.StageCode,
			Sequence:     s.Sequence,
			DurationDays: s.DurationDays,
			PlannedStart: date(s.PlannedStart),
			PlannedDue:   date(s.PlannedDue),
			Skip:         s.Skip,
		}
	}
	return dto
}

type ProjectStatus struct {
	ProjectID          string   `json:"projectId"`
	ShortID            string   `json:"shortId"`
	Name               string   `json:"name"`
	Status             string   `json:"status"`
	RAG                string   `json:"rag"`
	MaxSlip            int      `json:"maxSlip"`
	WorstStage         string   `json:"worstStage,omitempty"`
	CurrentStage       string   `json:"currentStage,omitempty"`
	DueSoon            []string `json:"dueSoon,omitempty"`
	PlannedCompletion  string   `json:"plannedCompletion,omitempty"`
	ForecastCompletion string   `json:"forecastCompletion,omitempty"`
	StagesTotal        int      `json:"stagesTotal"`
	StagesDone         int      `json:"stagesDone"`
	StagesBlocked      int      `json:"stagesBlocked"`
}

type StatusSummary struct {
	GeneratedAt string `json:"generatedAt"`
	Today       string `json:"today"`
	Total       int    `json:"total"`
	Green       int    `json:"green"`
	Amber       int    `json:"amber"`
	Red         int    `json:"red"`
}

type StatusResponse struct {
	Summary  StatusSummary   `json:"summary"`
	Projects []ProjectStatus `json:"projects"`
	Warnings []string        `json:"warnings,omitempty"`
}

func fromStatus(resp *app.StatusResponse) StatusResponse {
	out := StatusResponse{
		Summary: StatusSummary{
			GeneratedAt: timestamp(resp.Summary.GeneratedAt),
			Today:       date(&resp.Summary.Today),
			Total:       resp.Summary.CountsTotal,
			Green:       resp.Summary.CountsGreen,
			Amber:       resp.Summary.CountsAmber,
			Red:         resp.Summary.CountsRed,
		},
		Projects: make([]ProjectStatus, len(resp.Projects)),
		Warnings: resp.Warnings,
	}
	for i, v := range resp.Projects {
		out.Projects[i] = ProjectStatus{
			ProjectID:          v.ProjectID,
			ShortID:            v.ShortID,
			Name:               v.ProjectName,
			Status:             string(v.Status),
			RAG:                string(v.RAG),
			MaxSlip:            v.MaxSlip,
			WorstStage:         v.WorstStage,
			CurrentStage:       v.CurrentStage,
			DueSoon:            v.DueSoon,
			PlannedCompletion:  date(v.PlannedCompletion),
			ForecastCompletion: date(v.ForecastCompletion),
			StagesTotal:        v.StagesTotal,
			StagesDone:         v.StagesDone,
			StagesBlocked:      v.StagesBlocked,
		}
	}
	return out
}

type StageHealth struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	PlannedDue  string `json:"plannedDue,omitempty"`
	ForecastDue string `json:"forecastDue,omitempty"`
	CompletedOn string `json:"completedOn,omitempty"`
	Slip        int    `json:"slip"`
	Slipping    bool   `json:"slipping"`
	DeltaDays   int    `json:"deltaDays"`
	DueSoon     bool   `json:"dueSoon"`
}

type ProjectHealth struct {
	ProjectID  string        `json:"projectId"`
	ShortID    string        `json:"shortId"`
	Today      string        `json:"today"`
	RAG        string        `json:"rag"`
	MaxSlip    int           `json:"maxSlip"`
	WorstStage string        `json:"worstStage,omitempty"`
	Stages     []StageHealth `json:"stages"`
}

func fromHealth(h *app.ProjectHealth) ProjectHealth {
	out := ProjectHealth{
		ProjectID:  h.ProjectID,
		ShortID:    h.ShortID,
		Today:      date(&h.Today),
		RAG:        string(h.RAG),
		MaxSlip:    h.MaxSlip,
		WorstStage: h.WorstStage,
		Stages:     make([]StageHealth, len(h.Stages)),
	}
	for i, s := range h.Stages {
		out.Stages[i] = StageHealth{
			Code:        s.Code,
			Name:        s.Name,
			Status:      string(s.Status),
			PlannedDue:  date(s.PlannedDue),
			ForecastDue: date(s.ForecastDue),
			CompletedOn: date(s.CompletedOn),
			Slip:        s.Slip,
			Slipping:    s.Slipping,
			DeltaDays:   s.DeltaDays,
			DueSoon:     s.DueSoon,
		}
	}
	return out
}

type Remark struct {
	ID        string   `json:"id"`
	StageCode string   `json:"stageCode,omitempty"`
	Author    string   `json:"author"`
	Markdown  string   `json:"markdown"`
	HTML      string   `json:"html"`
	Mentions  []string `json:"mentions,omitempty"`
	CreatedAt string   `json:"createdAt"`
}

func fromRemark(r *domain.Remark) Remark {
	return Remark{
		ID:        r.ID,
		StageCode: r.StageCode,
		Author:    r.Author,
		Markdown:  r.BodyMarkdown,
		HTML:      r.BodyHTML,
		Mentions:  r.Mentions,
		CreatedAt: timestamp(r.CreatedAt),
	}
}

type Notification struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	ProjectID string `json:"projectId,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

func fromNotification(n *domain.Notification) Notification {
	return Notification{
		ID:        n.ID,
		Kind:      string(n.Kind),
		Title:     n.Title,
		Body:      n.Body,
		ProjectID: n.ProjectID,
		Read:      n.ReadAt != nil,
		CreatedAt: timestamp(n.CreatedAt),
	}
}

type UserRef struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

type Holiday struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// ListResponse wraps collections so the payload can grow fields later.
type ListResponse[T any] struct {
	Items []T `json:"items"`
}

func listOf[S any, T any](in []S, conv func(S) T) ListResponse[T] {
	out := ListResponse[T]{Items: make([]T, len(in))}
	for i, v := range in {
		out.Items[i] = conv(v)
	}
	return out
}
