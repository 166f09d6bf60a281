package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/stagegate/internal/app"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/repository"
	"github.com/alexanderramin/stagegate/internal/scheduler"
	"github.com/alexanderramin/stagegate/internal/workcal"
)

type statusService struct {
	projects   repository.ProjectRepo
	stages     repository.StageRepo
	holidays   repository.HolidayRepo
	calendars  *CalendarBuilder
	thresholds scheduler.Thresholds
	observer   UseCaseObserver
	now        func() time.Time
}

func NewStatusService(
	projects repository.ProjectRepo,
	stages repository.StageRepo,
	holidays repository.HolidayRepo,
	calendars *CalendarBuilder,
	thresholds scheduler.Thresholds,
	observers ...UseCaseObserver,
) StatusService {
	if thresholds.RedSlipDays <= 0 {
		thresholds = scheduler.DefaultThresholds
	}
	return &statusService{
		projects:   projects,
		stages:     stages,
		holidays:   holidays,
		calendars:  calendars,
		thresholds: thresholds,
		observer:   useCaseObserverOrNoop(observers),
		now:        systemNow,
	}
}

func (s *statusService) GetStatus(ctx context.Context, req app.StatusRequest) (resp *app.StatusResponse, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"scope": len(req.ProjectScope)}
	defer func() { observe(ctx, s.observer, "status", startedAt, fields, err) }()

	now := s.now()
	today := domain.DateOnly(now)
	if req.Today != nil {
		today = domain.DateOnly(*req.Today)
	}

	projects, err := s.scopedProjects(ctx, req)
	if err != nil {
		return nil, err
	}
	cal, err := s.calendars.Build(ctx, s.holidays)
	if err != nil {
		return nil, err
	}

	resp = &app.StatusResponse{Projects: make([]app.ProjectStatusView, 0, len(projects))}
	for _, p := range projects {
		stages, err := s.stages.ListByProject(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("loading stages of %s: %w", p.DisplayID(), err)
		}
		view := s.projectView(p, stageValues(stages), today, cal)
		if view.PlannedCompletion == nil && view.StagesTotal > view.StagesDone {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s has no approved plan", p.DisplayID()))
		}
		resp.Projects = append(resp.Projects, view)
	}
	scheduler.SortPortfolio(resp.Projects)
	resp.Summary = buildStatusSummary(resp.Projects, now, today)
	fields["projects"] = len(resp.Projects)
	return resp, nil
}

func (s *statusService) scopedProjects(ctx context.Context, req app.StatusRequest) ([]*domain.Project, error) {
	if len(req.ProjectScope) == 0 {
		projects, err := s.projects.List(ctx, req.IncludeArchived)
		if err != nil {
			return nil, fmt.Errorf("loading projects: %w", err)
		}
		return projects, nil
	}
	projects := make([]*domain.Project, 0, len(req.ProjectScope))
	seen := make(map[string]bool, len(req.ProjectScope))
	for _, ref := range req.ProjectScope {
		p, err := resolveProject(ctx, s.projects, strings.TrimSpace(ref))
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &app.StatusError{Code: app.StatusErrInvalidScope, Message: fmt.Sprintf("project %q not found", ref)}
		}
		if err != nil {
			return nil, err
		}
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		projects = append(projects, p)
	}
	return projects, nil
}

func (s *statusService) projectView(p *domain.Project, stages []domain.ProjectStage, today time.Time, cal *workcal.Calendar) app.ProjectStatusView {
	health := scheduler.ComputeHealthWith(stages, today, s.thresholds)
	forecasts := scheduler.Reforecast(stages, today, cal)

	view := app.ProjectStatusView{
		ProjectID:   p.ID,
		ShortID:     p.ShortID,
		ProjectName: p.Name,
		Status:      p.Status,
		RAG:         health.RAG,
		MaxSlip:     health.MaxSlip,
		WorstStage:  health.WorstStage,
		DueSoon:     health.DueSoon,
		StagesTotal: len(stages),
	}
	for _, st := range stages {
		switch st.Status {
		case domain.StageCompleted, domain.StageSkipped:
			view.StagesDone++
		case domain.StageBlocked:
			view.StagesBlocked++
		}
		if view.CurrentStage == "" && st.IsOpen() {
			view.CurrentStage = st.Code
		}
		if st.PlannedDue != nil {
			view.PlannedCompletion = st.PlannedDue
		}
	}
	for _, f := range forecasts {
		if f.ForecastDue != nil {
			view.ForecastCompletion = f.ForecastDue
		}
	}
	return view
}

func buildStatusSummary(views []app.ProjectStatusView, now, today time.Time) app.StatusSummary {
	sum := app.StatusSummary{GeneratedAt: now, Today: today, CountsTotal: len(views)}
	for _, v := range views {
		switch v.RAG {
		case domain.RAGRed:
			sum.CountsRed++
		case domain.RAGAmber:
			sum.CountsAmber++
		default:
			sum.CountsGreen++
		}
	}
	return sum
}

// ProjectHealth returns the per-stage breakdown behind a project's RAG.
func (s *statusService) ProjectHealth(ctx context.Context, projectID string, today *time.Time) (*app.ProjectHealth, error) {
	p, err := resolveProject(ctx, s.projects, projectID)
	if err != nil {
		return nil, err
	}
	day := domain.DateOnly(s.now())
	if today != nil {
		day = domain.DateOnly(*today)
	}
	list, err := s.stages.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("loading stages of %s: %w", p.DisplayID(), err)
	}
	cal, err := s.calendars.Build(ctx, s.holidays)
	if err != nil {
		return nil, err
	}
	stages := stageValues(list)
	health := scheduler.ComputeHealthWith(stages, day, s.thresholds)
	forecasts := scheduler.Reforecast(stages, day, cal)
	dueSoon := make(map[string]bool, len(health.DueSoon))
	for _, code := range health.DueSoon {
		dueSoon[code] = true
	}

	out := &app.ProjectHealth{
		ProjectID:  p.ID,
		ShortID:    p.ShortID,
		Name:       p.Name,
		Today:      day,
		RAG:        health.RAG,
		MaxSlip:    health.MaxSlip,
		WorstStage: health.WorstStage,
		Stages:     make([]app.StageHealthView, len(stages)),
	}
	for i, st := range stages {
		f := forecasts[i]
		out.Stages[i] = app.StageHealthView{
			Code:          st.Code,
			Name:          st.Name,
			Sequence:      st.Sequence,
			Status:        st.Status,
			PlannedStart:  st.PlannedStart,
			PlannedDue:    st.PlannedDue,
			ForecastStart: f.ForecastStart,
			ForecastDue:   f.ForecastDue,
			CompletedOn:   st.CompletedOn,
			Slip:          health.Slip[st.Code],
			Slipping:      f.Slipping,
			DeltaDays:     f.DeltaDays,
			DueSoon:       dueSoon[st.Code],
		}
	}
	return out, nil
}
