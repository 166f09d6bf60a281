package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/alexanderramin/stagegate/internal/app"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/export"
	"github.com/alexanderramin/stagegate/internal/service"
)

// project resolves the {id} path value, which may be an ID or short ID.
func (s *Server) project(w http.ResponseWriter, r *http.Request) (*domain.Project, bool) {
	p, err := s.svc.Projects.Resolve(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return nil, false
	}
	return p, true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	today, err := optionalDate(q.Get("on"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	req := app.StatusRequest{
		Today:           today,
		ProjectScope:    q["project"],
		IncludeArchived: q.Get("archived") == "1" || strings.EqualFold(q.Get("archived"), "true"),
	}
	resp, err := s.svc.Status.GetStatus(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fromStatus(resp))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	archived := r.URL.Query().Get("archived") == "1"
	projects, err := s.svc.Projects.List(r.Context(), archived)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, listOf(projects, fromProject))
}

type projectRequest struct {
	ShortID    string `json:"shortId"`
	Name       string `json:"name"`
	Sponsor    string `json:"sponsor"`
	Category   string `json:"category"`
	Budget     *int64 `json:"budget"`
	StartDate  string `json:"startDate"`
	RowVersion int    `json:"rowVersion"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	start, err := domain.ParseDate(req.StartDate)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	p := &domain.Project{
		ShortID:   req.ShortID,
		Name:      req.Name,
		Sponsor:   req.Sponsor,
		Category:  req.Category,
		Budget:    domain.Int64FromPtrWithDefault(0, req.Budget),
		StartDate: start,
	}
	if err := s.svc.Projects.Create(r.Context(), userFrom(r.Context()), p); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, fromProject(p))
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.project(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, fromProject(p))
}

// handleUpdateProject applies the non-empty fields of the body. rowVersion
// must match the stored project.
func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.project(w, r)
	if !ok {
		return
	}
	var req projectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if req.RowVersion == 0 {
		s.writeError(w, http.StatusBadRequest, "rowVersion is required")
		return
	}
	p.RowVersion = req.RowVersion
	p.Name = domain.CoalesceStr(req.Name, p.Name)
	p.Sponsor = domain.CoalesceStr(req.Sponsor, p.Sponsor)
	p.Category = domain.CoalesceStr(req.Category, p.Category)
	p.Budget = domain.Int64FromPtrWithDefault(p.Budget, req.Budget)
	if req.StartDate != "" {
		start, err := domain.ParseDate(req.StartDate)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		p.StartDate = start
	}
	if err := s.svc.Projects.Update(r.Context(), userFrom(r.Context()), p); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fromProject(p))
}

func (s *Server) handleListStages(w http.ResponseWriter, r *http.Request) {
	p, ok := s.project(w, r)
	if !ok {
		return
	}
	stages, err := s.svc.Stages.List(r.Context(), p.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, listOf(stages, fromStage))
}

type transitionRequest struct {
	On         string `json:"on"`
	RowVersion int    `json:"rowVersion"`
}

func (s *Server) handleStageTransition(w http.ResponseWriter, r *http.Request) {
	p, ok := s.project(w, r)
	if !ok {
		return
	}
	action, valid := service.ParseStageAction(r.PathValue("action"))
	if !valid {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown stage action %q", r.PathValue("action")))
		return
	}
	var body transitionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &body); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}
	on, err := optionalDate(body.On)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	req := service.StageTransitionRequest{
		ProjectID:  p.ID,
		Code:       strings.ToUpper(r.PathValue("code")),
		Action:     action,
		RowVersion: body.RowVersion,
	}
	if on != nil {
		req.On = *on
	}
	stage, err := s.svc.Stages.Transition(r.Context(), userFrom(r.Context()), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fromStage(stage))
}

func (s *Server) handleProjectHealth(w http.ResponseWriter, r *http.Request) {
	today, err := optionalDate(r.URL.Query().Get("on"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	h, err := s.svc.Status.ProjectHealth(r.Context(), r.PathValue("id"), today)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fromHealth(h))
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	p, ok := s.project(w, r)
	if !ok {
		return
	}
	plans, err := s.svc.Plans.List(r.Context(), p.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, listOf(plans, fromPlan))
}

type draftRequest struct {
	Anchor    string         `json:"anchor"`
	Durations map[string]int `json:"durations"`
	Skips     []string       `json:"skips"`
}

func (s *Server) handleDraftPlan(w http.ResponseWriter, r *http.Request) {
	p, ok := s.project(w, r)
	if !ok {
		return
	}
	var body draftRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	anchor, err := domain.ParseDate(body.Anchor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	plan, err := s.svc.Plans.CreateDraft(r.Context(), userFrom(r.Context()), service.DraftPlanRequest{
		ProjectID: p.ID,
		Anchor:    anchor,
		Durations: body.Durations,
		Skips:     body.Skips,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, fromPlan(plan))
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.svc.Plans.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fromPlan(plan))
}

type decisionRequest struct {
	Note string `json:"note"`
}

func (s *Server) handlePlanDecision(w http.ResponseWriter, r *http.Request) {
	var body decisionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &body); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}
	ctx, actor, id := r.Context(), userFrom(r.Context()), r.PathValue("id")
	var (
		plan *domain.PlanVersion
		err  error
	)
	switch r.PathValue("action") {
	case "submit":
		plan, err = s.svc.Plans.Submit(ctx, actor, id)
	case "approve":
		plan, err = s.svc.Plans.Approve(ctx, actor, id, body.Note)
	case "reject":
		plan, err = s.svc.Plans.Reject(ctx, actor, id, body.Note)
	default:
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown plan action %q", r.PathValue("action")))
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fromPlan(plan))
}

// exportFormat splits "export.xlsx" style file names.
func exportFormat(file, base string) (export.Format, bool) {
	ext, ok := strings.CutPrefix(file, base+".")
	if !ok {
		return "", false
	}
	f, err := export.ParseFormat(ext)
	return f, err == nil
}

func (s *Server) handleStageExport(w http.ResponseWriter, r *http.Request) {
	format, ok := exportFormat(r.PathValue("file"), "export")
	if !ok {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	p, ok := s.project(w, r)
	if !ok {
		return
	}
	s.writeExport(w, r, format, p.DisplayID()+"-stages", func(buf *exportBuffer) error {
		return s.svc.Exports.StageSheet(r.Context(), userFrom(r.Context()), p.ID, nil, format, buf)
	})
}

func (s *Server) handlePortfolioExport(w http.ResponseWriter, r *http.Request) {
	format, ok := exportFormat(r.PathValue("file"), "portfolio")
	if !ok {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.writeExport(w, r, format, "portfolio", func(buf *exportBuffer) error {
		return s.svc.Exports.Portfolio(r.Context(), userFrom(r.Context()), nil, format, buf)
	})
}
