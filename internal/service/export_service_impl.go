package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alexanderramin/stagegate/internal/app"
	"github.com/alexanderramin/stagegate/internal/authz"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/export"
)

type exportService struct {
	status   StatusService
	observer UseCaseObserver
	now      func() time.Time
}

// NewExportService renders the views StatusService computes.
func NewExportService(status StatusService, observers ...UseCaseObserver) ExportService {
	return &exportService{status: status, observer: useCaseObserverOrNoop(observers), now: systemNow}
}

func (s *exportService) StageSheet(ctx context.Context, actor *domain.User, projectID string, today *time.Time, format export.Format, w io.Writer) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"project_id": projectID, "format": string(format)}
	defer func() { observe(ctx, s.observer, "export-stages", startedAt, fields, err) }()

	if err = authz.Require(actor, authz.ActionExport); err != nil {
		return err
	}
	health, err := s.status.ProjectHealth(ctx, projectID, today)
	if err != nil {
		return err
	}
	sheet := export.StageSheet{
		Title:       fmt.Sprintf("%s %s: stages as of %s", health.ShortID, health.Name, health.Today.Format(domain.DateLayout)),
		GeneratedAt: s.now(),
		Rows:        make([]export.StageRow, len(health.Stages)),
	}
	for i, st := range health.Stages {
		sheet.Rows[i] = export.StageRow{
			Sequence:     st.Sequence,
			Code:         st.Code,
			Name:         st.Name,
			Status:       st.Status,
			PlannedStart: st.PlannedStart,
			PlannedDue:   st.PlannedDue,
			ForecastDue:  st.ForecastDue,
			CompletedOn:  st.CompletedOn,
			Slip:         st.Slip,
		}
	}
	return export.WriteStageSheet(w, format, sheet)
}

func (s *exportService) Portfolio(ctx context.Context, actor *domain.User, today *time.Time, format export.Format, w io.Writer) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"format": string(format)}
	defer func() { observe(ctx, s.observer, "export-portfolio", startedAt, fields, err) }()

	if err = authz.Require(actor, authz.ActionExport); err != nil {
		return err
	}
	resp, err := s.status.GetStatus(ctx, app.StatusRequest{Today: today})
	if err != nil {
		return err
	}
	p := export.Portfolio{
		Title:       "Portfolio status as of " + resp.Summary.Today.Format(domain.DateLayout),
		GeneratedAt: resp.Summary.GeneratedAt,
		Rows:        make([]export.PortfolioRow, len(resp.Projects)),
	}
	for i, v := range resp.Projects {
		p.Rows[i] = export.PortfolioRow{
			ShortID:            v.ShortID,
			Name:               v.ProjectName,
			RAG:                v.RAG,
			MaxSlip:            v.MaxSlip,
			WorstStage:         v.WorstStage,
			ForecastCompletion: v.ForecastCompletion,
		}
	}
	fields["projects"] = len(p.Rows)
	return export.WritePortfolio(w, format, p)
}
