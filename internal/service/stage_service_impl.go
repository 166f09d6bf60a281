package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/stagegate/internal/authz"
	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/repository"
)

type stageService struct {
	stages    repository.StageRepo
	calendars *CalendarBuilder
	publisher Publisher
	uow       db.UnitOfWork
	observer  UseCaseObserver
	now       func() time.Time
}

func NewStageService(
	stages repository.StageRepo,
	calendars *CalendarBuilder,
	publisher Publisher,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) StageService {
	return &stageService{
		stages:    stages,
		calendars: calendars,
		publisher: publisherOrNop(publisher),
		uow:       uow,
		observer:  useCaseObserverOrNoop(observers),
		now:       systemNow,
	}
}

func (s *stageService) List(ctx context.Context, projectID string) ([]*domain.ProjectStage, error) {
	return s.stages.ListByProject(ctx, projectID)
}

// Transition applies one lifecycle step to a stage, re-forecasts the rest of
// the project and tells project officers and HoDs what changed.
func (s *stageService) Transition(ctx context.Context, actor *domain.User, req StageTransitionRequest) (stage *domain.ProjectStage, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"project_id": req.ProjectID,
		"stage":      req.Code,
		"action":     string(req.Action),
	}
	defer func() { observe(ctx, s.observer, "stage-transition", startedAt, fields, err) }()

	if err = authz.Require(actor, authz.ActionStageTransition); err != nil {
		return nil, err
	}
	now := s.now()
	today := domain.DateOnly(now)
	on := today
	if !req.On.IsZero() {
		on = domain.DateOnly(req.On)
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))

	var box outbox
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		box.reset()
		txProjects := repository.NewSQLiteProjectRepo(tx)
		txStages := repository.NewSQLiteStageRepo(tx)

		project, err := txProjects.GetByID(ctx, req.ProjectID)
		if err != nil {
			return err
		}
		if project.Status == domain.ProjectArchived {
			return fmt.Errorf("project %s is archived: %w", project.DisplayID(), domain.ErrValidation)
		}
		st, err := txStages.GetByCode(ctx, project.ID, code)
		if err != nil {
			return err
		}
		if req.RowVersion != 0 && req.RowVersion != st.RowVersion {
			return fmt.Errorf("stage %s is at version %d, not %d: %w", st.Code, st.RowVersion, req.RowVersion, domain.ErrConcurrencyConflict)
		}
		from := st.Status
		if err := applyStageAction(st, req.Action, on); err != nil {
			return err
		}
		st.UpdatedAt = now
		if err := txStages.Update(ctx, st); err != nil {
			return err
		}

		cal, err := s.calendars.Build(ctx, repository.NewSQLiteHolidayRepo(tx))
		if err != nil {
			return err
		}
		refreshed, err := reforecastProject(ctx, txStages, project.ID, cal, today)
		if err != nil {
			return err
		}
		for _, r := range refreshed {
			if r.ID == st.ID {
				st.ForecastStart, st.ForecastDue = r.ForecastStart, r.ForecastDue
			}
		}

		detail := fmt.Sprintf("%s: %s -> %s on %s", st.Code, from, st.Status, on.Format(domain.DateLayout))
		if err := appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "stage."+string(req.Action), "stage", st.ID, detail, now); err != nil {
			return err
		}

		names, err := recipients(ctx, repository.NewSQLiteUserRepo(tx), authz.Username(actor), domain.RoleProjectOfficer, domain.RoleHoD)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s %s is now %s", project.DisplayID(), st.Code, st.Status)
		body := fmt.Sprintf("%s moved %s (%s) from %s to %s on %s.", authz.Username(actor), st.Name, st.Code, from, st.Status, on.Format(domain.DateLayout))
		notifications := repository.NewSQLiteNotificationRepo(tx)
		for _, name := range names {
			if err := box.add(ctx, notifications, newNotification(name, domain.NotifyStageChanged, project.ID, title, body, now)); err != nil {
				return err
			}
		}
		fields["notified"] = len(names)
		stage = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	box.flush(ctx, s.publisher)
	return stage, nil
}

func applyStageAction(st *domain.ProjectStage, action StageAction, on time.Time) error {
	switch action {
	case StageStart:
		return st.Start(on)
	case StageComplete:
		return st.Complete(on)
	case StageSkip:
		return st.Skip()
	case StageBlock:
		return st.Block()
	case StageReopen:
		return st.Reopen(on)
	}
	return fmt.Errorf("unknown stage action %q: %w", action, domain.ErrValidation)
}
