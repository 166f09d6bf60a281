package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/stagegate/internal/authz"
	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/repository"
	"github.com/alexanderramin/stagegate/internal/scheduler"
)

type planService struct {
	plans     repository.PlanRepo
	calendars *CalendarBuilder
	publisher Publisher
	uow       db.UnitOfWork
	observer  UseCaseObserver
	now       func() time.Time
}

func NewPlanService(
	plans repository.PlanRepo,
	calendars *CalendarBuilder,
	publisher Publisher,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) PlanService {
	return &planService{
		plans:     plans,
		calendars: calendars,
		publisher: publisherOrNop(publisher),
		uow:       uow,
		observer:  useCaseObserverOrNoop(observers),
		now:       systemNow,
	}
}

func (s *planService) List(ctx context.Context, projectID string) ([]*domain.PlanVersion, error) {
	return s.plans.ListByProject(ctx, projectID)
}

func (s *planService) Get(ctx context.Context, versionID string) (*domain.PlanVersion, error) {
	return s.plans.GetByID(ctx, versionID)
}

// CreateDraft derives a new plan version from the project's stages laid end
// to end from the anchor date on the working-day calendar.
func (s *planService) CreateDraft(ctx context.Context, actor *domain.User, req DraftPlanRequest) (plan *domain.PlanVersion, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"project_id": req.ProjectID}
	defer func() { observe(ctx, s.observer, "plan-draft", startedAt, fields, err) }()

	if err = authz.Require(actor, authz.ActionPlanDraft); err != nil {
		return nil, err
	}
	if req.Anchor.IsZero() {
		return nil, fmt.Errorf("plan anchor date is required: %w", domain.ErrValidation)
	}
	for code, days := range req.Durations {
		if days < 0 {
			return nil, fmt.Errorf("duration of %s must not be negative: %w", code, domain.ErrValidation)
		}
	}
	now := s.now()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		project, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, req.ProjectID)
		if err != nil {
			return err
		}
		if project.Status == domain.ProjectArchived {
			return fmt.Errorf("project %s is archived: %w", project.DisplayID(), domain.ErrValidation)
		}
		stages, err := repository.NewSQLiteStageRepo(tx).ListByProject(ctx, project.ID)
		if err != nil {
			return err
		}

		known := make(map[string]bool, len(stages))
		for _, st := range stages {
			known[st.Code] = true
		}
		skips := make(map[string]bool, len(req.Skips))
		for _, code := range req.Skips {
			code = strings.ToUpper(strings.TrimSpace(code))
			if !known[code] {
				return fmt.Errorf("project %s has no stage %q: %w", project.DisplayID(), code, domain.ErrValidation)
			}
			skips[code] = true
		}
		durations := make(map[string]int, len(req.Durations))
		for code, days := range req.Durations {
			code = strings.ToUpper(strings.TrimSpace(code))
			if !known[code] {
				return fmt.Errorf("project %s has no stage %q: %w", project.DisplayID(), code, domain.ErrValidation)
			}
			durations[code] = days
		}

		inputs := make([]scheduler.StageDuration, len(stages))
		for i, st := range stages {
			days, ok := durations[st.Code]
			if !ok {
				days = st.DurationDays
			}
			inputs[i] = scheduler.StageDuration{
				Code:         st.Code,
				Sequence:     st.Sequence,
				DurationDays: days,
				// Finished stages take no time in the new schedule.
				Skip: skips[st.Code] || st.Status == domain.StageSkipped || st.Status == domain.StageCompleted,
			}
		}

		cal, err := s.calendars.Build(ctx, repository.NewSQLiteHolidayRepo(tx))
		if err != nil {
			return err
		}
		txPlans := repository.NewSQLitePlanRepo(tx)
		version, err := txPlans.NextVersion(ctx, project.ID)
		if err != nil {
			return err
		}
		plan = &domain.PlanVersion{
			ID:         uuid.New().String(),
			ProjectID:  project.ID,
			Version:    version,
			AnchorDate: domain.DateOnly(req.Anchor),
			Status:     domain.PlanDraft,
			CreatedBy:  authz.Username(actor),
			Stages:     scheduler.DerivePlan(req.Anchor, inputs, cal),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		for i := range plan.Stages {
			plan.Stages[i].PlanVersionID = plan.ID
			if stages[i].Status == domain.StageCompleted {
				// Completed stages keep their baseline; they are not skipped.
				plan.Stages[i].Skip = false
			}
		}
		if err := txPlans.Create(ctx, plan); err != nil {
			return err
		}
		fields["version"] = version
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "plan.draft", "plan", plan.ID,
			fmt.Sprintf("%s v%d anchored %s", project.DisplayID(), version, plan.AnchorDate.Format(domain.DateLayout)), now)
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Submit sends a draft for approval and notifies every HoD.
func (s *planService) Submit(ctx context.Context, actor *domain.User, versionID string) (*domain.PlanVersion, error) {
	if err := authz.Require(actor, authz.ActionPlanDraft); err != nil {
		return nil, err
	}
	return s.decide(ctx, actor, versionID, "plan-submit", func(ctx context.Context, tx db.DBTX, v *domain.PlanVersion, project *domain.Project, now time.Time, box *outbox) error {
		if err := v.Submit(now); err != nil {
			return err
		}
		if err := repository.NewSQLitePlanRepo(tx).UpdateStatus(ctx, v); err != nil {
			return err
		}
		names, err := recipients(ctx, repository.NewSQLiteUserRepo(tx), authz.Username(actor), domain.RoleHoD)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s plan v%d awaits approval", project.DisplayID(), v.Version)
		body := fmt.Sprintf("%s submitted plan v%d of %s anchored %s.", authz.Username(actor), v.Version, project.Name, v.AnchorDate.Format(domain.DateLayout))
		notifications := repository.NewSQLiteNotificationRepo(tx)
		for _, name := range names {
			if err := box.add(ctx, notifications, newNotification(name, domain.NotifyPlanSubmitted, project.ID, title, body, now)); err != nil {
				return err
			}
		}
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "plan.submit", "plan", v.ID,
			fmt.Sprintf("%s v%d", project.DisplayID(), v.Version), now)
	})
}

// Approve makes v the project's baseline: earlier approved versions are
// superseded, planned dates and durations are copied onto the open stages,
// and the project is re-forecast. Approvers may not approve their own
// submission unless they are admins.
func (s *planService) Approve(ctx context.Context, actor *domain.User, versionID, note string) (*domain.PlanVersion, error) {
	if err := authz.Require(actor, authz.ActionPlanDecide); err != nil {
		return nil, err
	}
	return s.decide(ctx, actor, versionID, "plan-approve", func(ctx context.Context, tx db.DBTX, v *domain.PlanVersion, project *domain.Project, now time.Time, box *outbox) error {
		if v.CreatedBy == actor.Username && actor.Role != domain.RoleAdmin {
			return fmt.Errorf("%s cannot approve their own plan: %w", actor.Username, domain.ErrForbidden)
		}
		if err := v.Approve(actor.Username, note, now); err != nil {
			return err
		}
		txPlans := repository.NewSQLitePlanRepo(tx)
		if err := txPlans.UpdateStatus(ctx, v); err != nil {
			return err
		}
		if _, err := txPlans.SupersedeApproved(ctx, project.ID, v.ID); err != nil {
			return err
		}

		txStages := repository.NewSQLiteStageRepo(tx)
		stages, err := txStages.ListByProject(ctx, project.ID)
		if err != nil {
			return err
		}
		for _, st := range stages {
			sp := v.StageByCode(st.Code)
			if sp == nil || st.Status == domain.StageCompleted {
				continue
			}
			st.DurationDays = sp.DurationDays
			st.PlannedStart = sp.PlannedStart
			st.PlannedDue = sp.PlannedDue
			if sp.Skip {
				st.Status = domain.StageSkipped
			}
			st.UpdatedAt = now
			if err := txStages.Update(ctx, st); err != nil {
				return err
			}
		}

		cal, err := s.calendars.Build(ctx, repository.NewSQLiteHolidayRepo(tx))
		if err != nil {
			return err
		}
		if _, err := reforecastProject(ctx, txStages, project.ID, cal, domain.DateOnly(now)); err != nil {
			return err
		}
		if err := s.notifyCreator(ctx, tx, box, v, project, now); err != nil {
			return err
		}
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "plan.approve", "plan", v.ID,
			fmt.Sprintf("%s v%d: %s", project.DisplayID(), v.Version, v.DecisionNote), now)
	})
}

// Reject closes a pending version; a note is required.
func (s *planService) Reject(ctx context.Context, actor *domain.User, versionID, note string) (*domain.PlanVersion, error) {
	if err := authz.Require(actor, authz.ActionPlanDecide); err != nil {
		return nil, err
	}
	return s.decide(ctx, actor, versionID, "plan-reject", func(ctx context.Context, tx db.DBTX, v *domain.PlanVersion, project *domain.Project, now time.Time, box *outbox) error {
		if err := v.Reject(actor.Username, note, now); err != nil {
			return err
		}
		if err := repository.NewSQLitePlanRepo(tx).UpdateStatus(ctx, v); err != nil {
			return err
		}
		if err := s.notifyCreator(ctx, tx, box, v, project, now); err != nil {
			return err
		}
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "plan.reject", "plan", v.ID,
			fmt.Sprintf("%s v%d: %s", project.DisplayID(), v.Version, v.DecisionNote), now)
	})
}

type planStep func(ctx context.Context, tx db.DBTX, v *domain.PlanVersion, project *domain.Project, now time.Time, box *outbox) error

// decide loads the version and its project inside a transaction, runs step
// and publishes whatever notifications step queued once the tx commits.
func (s *planService) decide(ctx context.Context, actor *domain.User, versionID, useCase string, step planStep) (plan *domain.PlanVersion, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"plan_id": versionID, "actor": authz.Username(actor)}
	defer func() { observe(ctx, s.observer, useCase, startedAt, fields, err) }()

	now := s.now()
	var box outbox
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		box.reset()
		v, err := repository.NewSQLitePlanRepo(tx).GetByID(ctx, versionID)
		if err != nil {
			return err
		}
		project, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, v.ProjectID)
		if err != nil {
			return err
		}
		v.UpdatedAt = now
		if err := step(ctx, tx, v, project, now, &box); err != nil {
			return err
		}
		plan = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	box.flush(ctx, s.publisher)
	return plan, nil
}

func (s *planService) notifyCreator(ctx context.Context, tx db.DBTX, box *outbox, v *domain.PlanVersion, project *domain.Project, now time.Time) error {
	if v.CreatedBy == "" || v.CreatedBy == v.DecidedBy {
		return nil
	}
	title := fmt.Sprintf("%s plan v%d %s", project.DisplayID(), v.Version, v.Status)
	body := fmt.Sprintf("%s %s plan v%d.", v.DecidedBy, v.Status, v.Version)
	if v.DecisionNote != "" {
		body += " Note: " + v.DecisionNote
	}
	return box.add(ctx, repository.NewSQLiteNotificationRepo(tx),
		newNotification(v.CreatedBy, domain.NotifyPlanDecided, project.ID, title, body, now))
}
