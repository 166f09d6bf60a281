package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/stagegate/internal/authz"
	"github.com/alexanderramin/stagegate/internal/catalog"
	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/repository"
)

type projectService struct {
	projects repository.ProjectRepo
	catalog  *catalog.Catalog
	uow      db.UnitOfWork
	observer UseCaseObserver
	now      func() time.Time
}

func NewProjectService(
	projects repository.ProjectRepo,
	stages *catalog.Catalog,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) ProjectService {
	if stages == nil {
		stages = catalog.Default()
	}
	return &projectService{
		projects: projects,
		catalog:  stages,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
		now:      systemNow,
	}
}

// Create stores the project with one not-started stage per catalog entry.
// Stage dates stay empty until a plan version is approved.
func (s *projectService) Create(ctx context.Context, actor *domain.User, p *domain.Project) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"short_id": p.ShortID}
	defer func() { observe(ctx, s.observer, "project-create", startedAt, fields, err) }()

	if err = authz.Require(actor, authz.ActionProjectWrite); err != nil {
		return err
	}
	p.ShortID = strings.ToUpper(strings.TrimSpace(p.ShortID))
	p.Name = strings.TrimSpace(p.Name)
	if p.Status == "" {
		p.Status = domain.ProjectActive
	}
	if p.StartDate.IsZero() {
		p.StartDate = domain.DateOnly(s.now())
	}
	if err = p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.RowVersion = 1

	stages := make([]*domain.ProjectStage, len(s.catalog.Stages))
	for i, def := range s.catalog.Stages {
		stages[i] = &domain.ProjectStage{
			ID:           uuid.New().String(),
			ProjectID:    p.ID,
			Code:         def.Code,
			Name:         def.Name,
			Sequence:     i + 1,
			DurationDays: def.DurationDays,
			Status:       domain.StageNotStarted,
			RowVersion:   1,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}
	fields["stage_count"] = len(stages)

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteProjectRepo(tx).Create(ctx, p); err != nil {
			return err
		}
		if err := repository.NewSQLiteStageRepo(tx).CreateBatch(ctx, stages); err != nil {
			return err
		}
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "project.create", "project", p.ID,
			fmt.Sprintf("%s %s", p.ShortID, p.Name), now)
	})
}

func (s *projectService) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return s.projects.GetByID(ctx, id)
}

func (s *projectService) Resolve(ctx context.Context, ref string) (*domain.Project, error) {
	return resolveProject(ctx, s.projects, strings.TrimSpace(ref))
}

func (s *projectService) List(ctx context.Context, includeArchived bool) ([]*domain.Project, error) {
	return s.projects.List(ctx, includeArchived)
}

// Update persists p when p.RowVersion matches the stored project.
func (s *projectService) Update(ctx context.Context, actor *domain.User, p *domain.Project) error {
	if err := authz.Require(actor, authz.ActionProjectWrite); err != nil {
		return err
	}
	p.ShortID = strings.ToUpper(strings.TrimSpace(p.ShortID))
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Status == domain.ProjectArchived {
		return fmt.Errorf("use archive to archive a project: %w", domain.ErrValidation)
	}
	now := s.now()
	p.UpdatedAt = now
	version := p.RowVersion
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		// a replayed attempt must not see the bump from the aborted one
		p.RowVersion = version
		txProjects := repository.NewSQLiteProjectRepo(tx)
		current, err := txProjects.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if current.Status == domain.ProjectArchived {
			return fmt.Errorf("project %s is archived: %w", current.DisplayID(), domain.ErrValidation)
		}
		if err := txProjects.Update(ctx, p); err != nil {
			return err
		}
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "project.update", "project", p.ID,
			projectDiff(current, p), now)
	})
}

func projectDiff(before, after *domain.Project) string {
	var parts []string
	add := func(field, a, b string) {
		if a != b {
			parts = append(parts, fmt.Sprintf("%s: %q -> %q", field, a, b))
		}
	}
	add("short_id", before.ShortID, after.ShortID)
	add("name", before.Name, after.Name)
	add("sponsor", before.Sponsor, after.Sponsor)
	add("category", before.Category, after.Category)
	add("budget", fmt.Sprint(before.Budget), fmt.Sprint(after.Budget))
	add("start_date", before.StartDate.Format(domain.DateLayout), after.StartDate.Format(domain.DateLayout))
	add("status", string(before.Status), string(after.Status))
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, "; ")
}

func (s *projectService) Archive(ctx context.Context, actor *domain.User, id string) error {
	return s.setArchived(ctx, actor, id, true)
}

func (s *projectService) Unarchive(ctx context.Context, actor *domain.User, id string) error {
	return s.setArchived(ctx, actor, id, false)
}

func (s *projectService) setArchived(ctx context.Context, actor *domain.User, id string, archive bool) error {
	if err := authz.Require(actor, authz.ActionProjectWrite); err != nil {
		return err
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txProjects := repository.NewSQLiteProjectRepo(tx)
		action := "project.unarchive"
		var err error
		if archive {
			action = "project.archive"
			err = txProjects.Archive(ctx, id)
		} else {
			err = txProjects.Unarchive(ctx, id)
		}
		if err != nil {
			return err
		}
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, action, "project", id, "", s.now())
	})
}

// Delete removes an archived project and everything attached to it. force
// skips the archived check and needs the force-delete permission.
func (s *projectService) Delete(ctx context.Context, actor *domain.User, id string, force bool) error {
	action := authz.ActionProjectWrite
	if force {
		action = authz.ActionForceDelete
	}
	if err := authz.Require(actor, action); err != nil {
		return err
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txProjects := repository.NewSQLiteProjectRepo(tx)
		p, err := txProjects.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !force && p.Status != domain.ProjectArchived {
			return fmt.Errorf("project must be archived before deletion (use --force to override): %w", domain.ErrValidation)
		}
		if err := txProjects.Delete(ctx, id); err != nil {
			return err
		}
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "project.delete", "project", id,
			fmt.Sprintf("%s %s", p.ShortID, p.Name), s.now())
	})
}
