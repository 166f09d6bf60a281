package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/stagegate/internal/domain"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByShortID(ctx context.Context, shortID string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	// Update persists p if its RowVersion still matches the stored row and
	// bumps p.RowVersion on success.
	Update(ctx context.Context, p *domain.Project) error
	Archive(ctx context.Context, id string) error
	Unarchive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type StageRepo interface {
	CreateBatch(ctx context.Context, stages []*domain.ProjectStage) error
	GetByID(ctx context.Context, id string) (*domain.ProjectStage, error)
	GetByCode(ctx context.Context, projectID, code string) (*domain.ProjectStage, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.ProjectStage, error)
	// Update is row-version checked like ProjectRepo.Update.
	Update(ctx context.Context, s *domain.ProjectStage) error
	// UpdateForecast writes derived forecast dates without touching RowVersion.
	UpdateForecast(ctx context.Context, s *domain.ProjectStage) error
	ListOpenDueBetween(ctx context.Context, from, to time.Time) ([]*domain.ProjectStage, error)
}

type PlanRepo interface {
	Create(ctx context.Context, v *domain.PlanVersion) error
	GetByID(ctx context.Context, id string) (*domain.PlanVersion, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.PlanVersion, error)
	NextVersion(ctx context.Context, projectID string) (int, error)
	UpdateStatus(ctx context.Context, v *domain.PlanVersion) error
	SupersedeApproved(ctx context.Context, projectID, exceptID string) (int, error)
}

type HolidayRepo interface {
	Add(ctx context.Context, h *domain.Holiday) error
	Upsert(ctx context.Context, h *domain.Holiday) error
	Remove(ctx context.Context, date time.Time) error
	// List returns holidays of the given year, or all holidays when year is 0.
	List(ctx context.Context, year int) ([]domain.Holiday, error)
}

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.User, error)
	ListByRole(ctx context.Context, roles ...domain.Role) ([]*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Search(ctx context.Context, query string, limit int) ([]*domain.User, error)
}

type RemarkRepo interface {
	Create(ctx context.Context, r *domain.Remark) error
	ListByProject(ctx context.Context, projectID, stageCode string) ([]*domain.Remark, error)
}

type NotificationRepo interface {
	// Create stores n. It reports false without error when n carries a
	// DedupKey the recipient has already been sent.
	Create(ctx context.Context, n *domain.Notification) (bool, error)
	ListForUser(ctx context.Context, recipient string, unreadOnly bool, limit int) ([]*domain.Notification, error)
	UnreadCount(ctx context.Context, recipient string) (int, error)
	MarkRead(ctx context.Context, id, recipient string, at time.Time) error
	MarkAllRead(ctx context.Context, recipient string, at time.Time) (int, error)
}

// AuditFilter narrows an audit log listing. Zero fields match everything.
type AuditFilter struct {
	EntityType string
	EntityID   string
	Actor      string
	Limit      int
}

type AuditRepo interface {
	Append(ctx context.Context, e *domain.AuditEvent) error
	List(ctx context.Context, f AuditFilter) ([]*domain.AuditEvent, error)
}

type DocumentRepo interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Document, error)
	Delete(ctx context.Context, id string) error
	CountBySHA(ctx context.Context, sha string) (int, error)
}

// IPRFilter narrows an IPR listing.
type IPRFilter struct {
	ProjectID string
	Status    domain.IPRStatus
}

type IPRRepo interface {
	Create(ctx context.Context, r *domain.IPRRecord) error
	GetByID(ctx context.Context, id string) (*domain.IPRRecord, error)
	Update(ctx context.Context, r *domain.IPRRecord) error
	List(ctx context.Context, f IPRFilter) ([]*domain.IPRRecord, error)
}

// PartnerFilter narrows an industry partner listing.
type PartnerFilter struct {
	ActiveOnly bool
	Search     string
}

type PartnerRepo interface {
	Create(ctx context.Context, p *domain.IndustryPartner) error
	GetByID(ctx context.Context, id string) (*domain.IndustryPartner, error)
	Update(ctx context.Context, p *domain.IndustryPartner) error
	List(ctx context.Context, f PartnerFilter) ([]*domain.IndustryPartner, error)
}
