package service

import (
	"context"
	"io"
	"time"

	"github.com/alexanderramin/stagegate/internal/app"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/export"
	"github.com/alexanderramin/stagegate/internal/repository"
)

// Mutating operations take the acting user first and check it with authz.

type ProjectService interface {
	Create(ctx context.Context, actor *domain.User, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	// Resolve accepts a project ID or short ID.
	Resolve(ctx context.Context, ref string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	Update(ctx context.Context, actor *domain.User, p *domain.Project) error
	Archive(ctx context.Context, actor *domain.User, id string) error
	Unarchive(ctx context.Context, actor *domain.User, id string) error
	Delete(ctx context.Context, actor *domain.User, id string, force bool) error
}

type StageService interface {
	List(ctx context.Context, projectID string) ([]*domain.ProjectStage, error)
	Transition(ctx context.Context, actor *domain.User, req StageTransitionRequest) (*domain.ProjectStage, error)
}

type PlanService interface {
	CreateDraft(ctx context.Context, actor *domain.User, req DraftPlanRequest) (*domain.PlanVersion, error)
	Submit(ctx context.Context, actor *domain.User, versionID string) (*domain.PlanVersion, error)
	Approve(ctx context.Context, actor *domain.User, versionID, note string) (*domain.PlanVersion, error)
	Reject(ctx context.Context, actor *domain.User, versionID, note string) (*domain.PlanVersion, error)
	List(ctx context.Context, projectID string) ([]*domain.PlanVersion, error)
	Get(ctx context.Context, versionID string) (*domain.PlanVersion, error)
}

type StatusService interface {
	app.StatusUseCase
	app.ProjectHealthUseCase
}

type HolidayService interface {
	Add(ctx context.Context, actor *domain.User, h domain.Holiday) error
	Remove(ctx context.Context, actor *domain.User, date time.Time) error
	List(ctx context.Context, year int) ([]domain.Holiday, error)
	Import(ctx context.Context, actor *domain.User, holidays []domain.Holiday) (int, error)
	// Sync upserts holidays on behalf of the system, e.g. from a watched file.
	Sync(ctx context.Context, holidays []domain.Holiday) (int, error)
}

type RemarkService interface {
	Add(ctx context.Context, actor *domain.User, req RemarkRequest) (*domain.Remark, error)
	List(ctx context.Context, projectID, stageCode string) ([]*domain.Remark, error)
}

type UserService interface {
	Create(ctx context.Context, actor *domain.User, u *domain.User) error
	Get(ctx context.Context, username string) (*domain.User, error)
	// Authenticate returns the active user named username or ErrNotFound.
	Authenticate(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.User, error)
	Update(ctx context.Context, actor *domain.User, u *domain.User) error
	MentionSearch(ctx context.Context, prefix string, limit int) ([]*domain.User, error)
}

type NotificationService interface {
	List(ctx context.Context, user *domain.User, unreadOnly bool, limit int) ([]*domain.Notification, error)
	UnreadCount(ctx context.Context, user *domain.User) (int, error)
	MarkRead(ctx context.Context, user *domain.User, id string) error
	MarkAllRead(ctx context.Context, user *domain.User) (int, error)
	// SweepDueSoon reminds users about open stages due within the amber
	// window of today. It returns the number of notifications sent.
	SweepDueSoon(ctx context.Context, today time.Time) (int, error)
}

type DocumentService interface {
	Upload(ctx context.Context, actor *domain.User, projectID, fileName string, r io.Reader) (*domain.Document, error)
	Get(ctx context.Context, id string) (*domain.Document, error)
	Open(ctx context.Context, id string) (io.ReadCloser, *domain.Document, error)
	List(ctx context.Context, projectID string) ([]*domain.Document, error)
	Delete(ctx context.Context, actor *domain.User, id string) error
}

type IPRService interface {
	Create(ctx context.Context, actor *domain.User, r *domain.IPRRecord) error
	Get(ctx context.Context, id string) (*domain.IPRRecord, error)
	Update(ctx context.Context, actor *domain.User, r *domain.IPRRecord) error
	List(ctx context.Context, f repository.IPRFilter) ([]*domain.IPRRecord, error)
}

type PartnerService interface {
	Create(ctx context.Context, actor *domain.User, p *domain.IndustryPartner) error
	Get(ctx context.Context, id string) (*domain.IndustryPartner, error)
	Update(ctx context.Context, actor *domain.User, p *domain.IndustryPartner) error
	List(ctx context.Context, f repository.PartnerFilter) ([]*domain.IndustryPartner, error)
}

type AuditService interface {
	List(ctx context.Context, actor *domain.User, f repository.AuditFilter) ([]*domain.AuditEvent, error)
}

type ExportService interface {
	StageSheet(ctx context.Context, actor *domain.User, projectID string, today *time.Time, format export.Format, w io.Writer) error
	Portfolio(ctx context.Context, actor *domain.User, today *time.Time, format export.Format, w io.Writer) error
}

// StageAction names a stage lifecycle transition.
type StageAction string

const (
	StageStart    StageAction = "start"
	StageComplete StageAction = "complete"
	StageSkip     StageAction = "skip"
	StageBlock    StageAction = "block"
	StageReopen   StageAction = "reopen"
)

// ParseStageAction validates a transition name.
func ParseStageAction(s string) (StageAction, bool) {
	switch a := StageAction(s); a {
	case StageStart, StageComplete, StageSkip, StageBlock, StageReopen:
		return a, true
	}
	return "", false
}

type StageTransitionRequest struct {
	ProjectID string
	Code      string
	Action    StageAction
	// On is the effective date of the transition; zero means today.
	On time.Time
	// RowVersion, when non-zero, must match the stored stage.
	RowVersion int
}

type DraftPlanRequest struct {
	ProjectID string
	Anchor    time.Time
	// Durations overrides per stage code; missing codes keep the stage's
	// current duration.
	Durations map[string]int
	Skips     []string
}

type RemarkRequest struct {
	ProjectID string
	StageCode string
	Body      string
}
