package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/stagegate/internal/authz"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/repository"
	"github.com/alexanderramin/stagegate/internal/scheduler"
	"github.com/alexanderramin/stagegate/internal/workcal"
)

func systemNow() time.Time { return time.Now().UTC() }

// Publisher delivers stored notifications to live channels (websocket
// subscribers, push services). Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, n *domain.Notification)
}

// NopPublisher drops every notification.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *domain.Notification) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return NopPublisher{}
	}
	return p
}

// outbox collects notifications written inside a transaction so they are
// published only after it commits.
type outbox struct {
	pending []*domain.Notification
}

func (o *outbox) add(ctx context.Context, repo repository.NotificationRepo, n *domain.Notification) error {
	inserted, err := repo.Create(ctx, n)
	if err != nil {
		return fmt.Errorf("storing notification for %s: %w", n.Recipient, err)
	}
	if inserted {
		o.pending = append(o.pending, n)
	}
	return nil
}

// reset drops what an aborted attempt queued; WithinTx may replay the callback.
func (o *outbox) reset() {
	o.pending = o.pending[:0]
}

func (o *outbox) flush(ctx context.Context, pub Publisher) {
	for _, n := range o.pending {
		pub.Publish(ctx, n)
	}
	o.pending = nil
}

func newNotification(recipient string, kind domain.NotificationKind, projectID, title, body string, now time.Time) *domain.Notification {
	return &domain.Notification{
		ID:        uuid.New().String(),
		Recipient: recipient,
		Kind:      kind,
		Title:     title,
		Body:      body,
		ProjectID: projectID,
		CreatedAt: now,
	}
}

// recipients lists active users holding one of roles, minus exclude.
func recipients(ctx context.Context, users repository.UserRepo, exclude string, roles ...domain.Role) ([]string, error) {
	list, err := users.ListByRole(ctx, roles...)
	if err != nil {
		return nil, fmt.Errorf("loading recipients: %w", err)
	}
	out := make([]string, 0, len(list))
	for _, u := range list {
		if u.Username != exclude {
			out = append(out, u.Username)
		}
	}
	return out, nil
}

func appendAudit(ctx context.Context, repo repository.AuditRepo, actor *domain.User, action, entityType, entityID, detail string, now time.Time) error {
	err := repo.Append(ctx, &domain.AuditEvent{
		ID:         uuid.New().String(),
		Actor:      authz.Username(actor),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  now,
	})
	if err != nil {
		return fmt.Errorf("writing audit event %s: %w", action, err)
	}
	return nil
}

// CalendarBuilder assembles the working-day calendar from the configured
// weekend and the stored holidays.
type CalendarBuilder struct {
	weekend []time.Weekday
}

func NewCalendarBuilder(weekend []time.Weekday) *CalendarBuilder {
	return &CalendarBuilder{weekend: weekend}
}

// Build reads every holiday through repo, which may be tx-scoped.
func (b *CalendarBuilder) Build(ctx context.Context, repo repository.HolidayRepo) (*workcal.Calendar, error) {
	holidays, err := repo.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("loading holidays: %w", err)
	}
	weekend := b.weekend
	if len(weekend) == 0 {
		weekend = []time.Weekday{time.Saturday, time.Sunday}
	}
	cal, err := workcal.New(weekend, holidays)
	if err != nil {
		return nil, fmt.Errorf("building calendar: %w", err)
	}
	return cal, nil
}

// resolveProject looks a project up by ID, then by short ID.
func resolveProject(ctx context.Context, projects repository.ProjectRepo, ref string) (*domain.Project, error) {
	p, err := projects.GetByID(ctx, ref)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return projects.GetByShortID(ctx, ref)
}

func stageValues(stages []*domain.ProjectStage) []domain.ProjectStage {
	out := make([]domain.ProjectStage, len(stages))
	for i, s := range stages {
		out[i] = *s
	}
	return out
}

// reforecastProject recomputes and stores forecast dates for every stage of
// a project and returns the refreshed stages.
func reforecastProject(ctx context.Context, stages repository.StageRepo, projectID string, cal scheduler.WorkingCalendar, today time.Time) ([]*domain.ProjectStage, error) {
	list, err := stages.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading stages: %w", err)
	}
	values := stageValues(list)
	scheduler.ApplyForecast(values, scheduler.Reforecast(values, today, cal))
	for i, s := range list {
		s.ForecastStart = values[i].ForecastStart
		s.ForecastDue = values[i].ForecastDue
		if err := stages.UpdateForecast(ctx, s); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func fmtDatePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(domain.DateLayout)
}
