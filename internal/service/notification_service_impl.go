package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/repository"
)

type notificationService struct {
	notifications repository.NotificationRepo
	publisher     Publisher
	dueWindowDays int
	uow           db.UnitOfWork
	observer      UseCaseObserver
	now           func() time.Time
}

// NewNotificationService reminds about stages due within dueWindowDays.
func NewNotificationService(
	notifications repository.NotificationRepo,
	publisher Publisher,
	dueWindowDays int,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) NotificationService {
	if dueWindowDays < 0 {
		dueWindowDays = 0
	}
	return &notificationService{
		notifications: notifications,
		publisher:     publisherOrNop(publisher),
		dueWindowDays: dueWindowDays,
		uow:           uow,
		observer:      useCaseObserverOrNoop(observers),
		now:           systemNow,
	}
}

func requireUser(user *domain.User) error {
	if user == nil {
		return fmt.Errorf("notifications need a signed-in user: %w", domain.ErrForbidden)
	}
	return nil
}

func (s *notificationService) List(ctx context.Context, user *domain.User, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	return s.notifications.ListForUser(ctx, user.Username, unreadOnly, limit)
}

func (s *notificationService) UnreadCount(ctx context.Context, user *domain.User) (int, error) {
	if err := requireUser(user); err != nil {
		return 0, err
	}
	return s.notifications.UnreadCount(ctx, user.Username)
}

// MarkRead only touches the user's own notifications; another user's ID
// reads as not found.
func (s *notificationService) MarkRead(ctx context.Context, user *domain.User, id string) error {
	if err := requireUser(user); err != nil {
		return err
	}
	return s.notifications.MarkRead(ctx, id, user.Username, s.now())
}

func (s *notificationService) MarkAllRead(ctx context.Context, user *domain.User) (int, error) {
	if err := requireUser(user); err != nil {
		return 0, err
	}
	return s.notifications.MarkAllRead(ctx, user.Username, s.now())
}

// SweepDueSoon notifies project officers and HoDs about every open stage of
// an active project due between today and today+window. Each stage is
// announced at most once per recipient per day.
func (s *notificationService) SweepDueSoon(ctx context.Context, today time.Time) (sent int, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() { observe(ctx, s.observer, "due-soon-sweep", startedAt, fields, err) }()

	today = domain.DateOnly(today)
	until := today.AddDate(0, 0, s.dueWindowDays)
	now := s.now()

	var box outbox
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		box.reset()
		stages, err := repository.NewSQLiteStageRepo(tx).ListOpenDueBetween(ctx, today, until)
		if err != nil {
			return err
		}
		fields["stages"] = len(stages)
		if len(stages) == 0 {
			return nil
		}
		names, err := recipients(ctx, repository.NewSQLiteUserRepo(tx), "", domain.RoleProjectOfficer, domain.RoleHoD)
		if err != nil {
			return err
		}
		txProjects := repository.NewSQLiteProjectRepo(tx)
		notifications := repository.NewSQLiteNotificationRepo(tx)
		projects := make(map[string]*domain.Project)
		for _, st := range stages {
			p, ok := projects[st.ProjectID]
			if !ok {
				if p, err = txProjects.GetByID(ctx, st.ProjectID); err != nil {
					return err
				}
				projects[st.ProjectID] = p
			}
			left := domain.DaysBetween(today, *st.PlannedDue)
			title := fmt.Sprintf("%s %s due %s", p.DisplayID(), st.Code, dueIn(left))
			body := fmt.Sprintf("%s (%s) of %s is %s and due on %s.", st.Name, st.Code, p.Name, st.Status, st.PlannedDue.Format(domain.DateLayout))
			key := fmt.Sprintf("due_soon:%s:%s", st.ID, today.Format(domain.DateLayout))
			for _, name := range names {
				n := newNotification(name, domain.NotifyDueSoon, p.ID, title, body, now)
				n.DedupKey = key
				if err := box.add(ctx, notifications, n); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	sent = len(box.pending)
	fields["sent"] = sent
	box.flush(ctx, s.publisher)
	return sent, nil
}

func dueIn(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	}
	return fmt.Sprintf("in %d days", days)
}
