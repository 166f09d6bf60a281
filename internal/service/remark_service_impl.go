package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/stagegate/internal/authz"
	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/markdown"
	"github.com/alexanderramin/stagegate/internal/repository"
)

type remarkService struct {
	remarks   repository.RemarkRepo
	renderer  *markdown.Renderer
	publisher Publisher
	uow       db.UnitOfWork
	observer  UseCaseObserver
	now       func() time.Time
}

func NewRemarkService(
	remarks repository.RemarkRepo,
	renderer *markdown.Renderer,
	publisher Publisher,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) RemarkService {
	if renderer == nil {
		renderer = markdown.NewRenderer()
	}
	return &remarkService{
		remarks:   remarks,
		renderer:  renderer,
		publisher: publisherOrNop(publisher),
		uow:       uow,
		observer:  useCaseObserverOrNoop(observers),
		now:       systemNow,
	}
}

// Add stores a markdown remark with its sanitized HTML. Mentions of active
// users are kept and each mentioned user other than the author is notified
// once; unknown names are ignored.
func (s *remarkService) Add(ctx context.Context, actor *domain.User, req RemarkRequest) (remark *domain.Remark, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"project_id": req.ProjectID}
	defer func() { observe(ctx, s.observer, "remark-add", startedAt, fields, err) }()

	if err = authz.Require(actor, authz.ActionRemark); err != nil {
		return nil, err
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, fmt.Errorf("remark body is required: %w", domain.ErrValidation)
	}
	html, err := s.renderer.Render(body)
	if err != nil {
		return nil, err
	}
	now := s.now()
	remark = &domain.Remark{
		ID:           uuid.New().String(),
		ProjectID:    req.ProjectID,
		StageCode:    strings.ToUpper(strings.TrimSpace(req.StageCode)),
		Author:       actor.Username,
		BodyMarkdown: body,
		BodyHTML:     html,
		CreatedAt:    now,
	}

	var box outbox
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		box.reset()
		project, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, req.ProjectID)
		if err != nil {
			return err
		}
		if remark.StageCode != "" {
			if _, err := repository.NewSQLiteStageRepo(tx).GetByCode(ctx, project.ID, remark.StageCode); err != nil {
				return err
			}
		}

		txUsers := repository.NewSQLiteUserRepo(tx)
		remark.Mentions = remark.Mentions[:0]
		for _, name := range markdown.ExtractMentions(body) {
			u, err := txUsers.Get(ctx, name)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if u.Active {
				remark.Mentions = append(remark.Mentions, u.Username)
			}
		}
		if err := repository.NewSQLiteRemarkRepo(tx).Create(ctx, remark); err != nil {
			return err
		}

		where := project.DisplayID()
		if remark.StageCode != "" {
			where += " " + remark.StageCode
		}
		title := fmt.Sprintf("%s mentioned you on %s", actor.Username, where)
		notifications := repository.NewSQLiteNotificationRepo(tx)
		for _, name := range remark.Mentions {
			if name == actor.Username {
				continue
			}
			if err := box.add(ctx, notifications, newNotification(name, domain.NotifyMention, project.ID, title, excerpt(body, 200), now)); err != nil {
				return err
			}
		}
		fields["mentions"] = len(remark.Mentions)
		return nil
	})
	if err != nil {
		return nil, err
	}
	box.flush(ctx, s.publisher)
	return remark, nil
}

func (s *remarkService) List(ctx context.Context, projectID, stageCode string) ([]*domain.Remark, error) {
	return s.remarks.ListByProject(ctx, projectID, strings.ToUpper(strings.TrimSpace(stageCode)))
}

func excerpt(s string, max int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max-1]) + "…"
}
