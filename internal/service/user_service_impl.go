package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/alexanderramin/stagegate/internal/authz"
	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/repository"
)

const (
	defaultMentionLimit = 8
	maxMentionLimit     = 20
)

type userService struct {
	users    repository.UserRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
	now      func() time.Time
}

func NewUserService(users repository.UserRepo, uow db.UnitOfWork, observers ...UseCaseObserver) UserService {
	return &userService{
		users:    users,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
		now:      systemNow,
	}
}

// Create adds a user. The very first user may be created without an actor
// and must be an admin; afterwards only admins add users.
func (s *userService) Create(ctx context.Context, actor *domain.User, u *domain.User) error {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	u.Email = strings.TrimSpace(u.Email)
	if strings.TrimSpace(u.DisplayName) == "" {
		u.DisplayName = cases.Title(language.Und).String(strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(u.Username))
	}
	if err := u.Validate(); err != nil {
		return err
	}
	u.Active = true
	u.CreatedAt = s.now()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txUsers := repository.NewSQLiteUserRepo(tx)
		existing, err := txUsers.List(ctx, false)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			if u.Role != domain.RoleAdmin {
				return fmt.Errorf("the first user must be an admin: %w", domain.ErrValidation)
			}
		} else if err := authz.Require(actor, authz.ActionUserAdmin); err != nil {
			return err
		}
		if err := txUsers.Create(ctx, u); err != nil {
			return err
		}
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "user.create", "user", u.Username, string(u.Role), u.CreatedAt)
	})
}

func (s *userService) Get(ctx context.Context, username string) (*domain.User, error) {
	return s.users.Get(ctx, strings.ToLower(strings.TrimSpace(username)))
}

func (s *userService) Authenticate(ctx context.Context, username string) (*domain.User, error) {
	u, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, fmt.Errorf("user %s is inactive: %w", u.Username, domain.ErrNotFound)
	}
	return u, nil
}

func (s *userService) List(ctx context.Context, activeOnly bool) ([]*domain.User, error) {
	return s.users.List(ctx, activeOnly)
}

// Update changes display name, email, role and active flag. Admins cannot
// demote or deactivate themselves.
func (s *userService) Update(ctx context.Context, actor *domain.User, u *domain.User) error {
	if err := authz.Require(actor, authz.ActionUserAdmin); err != nil {
		return err
	}
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	if err := u.Validate(); err != nil {
		return err
	}
	if u.Username == actor.Username && (u.Role != domain.RoleAdmin || !u.Active) {
		return fmt.Errorf("admins cannot demote or deactivate themselves: %w", domain.ErrValidation)
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txUsers := repository.NewSQLiteUserRepo(tx)
		before, err := txUsers.Get(ctx, u.Username)
		if err != nil {
			return err
		}
		if err := txUsers.Update(ctx, u); err != nil {
			return err
		}
		detail := fmt.Sprintf("role %s -> %s, active %t -> %t", before.Role, u.Role, before.Active, u.Active)
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "user.update", "user", u.Username, detail, s.now())
	})
}

// MentionSearch backs @-autocomplete: active users matching prefix, prefix
// matches on the username first.
func (s *userService) MentionSearch(ctx context.Context, prefix string, limit int) ([]*domain.User, error) {
	switch {
	case limit <= 0:
		limit = defaultMentionLimit
	case limit > maxMentionLimit:
		limit = maxMentionLimit
	}
	return s.users.Search(ctx, strings.TrimPrefix(strings.TrimSpace(prefix), "@"), limit)
}
