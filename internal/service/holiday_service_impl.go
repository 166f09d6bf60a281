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

type holidayService struct {
	holidays repository.HolidayRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
	now      func() time.Time
}

func NewHolidayService(holidays repository.HolidayRepo, uow db.UnitOfWork, observers ...UseCaseObserver) HolidayService {
	return &holidayService{
		holidays: holidays,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
		now:      systemNow,
	}
}

func validateHoliday(h *domain.Holiday) error {
	if h.Date.IsZero() {
		return fmt.Errorf("holiday date is required: %w", domain.ErrValidation)
	}
	h.Date = domain.DateOnly(h.Date)
	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" {
		return fmt.Errorf("holiday on %s needs a name: %w", h.Date.Format(domain.DateLayout), domain.ErrValidation)
	}
	return nil
}

func (s *holidayService) Add(ctx context.Context, actor *domain.User, h domain.Holiday) error {
	if err := authz.Require(actor, authz.ActionHolidayAdmin); err != nil {
		return err
	}
	if err := validateHoliday(&h); err != nil {
		return err
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteHolidayRepo(tx).Add(ctx, &h); err != nil {
			return err
		}
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "holiday.add", "holiday",
			h.Date.Format(domain.DateLayout), h.Name, s.now())
	})
}

func (s *holidayService) Remove(ctx context.Context, actor *domain.User, date time.Time) error {
	if err := authz.Require(actor, authz.ActionHolidayAdmin); err != nil {
		return err
	}
	date = domain.DateOnly(date)
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteHolidayRepo(tx).Remove(ctx, date); err != nil {
			return err
		}
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "holiday.remove", "holiday",
			date.Format(domain.DateLayout), "", s.now())
	})
}

func (s *holidayService) List(ctx context.Context, year int) ([]domain.Holiday, error) {
	return s.holidays.List(ctx, year)
}

func (s *holidayService) Import(ctx context.Context, actor *domain.User, holidays []domain.Holiday) (int, error) {
	if err := authz.Require(actor, authz.ActionHolidayAdmin); err != nil {
		return 0, err
	}
	return s.upsertAll(ctx, actor, "holiday-import", holidays)
}

func (s *holidayService) Sync(ctx context.Context, holidays []domain.Holiday) (int, error) {
	return s.upsertAll(ctx, nil, "holiday-sync", holidays)
}

// upsertAll writes every holiday in one transaction; one invalid entry
// rejects the whole batch.
func (s *holidayService) upsertAll(ctx context.Context, actor *domain.User, useCase string, holidays []domain.Holiday) (n int, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"count": len(holidays)}
	defer func() { observe(ctx, s.observer, useCase, startedAt, fields, err) }()

	for i := range holidays {
		if err = validateHoliday(&holidays[i]); err != nil {
			return 0, err
		}
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txHolidays := repository.NewSQLiteHolidayRepo(tx)
		for i := range holidays {
			if err := txHolidays.Upsert(ctx, &holidays[i]); err != nil {
				return err
			}
		}
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "holiday.import", "holiday", "",
			fmt.Sprintf("%d holidays", len(holidays)), s.now())
	})
	if err != nil {
		return 0, err
	}
	return len(holidays), nil
}
