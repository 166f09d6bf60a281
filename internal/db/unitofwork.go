package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	busyAttempts       = 4
	busyInitialBackoff = 25 * time.Millisecond
	busyMaxBackoff     = 200 * time.Millisecond

	// primary result codes; extended codes carry them in the low byte
	sqliteBusy   = 5
	sqliteLocked = 6
)

// UnitOfWork runs a multi-step write atomically. The callback receives a DBTX
// backed by a *sql.Tx; callers build tx-scoped repositories from it.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLiteUnitOfWork commits on success and retries the whole transaction
// while SQLite reports the database as busy. Callbacks must therefore be
// safe to run more than once.
type SQLiteUnitOfWork struct {
	db *sql.DB
}

func NewSQLiteUnitOfWork(db *sql.DB) *SQLiteUnitOfWork {
	return &SQLiteUnitOfWork{db: db}
}

func (u *SQLiteUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	delay := busyInitialBackoff
	for attempt := 1; ; attempt++ {
		err := u.once(ctx, fn)
		if err == nil || !IsBusy(err) || attempt == busyAttempts {
			return err
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		}
		delay = min(delay*2, busyMaxBackoff)
	}
}

func (u *SQLiteUnitOfWork) once(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// IsBusy reports whether err is SQLite's busy or locked condition.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		code := coder.Code() & 0xff
		return code == sqliteBusy || code == sqliteLocked
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
