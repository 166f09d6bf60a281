package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alexanderramin/stagegate/internal/db"
)

// FailingExecUoW is a test UoW that injects Err into the first ExecContext
// call whose SQL contains Match. It lets rollback tests fail a multi-write use
// case at a precise statement, e.g. Match: "INSERT INTO audit_events".
// Reads pass through untouched.
type FailingExecUoW struct {
	DB    *sql.DB
	Match string
	Err   error
}

func (u *FailingExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	wrapped := &failingExec{DBTX: tx, match: u.Match, err: u.Err}
	if fnErr := fn(ctx, wrapped); fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

type failingExec struct {
	db.DBTX
	match string
	err   error
	fired bool
}

func (f *failingExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if !f.fired && strings.Contains(query, f.match) {
		f.fired = true
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}

// BusyOnceUoW runs on the real SQLite unit of work but fails the first
// ExecContext whose SQL contains Match with SQLITE_BUSY, so the callback is
// replayed. Attempts counts callback runs.
type BusyOnceUoW struct {
	DB       *sql.DB
	Match    string
	Attempts int

	fired bool
}

func (u *BusyOnceUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return db.NewSQLiteUnitOfWork(u.DB).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		u.Attempts++
		return fn(ctx, &busyOnceExec{DBTX: tx, uow: u})
	})
}

type busyOnceExec struct {
	db.DBTX
	uow *BusyOnceUoW
}

func (b *busyOnceExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if !b.uow.fired && strings.Contains(query, b.uow.Match) {
		b.uow.fired = true
		return nil, errBusy{}
	}
	return b.DBTX.ExecContext(ctx, query, args...)
}

type errBusy struct{}

func (errBusy) Error() string { return "database is locked (5) (SQLITE_BUSY)" }
func (errBusy) Code() int { return 5 }
