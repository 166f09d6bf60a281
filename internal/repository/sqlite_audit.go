package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
)

// SQLiteAuditRepo implements AuditRepo. The audit log is append-only.
type SQLiteAuditRepo struct {
	db db.DBTX
}

// NewSQLiteAuditRepo creates a new SQLiteAuditRepo.
func NewSQLiteAuditRepo(conn db.DBTX) *SQLiteAuditRepo {
	return &SQLiteAuditRepo{db: conn}
}

func (r *SQLiteAuditRepo) Append(ctx context.Context, e *domain.AuditEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, actor, action, entity_type, entity_id, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Actor, e.Action, e.EntityType, e.EntityID, e.Detail, formatTimestamp(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("appending audit event: %w", err)
	}
	return nil
}

// List returns matching events newest first.
func (r *SQLiteAuditRepo) List(ctx context.Context, f AuditFilter) ([]*domain.AuditEvent, error) {
	query := `SELECT id, actor, action, entity_type, entity_id, detail, created_at FROM audit_events WHERE 1 = 1`
	var args []any
	if f.EntityType != "" {
		query += ` AND entity_type = ?`
		args = append(args, f.EntityType)
	}
	if f.EntityID != "" {
		query += ` AND entity_id = ?`
		args = append(args, f.EntityID)
	}
	if f.Actor != "" {
		query += ` AND actor = ?`
		args = append(args, f.Actor)
	}
	query += ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit events: %w", err)
	}
	defer rows.Close()

	var events []*domain.AuditEvent
	for rows.Next() {
		var e domain.AuditEvent
		var createdAtStr string
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.EntityType, &e.EntityID, &e.Detail, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		if e.CreatedAt, err = parseTimestamp(createdAtStr, "created_at"); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit events: %w", err)
	}
	return events, nil
}
