package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
)

// SQLiteNotificationRepo implements NotificationRepo using a SQLite database.
type SQLiteNotificationRepo struct {
	db db.DBTX
}

// NewSQLiteNotificationRepo creates a new SQLiteNotificationRepo.
func NewSQLiteNotificationRepo(conn db.DBTX) *SQLiteNotificationRepo {
	return &SQLiteNotificationRepo{db: conn}
}

func (r *SQLiteNotificationRepo) Create(ctx context.Context, n *domain.Notification) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO notifications (id, recipient, kind, title, body, project_id, dedup_key, read_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Recipient, string(n.Kind), n.Title, n.Body, n.ProjectID, n.DedupKey,
		formatNullableTimestamp(n.ReadAt), formatTimestamp(n.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("inserting notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking notification insert: %w", err)
	}
	return affected > 0, nil
}

// ListForUser returns the recipient's notifications newest first. A
// non-positive limit returns all of them.
func (r *SQLiteNotificationRepo) ListForUser(ctx context.Context, recipient string, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	query := `SELECT id, recipient, kind, title, body, project_id, dedup_key, read_at, created_at
		FROM notifications WHERE recipient = ?`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, id`
	args := []any{recipient}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		var kind, createdAtStr string
		var readAt sql.NullString
		if err := rows.Scan(&n.ID, &n.Recipient, &kind, &n.Title, &n.Body, &n.ProjectID, &n.DedupKey, &readAt, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		n.Kind = domain.NotificationKind(kind)
		n.ReadAt = parseNullableTimestamp(readAt)
		if n.CreatedAt, err = parseTimestamp(createdAtStr, "created_at"); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}
	return out, nil
}

func (r *SQLiteNotificationRepo) UnreadCount(ctx context.Context, recipient string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient = ? AND read_at IS NULL`, recipient).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead marks one of the recipient's notifications read. Marking a
// notification that belongs to someone else reports ErrNotFound.
func (r *SQLiteNotificationRepo) MarkRead(ctx context.Context, id, recipient string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = COALESCE(read_at, ?) WHERE id = ? AND recipient = ?`,
		formatTimestamp(at), id, recipient)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	return requireAffected(res, "notification", id)
}

func (r *SQLiteNotificationRepo) MarkAllRead(ctx context.Context, recipient string, at time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = ? WHERE recipient = ? AND read_at IS NULL`,
		formatTimestamp(at), recipient)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting read notifications: %w", err)
	}
	return int(n), nil
}
