package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
)

// SQLiteRemarkRepo implements RemarkRepo using a SQLite database.
type SQLiteRemarkRepo struct {
	db db.DBTX
}

// NewSQLiteRemarkRepo creates a new SQLiteRemarkRepo.
func NewSQLiteRemarkRepo(conn db.DBTX) *SQLiteRemarkRepo {
	return &SQLiteRemarkRepo{db: conn}
}

func (r *SQLiteRemarkRepo) Create(ctx context.Context, rm *domain.Remark) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO remarks (id, project_id, stage_code, author, body_markdown, body_html, mentions, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rm.ID, rm.ProjectID, rm.StageCode, rm.Author, rm.BodyMarkdown, rm.BodyHTML,
		joinList(rm.Mentions), formatTimestamp(rm.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting remark: %w", err)
	}
	return nil
}

// ListByProject returns remarks oldest first. A non-empty stageCode limits
// the result to remarks on that stage.
func (r *SQLiteRemarkRepo) ListByProject(ctx context.Context, projectID, stageCode string) ([]*domain.Remark, error) {
	query := `SELECT id, project_id, stage_code, author, body_markdown, body_html, mentions, created_at
		FROM remarks WHERE project_id = ?`
	args := []any{projectID}
	if stageCode != "" {
		query += ` AND stage_code = ?`
		args = append(args, strings.ToUpper(stageCode))
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing remarks: %w", err)
	}
	defer rows.Close()

	var remarks []*domain.Remark
	for rows.Next() {
		var rm domain.Remark
		var mentions, createdAtStr string
		if err := rows.Scan(&rm.ID, &rm.ProjectID, &rm.StageCode, &rm.Author, &rm.BodyMarkdown, &rm.BodyHTML, &mentions, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning remark: %w", err)
		}
		rm.Mentions = splitList(mentions)
		if rm.CreatedAt, err = parseTimestamp(createdAtStr, "created_at"); err != nil {
			return nil, err
		}
		remarks = append(remarks, &rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating remarks: %w", err)
	}
	return remarks, nil
}
