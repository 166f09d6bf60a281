package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
)

// SQLiteProjectRepo implements ProjectRepo using a SQLite database.
type SQLiteProjectRepo struct {
	db db.DBTX
}

// NewSQLiteProjectRepo creates a new SQLiteProjectRepo.
func NewSQLiteProjectRepo(conn db.DBTX) *SQLiteProjectRepo {
	return &SQLiteProjectRepo{db: conn}
}

const projectColumns = `id, short_id, name, sponsor, category, budget, start_date, status, row_version, archived_at, created_at, updated_at`

func (r *SQLiteProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	if p.RowVersion == 0 {
		p.RowVersion = 1
	}
	if p.Status == domain.ProjectArchived && p.ArchivedAt == nil {
		at := p.UpdatedAt
		p.ArchivedAt = &at
	}
	query := `INSERT INTO projects (` + projectColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.ShortID,
		p.Name,
		p.Sponsor,
		p.Category,
		p.Budget,
		p.StartDate.Format(dateLayout),
		string(p.Status),
		p.RowVersion,
		formatNullableTimestamp(p.ArchivedAt),
		formatTimestamp(p.CreatedAt),
		formatTimestamp(p.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("project %s: %w", p.ShortID, domain.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

func (r *SQLiteProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

func (r *SQLiteProjectRepo) GetByShortID(ctx context.Context, shortID string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE UPPER(short_id) = UPPER(?)`, shortID)
	return scanProject(row)
}

func (r *SQLiteProjectRepo) List(ctx context.Context, includeArchived bool) ([]*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE status <> 'archived' ORDER BY short_id`
	if includeArchived {
		query = `SELECT ` + projectColumns + ` FROM projects ORDER BY short_id`
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func (r *SQLiteProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	query := `UPDATE projects SET short_id = ?, name = ?, sponsor = ?, category = ?, budget = ?, start_date = ?,
		status = ?, updated_at = ?, row_version = row_version + 1
		WHERE id = ? AND row_version = ?`
	res, err := r.db.ExecContext(ctx, query,
		p.ShortID,
		p.Name,
		p.Sponsor,
		p.Category,
		p.Budget,
		p.StartDate.Format(dateLayout),
		string(p.Status),
		formatTimestamp(p.UpdatedAt),
		p.ID,
		p.RowVersion,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("project %s: %w", p.ShortID, domain.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	if err := checkVersionedUpdate(ctx, r.db, res, "projects", "project", p.ID); err != nil {
		return err
	}
	p.RowVersion++
	return nil
}

func (r *SQLiteProjectRepo) Archive(ctx context.Context, id string) error {
	now := nowUTC()
	query := `UPDATE projects SET status = 'archived', archived_at = ?, updated_at = ?, row_version = row_version + 1 WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, now, now, id)
	if err != nil {
		return fmt.Errorf("archiving project: %w", err)
	}
	return requireAffected(res, "project", id)
}

func (r *SQLiteProjectRepo) Unarchive(ctx context.Context, id string) error {
	query := `UPDATE projects SET status = 'active', archived_at = NULL, updated_at = ?, row_version = row_version + 1 WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, nowUTC(), id)
	if err != nil {
		return fmt.Errorf("unarchiving project: %w", err)
	}
	return requireAffected(res, "project", id)
}

func (r *SQLiteProjectRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	return requireAffected(res, "project", id)
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	var startDateStr, createdAtStr, updatedAtStr, statusStr string
	var archivedAtStr sql.NullString

	err := row.Scan(
		&p.ID, &p.ShortID, &p.Name, &p.Sponsor, &p.Category, &p.Budget,
		&startDateStr, &statusStr, &p.RowVersion, &archivedAtStr,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, notFound("project", err)
	}

	p.Status = domain.ProjectStatus(statusStr)

	var parseErr error
	p.StartDate, parseErr = time.Parse(dateLayout, startDateStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing start_date: %w", parseErr)
	}
	if p.CreatedAt, parseErr = parseTimestamp(createdAtStr, "created_at"); parseErr != nil {
		return nil, parseErr
	}
	if p.UpdatedAt, parseErr = parseTimestamp(updatedAtStr, "updated_at"); parseErr != nil {
		return nil, parseErr
	}
	p.ArchivedAt = parseNullableTimestamp(archivedAtStr)

	return &p, nil
}
