package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
)

// SQLiteIPRRepo implements IPRRepo using a SQLite database.
type SQLiteIPRRepo struct {
	db db.DBTX
}

// NewSQLiteIPRRepo creates a new SQLiteIPRRepo.
func NewSQLiteIPRRepo(conn db.DBTX) *SQLiteIPRRepo {
	return &SQLiteIPRRepo{db: conn}
}

const iprColumns = `id, project_id, title, kind, filing_number, filed_on, status, inventors, created_at, updated_at`

func (r *SQLiteIPRRepo) Create(ctx context.Context, rec *domain.IPRRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ipr_records (`+iprColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ProjectID, rec.Title, string(rec.Kind), rec.FilingNumber,
		nullableTimeToString(rec.FiledOn, dateLayout), string(rec.Status), joinList(rec.Inventors),
		formatTimestamp(rec.CreatedAt), formatTimestamp(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting IPR record: %w", err)
	}
	return nil
}

func (r *SQLiteIPRRepo) GetByID(ctx context.Context, id string) (*domain.IPRRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+iprColumns+` FROM ipr_records WHERE id = ?`, id)
	return scanIPR(row)
}

func (r *SQLiteIPRRepo) Update(ctx context.Context, rec *domain.IPRRecord) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ipr_records SET project_id = ?, title = ?, kind = ?, filing_number = ?, filed_on = ?,
		 status = ?, inventors = ?, updated_at = ? WHERE id = ?`,
		rec.ProjectID, rec.Title, string(rec.Kind), rec.FilingNumber,
		nullableTimeToString(rec.FiledOn, dateLayout), string(rec.Status), joinList(rec.Inventors),
		formatTimestamp(rec.UpdatedAt), rec.ID)
	if err != nil {
		return fmt.Errorf("updating IPR record: %w", err)
	}
	return requireAffected(res, "IPR record", rec.ID)
}

func (r *SQLiteIPRRepo) List(ctx context.Context, f IPRFilter) ([]*domain.IPRRecord, error) {
	query := `SELECT ` + iprColumns + ` FROM ipr_records WHERE 1 = 1`
	var args []any
	if f.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY created_at, title`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing IPR records: %w", err)
	}
	defer rows.Close()

	var out []*domain.IPRRecord
	for rows.Next() {
		rec, err := scanIPR(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating IPR records: %w", err)
	}
	return out, nil
}

func scanIPR(row rowScanner) (*domain.IPRRecord, error) {
	var rec domain.IPRRecord
	var kind, status, inventors, createdAtStr, updatedAtStr string
	var filedOn sql.NullString
	err := row.Scan(&rec.ID, &rec.ProjectID, &rec.Title, &kind, &rec.FilingNumber, &filedOn,
		&status, &inventors, &createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, notFound("IPR record", err)
	}
	rec.Kind = domain.IPRKind(kind)
	rec.Status = domain.IPRStatus(status)
	rec.FiledOn = parseNullableTime(filedOn, dateLayout)
	rec.Inventors = splitList(inventors)
	if rec.CreatedAt, err = parseTimestamp(createdAtStr, "created_at"); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = parseTimestamp(updatedAtStr, "updated_at"); err != nil {
		return nil, err
	}
	return &rec, nil
}
