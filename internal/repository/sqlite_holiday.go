package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
)

// SQLiteHolidayRepo implements HolidayRepo using a SQLite database.
type SQLiteHolidayRepo struct {
	db db.DBTX
}

// NewSQLiteHolidayRepo creates a new SQLiteHolidayRepo.
func NewSQLiteHolidayRepo(conn db.DBTX) *SQLiteHolidayRepo {
	return &SQLiteHolidayRepo{db: conn}
}

func (r *SQLiteHolidayRepo) Add(ctx context.Context, h *domain.Holiday) error {
	date := h.Date.Format(dateLayout)
	_, err := r.db.ExecContext(ctx, `INSERT INTO holidays (date, name) VALUES (?, ?)`, date, h.Name)
	if isUniqueViolation(err) {
		return fmt.Errorf("holiday on %s: %w", date, domain.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting holiday: %w", err)
	}
	return nil
}

// Upsert inserts h or renames the holiday already stored on its date.
func (r *SQLiteHolidayRepo) Upsert(ctx context.Context, h *domain.Holiday) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO holidays (date, name) VALUES (?, ?) ON CONFLICT(date) DO UPDATE SET name = excluded.name`,
		h.Date.Format(dateLayout), h.Name)
	if err != nil {
		return fmt.Errorf("upserting holiday: %w", err)
	}
	return nil
}

func (r *SQLiteHolidayRepo) Remove(ctx context.Context, date time.Time) error {
	d := date.Format(dateLayout)
	res, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE date = ?`, d)
	if err != nil {
		return fmt.Errorf("deleting holiday: %w", err)
	}
	return requireAffected(res, "holiday", d)
}

func (r *SQLiteHolidayRepo) List(ctx context.Context, year int) ([]domain.Holiday, error) {
	query := `SELECT date, name FROM holidays ORDER BY date`
	var args []any
	if year > 0 {
		query = `SELECT date, name FROM holidays WHERE date LIKE ? ORDER BY date`
		args = append(args, fmt.Sprintf("%04d-%%", year))
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing holidays: %w", err)
	}
	defer rows.Close()

	var holidays []domain.Holiday
	for rows.Next() {
		var dateStr string
		var h domain.Holiday
		if err := rows.Scan(&dateStr, &h.Name); err != nil {
			return nil, fmt.Errorf("scanning holiday: %w", err)
		}
		if h.Date, err = time.Parse(dateLayout, dateStr); err != nil {
			return nil, fmt.Errorf("parsing holiday date: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating holidays: %w", err)
	}
	return holidays, nil
}
