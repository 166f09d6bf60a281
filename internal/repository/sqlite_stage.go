package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
)

// SQLiteStageRepo implements StageRepo using a SQLite database.
type SQLiteStageRepo struct {
	db db.DBTX
}

// NewSQLiteStageRepo creates a new SQLiteStageRepo.
func NewSQLiteStageRepo(conn db.DBTX) *SQLiteStageRepo {
	return &SQLiteStageRepo{db: conn}
}

const stageColumns = `id, project_id, code, name, sequence, duration_days,
	planned_start, planned_due, forecast_start, forecast_due, actual_start, completed_on,
	status, row_version, created_at, updated_at`

func (r *SQLiteStageRepo) CreateBatch(ctx context.Context, stages []*domain.ProjectStage) error {
	query := `INSERT INTO project_stages (` + stageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, s := range stages {
		if s.RowVersion == 0 {
			s.RowVersion = 1
		}
		_, err := r.db.ExecContext(ctx, query,
			s.ID, s.ProjectID, s.Code, s.Name, s.Sequence, s.DurationDays,
			nullableTimeToString(s.PlannedStart, dateLayout),
			nullableTimeToString(s.PlannedDue, dateLayout),
			nullableTimeToString(s.ForecastStart, dateLayout),
			nullableTimeToString(s.ForecastDue, dateLayout),
			nullableTimeToString(s.ActualStart, dateLayout),
			nullableTimeToString(s.CompletedOn, dateLayout),
			string(s.Status), s.RowVersion,
			formatTimestamp(s.CreatedAt), formatTimestamp(s.UpdatedAt),
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("stage %s: %w", s.Code, domain.ErrDuplicate)
		}
		if err != nil {
			return fmt.Errorf("inserting stage %s: %w", s.Code, err)
		}
	}
	return nil
}

func (r *SQLiteStageRepo) GetByID(ctx context.Context, id string) (*domain.ProjectStage, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+stageColumns+` FROM project_stages WHERE id = ?`, id)
	return scanStage(row)
}

func (r *SQLiteStageRepo) GetByCode(ctx context.Context, projectID, code string) (*domain.ProjectStage, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+stageColumns+` FROM project_stages WHERE project_id = ? AND UPPER(code) = UPPER(?)`, projectID, code)
	return scanStage(row)
}

func (r *SQLiteStageRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.ProjectStage, error) {
	return r.query(ctx, `SELECT `+stageColumns+` FROM project_stages WHERE project_id = ? ORDER BY sequence`, projectID)
}

// ListOpenDueBetween returns not-started and in-progress stages of active
// projects whose planned due date lies in [from, to].
func (r *SQLiteStageRepo) ListOpenDueBetween(ctx context.Context, from, to time.Time) ([]*domain.ProjectStage, error) {
	query := `SELECT ` + stageColumnsQualified + `
		FROM project_stages s JOIN projects p ON p.id = s.project_id
		WHERE p.status = 'active' AND s.status IN ('not_started','in_progress')
		  AND s.planned_due >= ? AND s.planned_due <= ?
		ORDER BY s.planned_due, s.project_id, s.sequence`
	return r.query(ctx, query, from.Format(dateLayout), to.Format(dateLayout))
}

const stageColumnsQualified = `s.id, s.project_id, s.code, s.name, s.sequence, s.duration_days,
	s.planned_start, s.planned_due, s.forecast_start, s.forecast_due, s.actual_start, s.completed_on,
	s.status, s.row_version, s.created_at, s.updated_at`

func (r *SQLiteStageRepo) query(ctx context.Context, query string, args ...any) ([]*domain.ProjectStage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stages: %w", err)
	}
	defer rows.Close()

	var stages []*domain.ProjectStage
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stages: %w", err)
	}
	return stages, nil
}

func (r *SQLiteStageRepo) Update(ctx context.Context, s *domain.ProjectStage) error {
	query := `UPDATE project_stages SET name = ?, sequence = ?, duration_days = ?,
		planned_start = ?, planned_due = ?, forecast_start = ?, forecast_due = ?,
		actual_start = ?, completed_on = ?, status = ?, updated_at = ?, row_version = row_version + 1
		WHERE id = ? AND row_version = ?`
	res, err := r.db.ExecContext(ctx, query,
		s.Name, s.Sequence, s.DurationDays,
		nullableTimeToString(s.PlannedStart, dateLayout),
		nullableTimeToString(s.PlannedDue, dateLayout),
		nullableTimeToString(s.ForecastStart, dateLayout),
		nullableTimeToString(s.ForecastDue, dateLayout),
		nullableTimeToString(s.ActualStart, dateLayout),
		nullableTimeToString(s.CompletedOn, dateLayout),
		string(s.Status), formatTimestamp(s.UpdatedAt),
		s.ID, s.RowVersion,
	)
	if err != nil {
		return fmt.Errorf("updating stage: %w", err)
	}
	if err := checkVersionedUpdate(ctx, r.db, res, "project_stages", "stage", s.ID); err != nil {
		return err
	}
	s.RowVersion++
	return nil
}

func (r *SQLiteStageRepo) UpdateForecast(ctx context.Context, s *domain.ProjectStage) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE project_stages SET forecast_start = ?, forecast_due = ? WHERE id = ?`,
		nullableTimeToString(s.ForecastStart, dateLayout),
		nullableTimeToString(s.ForecastDue, dateLayout),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("updating stage forecast: %w", err)
	}
	return requireAffected(res, "stage", s.ID)
}

func scanStage(row rowScanner) (*domain.ProjectStage, error) {
	var s domain.ProjectStage
	var statusStr, createdAtStr, updatedAtStr string
	var plannedStart, plannedDue, forecastStart, forecastDue, actualStart, completedOn sql.NullString

	err := row.Scan(
		&s.ID, &s.ProjectID, &s.Code, &s.Name, &s.Sequence, &s.DurationDays,
		&plannedStart, &plannedDue, &forecastStart, &forecastDue, &actualStart, &completedOn,
		&statusStr, &s.RowVersion, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, notFound("stage", err)
	}
	s.Status = domain.StageStatus(statusStr)
	s.PlannedStart = parseNullableTime(plannedStart, dateLayout)
	s.PlannedDue = parseNullableTime(plannedDue, dateLayout)
	s.ForecastStart = parseNullableTime(forecastStart, dateLayout)
	s.ForecastDue = parseNullableTime(forecastDue, dateLayout)
	s.ActualStart = parseNullableTime(actualStart, dateLayout)
	s.CompletedOn = parseNullableTime(completedOn, dateLayout)

	var parseErr error
	if s.CreatedAt, parseErr = parseTimestamp(createdAtStr, "created_at"); parseErr != nil {
		return nil, parseErr
	}
	if s.UpdatedAt, parseErr = parseTimestamp(updatedAtStr, "updated_at"); parseErr != nil {
		return nil, parseErr
	}
	return &s, nil
}
