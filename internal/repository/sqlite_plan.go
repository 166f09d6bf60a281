package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
)

// SQLitePlanRepo implements PlanRepo. A plan version and its stage plans are
// written and read together.
type SQLitePlanRepo struct {
	db db.DBTX
}

// NewSQLitePlanRepo creates a new SQLitePlanRepo.
func NewSQLitePlanRepo(conn db.DBTX) *SQLitePlanRepo {
	return &SQLitePlanRepo{db: conn}
}

const planColumns = `id, project_id, version, anchor_date, status, created_by, submitted_at,
	decided_by, decided_at, decision_note, created_at, updated_at`

// Create inserts v and its stage plans. Callers run it inside a unit of work.
func (r *SQLitePlanRepo) Create(ctx context.Context, v *domain.PlanVersion) error {
	query := `INSERT INTO plan_versions (` + planColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		v.ID, v.ProjectID, v.Version, v.AnchorDate.Format(dateLayout), string(v.Status), v.CreatedBy,
		formatNullableTimestamp(v.SubmittedAt), v.DecidedBy, formatNullableTimestamp(v.DecidedAt),
		v.DecisionNote, formatTimestamp(v.CreatedAt), formatTimestamp(v.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("plan version %d: %w", v.Version, domain.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting plan version: %w", err)
	}

	stageQuery := `INSERT INTO stage_plans (plan_version_id, stage_code, sequence, duration_days, planned_start, planned_due, skip)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	for i := range v.Stages {
		sp := &v.Stages[i]
		sp.PlanVersionID = v.ID
		_, err := r.db.ExecContext(ctx, stageQuery,
			v.ID, sp.StageCode, sp.Sequence, sp.DurationDays,
			nullableTimeToString(sp.PlannedStart, dateLayout),
			nullableTimeToString(sp.PlannedDue, dateLayout),
			boolToInt(sp.Skip),
		)
		if err != nil {
			return fmt.Errorf("inserting stage plan %s: %w", sp.StageCode, err)
		}
	}
	return nil
}

func (r *SQLitePlanRepo) GetByID(ctx context.Context, id string) (*domain.PlanVersion, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plan_versions WHERE id = ?`, id)
	v, err := scanPlan(row)
	if err != nil {
		return nil, err
	}
	if v.Stages, err = r.loadStages(ctx, v.ID); err != nil {
		return nil, err
	}
	return v, nil
}

// ListByProject returns every version of a project, newest first.
func (r *SQLitePlanRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.PlanVersion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM plan_versions WHERE project_id = ? ORDER BY version DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing plan versions: %w", err)
	}
	var versions []*domain.PlanVersion
	for rows.Next() {
		v, err := scanPlan(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating plan versions: %w", err)
	}
	rows.Close()

	// Stage plans are loaded after the cursor is closed so a single
	// connection is never asked to serve two result sets.
	for _, v := range versions {
		if v.Stages, err = r.loadStages(ctx, v.ID); err != nil {
			return nil, err
		}
	}
	return versions, nil
}

func (r *SQLitePlanRepo) NextVersion(ctx context.Context, projectID string) (int, error) {
	var max int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM plan_versions WHERE project_id = ?`, projectID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("reading latest plan version: %w", err)
	}
	return max + 1, nil
}

func (r *SQLitePlanRepo) UpdateStatus(ctx context.Context, v *domain.PlanVersion) error {
	query := `UPDATE plan_versions SET status = ?, submitted_at = ?, decided_by = ?, decided_at = ?,
		decision_note = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		string(v.Status), formatNullableTimestamp(v.SubmittedAt), v.DecidedBy,
		formatNullableTimestamp(v.DecidedAt), v.DecisionNote, formatTimestamp(v.UpdatedAt), v.ID,
	)
	if err != nil {
		return fmt.Errorf("updating plan version: %w", err)
	}
	return requireAffected(res, "plan version", v.ID)
}

// SupersedeApproved marks every approved version of the project other than
// exceptID as superseded and returns how many changed.
func (r *SQLitePlanRepo) SupersedeApproved(ctx context.Context, projectID, exceptID string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE plan_versions SET status = 'superseded', updated_at = ?
		 WHERE project_id = ? AND status = 'approved' AND id != ?`,
		nowUTC(), projectID, exceptID)
	if err != nil {
		return 0, fmt.Errorf("superseding plan versions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting superseded versions: %w", err)
	}
	return int(n), nil
}

func (r *SQLitePlanRepo) loadStages(ctx context.Context, versionID string) ([]domain.StagePlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT plan_version_id, stage_code, sequence, duration_days, planned_start, planned_due, skip
		 FROM stage_plans WHERE plan_version_id = ? ORDER BY sequence`, versionID)
	if err != nil {
		return nil, fmt.Errorf("listing stage plans: %w", err)
	}
	defer rows.Close()

	var plans []domain.StagePlan
	for rows.Next() {
		var sp domain.StagePlan
		var start, due sql.NullString
		var skip int
		if err := rows.Scan(&sp.PlanVersionID, &sp.StageCode, &sp.Sequence, &sp.DurationDays, &start, &due, &skip); err != nil {
			return nil, fmt.Errorf("scanning stage plan: %w", err)
		}
		sp.PlannedStart = parseNullableTime(start, dateLayout)
		sp.PlannedDue = parseNullableTime(due, dateLayout)
		sp.Skip = intToBool(skip)
		plans = append(plans, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stage plans: %w", err)
	}
	return plans, nil
}

func scanPlan(row rowScanner) (*domain.PlanVersion, error) {
	var v domain.PlanVersion
	var anchorStr, statusStr, createdAtStr, updatedAtStr string
	var submittedAt, decidedAt sql.NullString

	err := row.Scan(
		&v.ID, &v.ProjectID, &v.Version, &anchorStr, &statusStr, &v.CreatedBy, &submittedAt,
		&v.DecidedBy, &decidedAt, &v.DecisionNote, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, notFound("plan version", err)
	}
	v.Status = domain.PlanStatus(statusStr)
	v.SubmittedAt = parseNullableTimestamp(submittedAt)
	v.DecidedAt = parseNullableTimestamp(decidedAt)

	var parseErr error
	if v.AnchorDate, parseErr = time.Parse(dateLayout, anchorStr); parseErr != nil {
		return nil, fmt.Errorf("parsing anchor_date: %w", parseErr)
	}
	if v.CreatedAt, parseErr = parseTimestamp(createdAtStr, "created_at"); parseErr != nil {
		return nil, parseErr
	}
	if v.UpdatedAt, parseErr = parseTimestamp(updatedAtStr, "updated_at"); parseErr != nil {
		return nil, parseErr
	}
	return &v, nil
}
