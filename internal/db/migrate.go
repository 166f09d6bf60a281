package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillForecast(db); err != nil {
		return fmt.Errorf("backfilling stage forecasts: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		short_id    TEXT NOT NULL UNIQUE,
		name        TEXT NOT NULL,
		sponsor     TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT '',
		budget      INTEGER NOT NULL DEFAULT 0 CHECK(budget >= 0),
		start_date  TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'active'
		            CHECK(status IN ('active','on_hold','closed','archived')),
		row_version INTEGER NOT NULL DEFAULT 1,
		archived_at TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS project_stages (
		id             TEXT PRIMARY KEY,
		project_id     TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		code           TEXT NOT NULL,
		name           TEXT NOT NULL,
		sequence       INTEGER NOT NULL,
		duration_days  INTEGER NOT NULL DEFAULT 1,
		planned_start  TEXT,
		planned_due    TEXT,
		forecast_start TEXT,
		forecast_due   TEXT,
		actual_start   TEXT,
		completed_on   TEXT,
		status         TEXT NOT NULL DEFAULT 'not_started'
		               CHECK(status IN ('not_started','in_progress','completed','skipped','blocked')),
		row_version    INTEGER NOT NULL DEFAULT 1,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL,
		UNIQUE(project_id, code)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_project_stages_project ON project_stages(project_id, sequence)`,
	`CREATE INDEX IF NOT EXISTS idx_project_stages_due ON project_stages(planned_due)`,

	`CREATE TABLE IF NOT EXISTS plan_versions (
		id            TEXT PRIMARY KEY,
		project_id    TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		version       INTEGER NOT NULL,
		anchor_date   TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'draft'
		              CHECK(status IN ('draft','pending_approval','approved','rejected','superseded')),
		created_by    TEXT NOT NULL,
		submitted_at  TEXT,
		decided_by    TEXT NOT NULL DEFAULT '',
		decided_at    TEXT,
		decision_note TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL,
		UNIQUE(project_id, version)
	)`,

	`CREATE TABLE IF NOT EXISTS stage_plans (
		plan_version_id TEXT NOT NULL REFERENCES plan_versions(id) ON DELETE CASCADE,
		stage_code      TEXT NOT NULL,
		sequence        INTEGER NOT NULL,
		duration_days   INTEGER NOT NULL,
		planned_start   TEXT,
		planned_due     TEXT,
		skip            INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (plan_version_id, stage_code)
	)`,

	`CREATE TABLE IF NOT EXISTS holidays (
		date TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		username     TEXT PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		email        TEXT NOT NULL DEFAULT '',
		role         TEXT NOT NULL
		             CHECK(role IN ('admin','hod','project_officer','viewer')),
		active       INTEGER NOT NULL DEFAULT 1,
		created_at   TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS remarks (
		id            TEXT PRIMARY KEY,
		project_id    TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		stage_code    TEXT NOT NULL DEFAULT '',
		author        TEXT NOT NULL,
		body_markdown TEXT NOT NULL,
		body_html     TEXT NOT NULL,
		mentions      TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_remarks_project ON remarks(project_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id         TEXT PRIMARY KEY,
		recipient  TEXT NOT NULL,
		kind       TEXT NOT NULL,
		title      TEXT NOT NULL,
		body       TEXT NOT NULL DEFAULT '',
		project_id TEXT NOT NULL DEFAULT '',
		read_at    TEXT,
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient, read_at)`,

	`CREATE TABLE IF NOT EXISTS audit_events (
		id          TEXT PRIMARY KEY,
		actor       TEXT NOT NULL,
		action      TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id   TEXT NOT NULL,
		detail      TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_events(entity_type, entity_id)`,

	`CREATE TABLE IF NOT EXISTS documents (
		id             TEXT PRIMARY KEY,
		project_id     TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		file_name      TEXT NOT NULL,
		content_type   TEXT NOT NULL DEFAULT 'application/octet-stream',
		size_bytes     INTEGER NOT NULL,
		sha256         TEXT NOT NULL,
		extracted_text TEXT NOT NULL DEFAULT '',
		uploaded_by    TEXT NOT NULL,
		created_at     TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_documents_sha ON documents(sha256)`,

	`CREATE TABLE IF NOT EXISTS ipr_records (
		id            TEXT PRIMARY KEY,
		project_id    TEXT NOT NULL DEFAULT '',
		title         TEXT NOT NULL,
		kind          TEXT NOT NULL CHECK(kind IN ('patent','design','copyright','trademark')),
		filing_number TEXT NOT NULL DEFAULT '',
		filed_on      TEXT,
		status        TEXT NOT NULL
		              CHECK(status IN ('drafted','filed','published','granted','rejected','abandoned')),
		inventors     TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS industry_partners (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		city           TEXT NOT NULL DEFAULT '',
		contact_person TEXT NOT NULL DEFAULT '',
		contact_email  TEXT NOT NULL DEFAULT '',
		domains        TEXT NOT NULL DEFAULT '',
		active         INTEGER NOT NULL DEFAULT 1,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,

	// Reminder de-duplication: one due-soon notice per stage per day.
	`ALTER TABLE notifications ADD COLUMN dedup_key TEXT NOT NULL DEFAULT ''`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_notifications_dedup ON notifications(recipient, dedup_key) WHERE dedup_key != ''`,
}

// migrateBackfillForecast copies planned dates into empty forecast columns so
// stages created before forecasts were persisted still render a forecast.
// Idempotent: only rows with a planned due and no forecast due are touched.
func migrateBackfillForecast(db *sql.DB) error {
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `UPDATE project_stages
		SET forecast_start = planned_start, forecast_due = planned_due
		WHERE forecast_due IS NULL AND planned_due IS NOT NULL AND status != 'skipped'`)
	if err != nil {
		return fmt.Errorf("copying planned dates: %w", err)
	}
	return nil
}
