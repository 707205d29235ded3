package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if err := createRunsTable(ctx, db); err != nil {
		return err
	}
	return createAssignmentsTable(ctx, db)
}

func createRunsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS harvest_runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		status TEXT CHECK(status IN ('running', 'completed', 'failed')) NOT NULL,
		stop_reason TEXT,
		pages INTEGER NOT NULL DEFAULT 0,
		course_rows INTEGER NOT NULL DEFAULT 0,
		scanned INTEGER NOT NULL DEFAULT 0,
		filled INTEGER NOT NULL DEFAULT 0,
		changed INTEGER NOT NULL DEFAULT 0,
		error_message TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_harvest_runs_started_at ON harvest_runs(started_at);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create harvest_runs table: %w", err)
	}

	return nil
}

func createAssignmentsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS slot_assignments (
		run_id TEXT NOT NULL REFERENCES harvest_runs(id) ON DELETE CASCADE,
		semester TEXT CHECK(semester IN ('fall', 'winter')) NOT NULL,
		day TEXT NOT NULL,
		period INTEGER NOT NULL,
		room TEXT NOT NULL,
		value TEXT NOT NULL,
		page INTEGER NOT NULL,
		recorded_at INTEGER NOT NULL,
		PRIMARY KEY (run_id, semester, day, period, room, value)
	);
	CREATE INDEX IF NOT EXISTS idx_slot_assignments_room ON slot_assignments(room);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create slot_assignments table: %w", err)
	}

	return nil
}
