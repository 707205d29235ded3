package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyellow/roomharvest/internal/term"
	"github.com/garyellow/roomharvest/internal/timetable"
)

// BeginRun records a new running harvest run.
func (db *DB) BeginRun(ctx context.Context, runID string) error {
	query := `INSERT INTO harvest_runs (id, started_at, status) VALUES (?, ?, ?)`
	if _, err := db.conn.ExecContext(ctx, query, runID, time.Now().Unix(), RunRunning); err != nil {
		return fmt.Errorf("failed to begin run %s: %w", runID, err)
	}
	return nil
}

// RecordAssignments stores the assignments made on one results page.
// Assignments already recorded for the run are ignored.
func (db *DB) RecordAssignments(ctx context.Context, runID string, page int, assignments []timetable.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO slot_assignments
			(run_id, semester, day, period, room, value, page, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().Unix()
	for _, a := range assignments {
		if _, err := stmt.ExecContext(ctx, runID, string(a.Semester), a.Day, a.Period, a.Room, a.Value, page, now); err != nil {
			return fmt.Errorf("failed to record assignment %s/%s/%d/%s: %w", a.Semester, a.Day, a.Period, a.Room, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit assignments: %w", err)
	}
	return nil
}

// FinishRun stores the final counters of a run and marks it completed, or
// failed when stats.Err is set.
func (db *DB) FinishRun(ctx context.Context, runID string, stats RunStats) error {
	status := RunCompleted
	var errText sql.NullString
	if stats.Err != nil {
		status = RunFailed
		errText = sql.NullString{String: stats.Err.Error(), Valid: true}
	}

	query := `
		UPDATE harvest_runs
		SET finished_at = ?, status = ?, stop_reason = ?, pages = ?, course_rows = ?,
			scanned = ?, filled = ?, changed = ?, error_message = ?
		WHERE id = ?
	`
	res, err := db.conn.ExecContext(ctx, query,
		time.Now().Unix(), status, stats.StopReason, stats.Pages, stats.Rows,
		stats.Scanned, stats.Filled, stats.Changed, errText, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrNotFound)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, status, stop_reason, pages, course_rows, scanned, filled, changed, error_message`

// GetRun returns the run with the given id.
func (db *DB) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+runColumns+` FROM harvest_runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return run, err
}

// LatestRun returns the most recently started completed run.
func (db *DB) LatestRun(ctx context.Context) (*Run, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM harvest_runs WHERE status = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`,
		RunCompleted,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest completed run: %w", ErrNotFound)
	}
	return run, err
}

// Runs returns up to limit runs, newest first.
func (db *DB) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+runColumns+` FROM harvest_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Assignments returns every assignment recorded by a run in insertion order.
func (db *DB) Assignments(ctx context.Context, runID string) ([]timetable.Assignment, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT semester, day, period, room, value
		FROM slot_assignments
		WHERE run_id = ?
		ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []timetable.Assignment
	for rows.Next() {
		var a timetable.Assignment
		var semester string
		if err := rows.Scan(&semester, &a.Day, &a.Period, &a.Room, &a.Value); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.Semester = term.Semester(semester)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (*Run, error) {
	var (
		run        Run
		startedAt  int64
		finishedAt sql.NullInt64
		status     string
		stopReason sql.NullString
		errText    sql.NullString
	)
	err := s.Scan(&run.ID, &startedAt, &finishedAt, &status, &stopReason,
		&run.Pages, &run.Rows, &run.Scanned, &run.Filled, &run.Changed, &errText)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.StartedAt = time.Unix(startedAt, 0)
	if finishedAt.Valid {
		run.FinishedAt = time.Unix(finishedAt.Int64, 0)
	}
	run.Status = RunStatus(status)
	run.StopReason = stopReason.String
	run.Error = errText.String
	return &run, nil
}
