// Package store persists run history: runs, stage progress and the
// load/verification handoff between stages.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"consumption-pipeline/internal/model"
)

// ErrNotFound is returned when a run does not exist
var ErrNotFound = errors.New("run not found")

// Store is the SQLite run-history database
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the history database at path and applies pending migrations
func Open(ctx context.Context, path string) (*Store, error) {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "on")

	db, err := sql.Open("sqlite3", path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Close releases the database
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records a run as running. A retried attempt of the same run
// resets its status, error and attempt counter and clears the stage
// progress, load and verification rows of earlier attempts.
func (s *Store) StartRun(ctx context.Context, run model.Run) error {
	now := s.now()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, logical_time, input_path, status, attempt, error_message, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, NULL, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				status = excluded.status,
				attempt = excluded.attempt,
				error_message = NULL,
				updated_at = excluded.updated_at`,
			run.ID, run.LogicalTime.UTC(), run.InputPath, string(model.RunRunning), run.Attempt, now, now); err != nil {
			return err
		}
		if run.Attempt <= 1 {
			return nil
		}
		for _, table := range attemptTables {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id = ?`, run.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("start run %s: %w", run.ID, err)
	}
	return nil
}

// attemptTables hold per-attempt state of a run
var attemptTables = []string{"run_stages", "run_loads", "run_unmatched", "run_verifications"}

// FinishRun stores the terminal status and, for failures, the error message
func (s *Store) FinishRun(ctx context.Context, runID string, status model.RunStatus, runErr error) error {
	var msg sql.NullString
	if runErr != nil {
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `UPDATE runs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(status), msg, s.now(), runID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	return nil
}

// SaveStageProgress upserts the latest transition of a stage
func (s *Store) SaveStageProgress(ctx context.Context, runID string, p model.StageProgress) error {
	var end sql.NullTime
	if p.EndTime != nil {
		end = sql.NullTime{Time: p.EndTime.UTC(), Valid: true}
	}
	var msg sql.NullString
	if p.Error != "" {
		msg = sql.NullString{String: p.Error, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_stages (run_id, stage, status, start_time, end_time, duration_ms, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, stage) DO UPDATE SET
			status = excluded.status,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			duration_ms = excluded.duration_ms,
			error_message = excluded.error_message`,
		runID, p.Stage, string(p.Status), p.StartTime.UTC(), end, p.Duration().Milliseconds(), msg)
	if err != nil {
		return fmt.Errorf("save stage %s of run %s: %w", p.Stage, runID, err)
	}
	return nil
}

// SaveLoadResult replaces the stored load handoff of a run
func (s *Store) SaveLoadResult(ctx context.Context, runID string, load model.LoadResult) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM run_loads WHERE run_id = ?`, runID); err != nil {
			return err
		}
		for i, tc := range load.Tables {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_loads (run_id, table_name, position, produced_count) VALUES (?, ?, ?, ?)`,
				runID, tc.Table, i, tc.Count); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_unmatched (run_id, unmatched_count) VALUES (?, ?)
			ON CONFLICT (run_id) DO UPDATE SET unmatched_count = excluded.unmatched_count`,
			runID, load.Unmatched)
		return err
	})
}

// LoadResult reads the load handoff of a run
func (s *Store) LoadResult(ctx context.Context, runID string) (*model.LoadResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT table_name, produced_count FROM run_loads WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var load model.LoadResult
	found := false
	for rows.Next() {
		var tc model.TableCount
		if err := rows.Scan(&tc.Table, &tc.Count); err != nil {
			return nil, err
		}
		load.Tables = append(load.Tables, tc)
		found = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `SELECT unmatched_count FROM run_unmatched WHERE run_id = ?`, runID).
		Scan(&load.Unmatched)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, err
	default:
		found = true
	}

	if !found {
		return nil, nil
	}
	return &load, nil
}

// SaveVerification replaces the stored verification result of a run
func (s *Store) SaveVerification(ctx context.Context, runID string, v model.VerificationResult) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM run_verifications WHERE run_id = ?`, runID); err != nil {
			return err
		}
		for i, tv := range v.Tables {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO run_verifications (run_id, table_name, position, produced_count, persisted_count, counts_match)
				VALUES (?, ?, ?, ?, ?, ?)`,
				runID, tv.Table, i, tv.ProducedCount, tv.PersistedCount, tv.Match); err != nil {
				return err
			}
		}
		return nil
	})
}

// Verification reads the verification result of a run
func (s *Store) Verification(ctx context.Context, runID string) (*model.VerificationResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT table_name, produced_count, persisted_count, counts_match
		FROM run_verifications WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var v model.VerificationResult
	for rows.Next() {
		var tv model.TableVerification
		if err := rows.Scan(&tv.Table, &tv.ProducedCount, &tv.PersistedCount, &tv.Match); err != nil {
			return nil, err
		}
		v.Tables = append(v.Tables, tv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(v.Tables) == 0 {
		return nil, nil
	}
	return &v, nil
}

// Stages returns the stage progress of a run in execution order
func (s *Store) Stages(ctx context.Context, runID string) ([]model.StageProgress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stage, status, start_time, end_time, COALESCE(error_message, '')
		FROM run_stages WHERE run_id = ? ORDER BY start_time, id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []model.StageProgress
	for rows.Next() {
		var (
			p      model.StageProgress
			status string
			end    sql.NullTime
		)
		if err := rows.Scan(&p.Stage, &status, &p.StartTime, &end, &p.Error); err != nil {
			return nil, err
		}
		p.Status = model.StageStatus(status)
		if end.Valid {
			t := end.Time
			p.EndTime = &t
		}
		stages = append(stages, p)
	}
	return stages, rows.Err()
}

const runColumns = `id, logical_time, input_path, status, attempt, COALESCE(error_message, ''), created_at, updated_at`

func scanRun(row interface{ Scan(...any) error }) (model.RunSummary, error) {
	var (
		r      model.RunSummary
		status string
	)
	err := row.Scan(&r.ID, &r.LogicalTime, &r.InputPath, &status, &r.Attempt, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	r.Status = model.RunStatus(status)
	return r, err
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun fetches a run with its stages, load and verification results
func (s *Store) GetRun(ctx context.Context, runID string) (*model.RunSummary, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if r.Stages, err = s.Stages(ctx, runID); err != nil {
		return nil, err
	}
	if r.Load, err = s.LoadResult(ctx, runID); err != nil {
		return nil, err
	}
	if r.Verification, err = s.Verification(ctx, runID); err != nil {
		return nil, err
	}
	return &r, nil
}

// ActiveRun returns the run currently marked running, or nil
func (s *Store) ActiveRun(ctx context.Context) (*model.RunSummary, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE status = ? ORDER BY created_at DESC LIMIT 1`, string(model.RunRunning)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
