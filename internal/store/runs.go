// Package store persists trend-run records to SQLite. The schema is created
// on open; the store carries run lifecycle and telemetry only, never raster
// data (layers travel as snapshots).
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// TrendRun is one pipeline run record.
type TrendRun struct {
	RunID             string
	ExecutionID       string
	YearStart         int
	YearEnd           int
	Rows              int
	Cols              int
	SignificantPixels int
	Status            string // running | completed | failed
	ErrorText         string
	CreatedAtNs       int64
	CompletedAtNs     *int64
}

// RunOutcome is the telemetry recorded when a run completes.
type RunOutcome struct {
	Rows              int
	Cols              int
	SignificantPixels int
}

// RunStore provides persistence for trend runs.
type RunStore struct {
	db *sql.DB
}

// Open opens (creating if necessary) the run database at path.
func Open(path string) (*RunStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS trend_runs (
			run_id TEXT PRIMARY KEY,
			execution_id TEXT NOT NULL,
			year_start INTEGER NOT NULL,
			year_end INTEGER NOT NULL,
			rows INTEGER NOT NULL DEFAULT 0,
			cols INTEGER NOT NULL DEFAULT 0,
			significant_pixels INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error_text TEXT NOT NULL DEFAULT '',
			created_at_ns BIGINT NOT NULL,
			completed_at_ns BIGINT
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create run schema: %w", err)
	}
	return &RunStore{db: db}, nil
}

// Close closes the underlying database.
func (s *RunStore) Close() error { return s.db.Close() }

// InsertRun creates a new run record with status "running". If run.RunID is
// empty, a new UUID is generated and written back.
func (s *RunStore) InsertRun(run *TrendRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAtNs == 0 {
		run.CreatedAtNs = time.Now().UnixNano()
	}
	run.Status = "running"

	_, err := s.db.Exec(`
		INSERT INTO trend_runs (
			run_id, execution_id, year_start, year_end, status, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?)
	`, run.RunID, run.ExecutionID, run.YearStart, run.YearEnd, run.Status, run.CreatedAtNs)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// CompleteRun marks a run completed and records its outcome.
func (s *RunStore) CompleteRun(runID string, outcome RunOutcome) error {
	res, err := s.db.Exec(`
		UPDATE trend_runs
		SET status = 'completed', rows = ?, cols = ?, significant_pixels = ?, completed_at_ns = ?
		WHERE run_id = ?
	`, outcome.Rows, outcome.Cols, outcome.SignificantPixels, time.Now().UnixNano(), runID)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return requireRow(res, runID)
}

// FailRun marks a run failed with the triggering condition.
func (s *RunStore) FailRun(runID, errorText string) error {
	res, err := s.db.Exec(`
		UPDATE trend_runs
		SET status = 'failed', error_text = ?, completed_at_ns = ?
		WHERE run_id = ?
	`, errorText, time.Now().UnixNano(), runID)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return requireRow(res, runID)
}

// GetRun retrieves a run by ID.
func (s *RunStore) GetRun(runID string) (*TrendRun, error) {
	var run TrendRun
	var completedAtNs sql.NullInt64
	err := s.db.QueryRow(`
		SELECT run_id, execution_id, year_start, year_end, rows, cols,
		       significant_pixels, status, error_text, created_at_ns, completed_at_ns
		FROM trend_runs WHERE run_id = ?
	`, runID).Scan(
		&run.RunID, &run.ExecutionID, &run.YearStart, &run.YearEnd, &run.Rows, &run.Cols,
		&run.SignificantPixels, &run.Status, &run.ErrorText, &run.CreatedAtNs, &completedAtNs,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if completedAtNs.Valid {
		run.CompletedAtNs = &completedAtNs.Int64
	}
	return &run, nil
}

// ListRuns returns runs newest-first, capped at limit (or all when limit <= 0).
func (s *RunStore) ListRuns(limit int) ([]TrendRun, error) {
	query := `
		SELECT run_id, execution_id, year_start, year_end, rows, cols,
		       significant_pixels, status, error_text, created_at_ns, completed_at_ns
		FROM trend_runs ORDER BY created_at_ns DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []TrendRun
	for rows.Next() {
		var run TrendRun
		var completedAtNs sql.NullInt64
		if err := rows.Scan(
			&run.RunID, &run.ExecutionID, &run.YearStart, &run.YearEnd, &run.Rows, &run.Cols,
			&run.SignificantPixels, &run.Status, &run.ErrorText, &run.CreatedAtNs, &completedAtNs,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if completedAtNs.Valid {
			run.CompletedAtNs = &completedAtNs.Int64
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func requireRow(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}
