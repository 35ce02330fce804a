package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

// RunRepository persists [models.Run] rows.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run, generating its ID when empty
func (r *RunRepository) Create(ctx context.Context, run *models.Run) error {
	if run.Pipeline == "" {
		return fmt.Errorf("validation failed: pipeline is required")
	}
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO runs (id, pipeline, danger_run, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, run.ID, run.Pipeline, run.DangerRun, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Finish stamps finished_at on a run
func (r *RunRepository) Finish(ctx context.Context, id string, finished time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE runs SET finished_at = ? WHERE id = ?`, finished, id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return checkAffected(result, "run", id)
}

// Get retrieves a run by ID
func (r *RunRepository) Get(ctx context.Context, id string) (*models.Run, error) {
	query := `
		SELECT id, pipeline, danger_run, started_at, finished_at
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, id)
	}
	return run, err
}

// List retrieves the most recent runs, newest first
func (r *RunRepository) List(ctx context.Context, limit int) ([]*models.Run, error) {
	query := `
		SELECT id, pipeline, danger_run, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		run      models.Run
		finished sql.NullTime
	)

	if err := s.Scan(&run.ID, &run.Pipeline, &run.DangerRun, &run.StartedAt, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return &run, nil
}

// limitOrAll maps a non-positive limit to sqlite's "no limit".
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
