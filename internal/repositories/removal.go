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

const removalColumns = `id, run_id, playlist_id, track_id, track_name, artists, added_by, reason, detail,
		danger_run, status, error, created_at, updated_at`

// RemovalRepository persists [models.RemovalRecord] rows.
type RemovalRepository struct {
	db *sql.DB
}

// NewRemovalRepository creates a new RemovalRepository with the given database connection
func NewRemovalRepository(db *sql.DB) *RemovalRepository {
	return &RemovalRepository{db: db}
}

// Create inserts a removal record, generating its ID and timestamps when empty
func (r *RemovalRepository) Create(ctx context.Context, rec *models.RemovalRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if rec.ID == "" {
		rec.ID = shared.GenerateID()
	}
	if rec.Status == "" {
		rec.Status = models.StatusPending
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}

	query := `INSERT INTO removals (` + removalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.RunID,
		rec.PlaylistID,
		rec.TrackID,
		rec.TrackName,
		rec.Artists,
		rec.AddedBy,
		string(rec.Reason),
		rec.Detail,
		rec.DangerRun,
		string(rec.Status),
		rec.Error,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert removal: %w", err)
	}
	return nil
}

// UpdateStatus records the outcome of a removal intent
func (r *RemovalRepository) UpdateStatus(ctx context.Context, id string, status models.RemovalStatus, errMsg string) error {
	query := `
		UPDATE removals
		SET status = ?, error = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, string(status), errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update removal: %w", err)
	}
	return checkAffected(result, "removal", id)
}

// Get retrieves a removal record by ID
func (r *RemovalRepository) Get(ctx context.Context, id string) (*models.RemovalRecord, error) {
	query := `SELECT ` + removalColumns + ` FROM removals WHERE id = ?`

	rec, err := scanRemoval(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: removal %s", ErrNotFound, id)
	}
	return rec, err
}

// ListByRun retrieves the records of one run in the order they were created
func (r *RemovalRepository) ListByRun(ctx context.Context, runID string) ([]*models.RemovalRecord, error) {
	query := `SELECT ` + removalColumns + ` FROM removals WHERE run_id = ? ORDER BY created_at ASC, rowid ASC`
	return r.query(ctx, query, runID)
}

// List retrieves records matching the given criteria, newest first.
//
// Supported criteria: "run_id", "playlist_id", "reason", "status" (strings) and "danger_run" (bool).
// A non-positive limit returns every match.
func (r *RemovalRepository) List(ctx context.Context, criteria map[string]any, limit int) ([]*models.RemovalRecord, error) {
	query := `SELECT ` + removalColumns + ` FROM removals WHERE 1 = 1`
	args := []any{}

	for _, key := range []string{"run_id", "playlist_id", "reason", "status"} {
		if v, ok := criteria[key].(string); ok && v != "" {
			query += " AND " + key + " = ?"
			args = append(args, v)
		}
	}
	if danger, ok := criteria["danger_run"].(bool); ok {
		query += " AND danger_run = ?"
		args = append(args, danger)
	}

	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limitOrAll(limit))

	return r.query(ctx, query, args...)
}

func (r *RemovalRepository) query(ctx context.Context, query string, args ...any) ([]*models.RemovalRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query removals: %w", err)
	}
	defer rows.Close()

	var records []*models.RemovalRecord
	for rows.Next() {
		rec, err := scanRemoval(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

func scanRemoval(s scanner) (*models.RemovalRecord, error) {
	var (
		rec    models.RemovalRecord
		reason string
		status string
	)

	err := s.Scan(
		&rec.ID, &rec.RunID, &rec.PlaylistID, &rec.TrackID, &rec.TrackName, &rec.Artists, &rec.AddedBy,
		&reason, &rec.Detail, &rec.DangerRun, &status, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan removal: %w", err)
	}

	rec.Reason = models.RemovalReason(reason)
	rec.Status = models.RemovalStatus(status)
	return &rec, nil
}
