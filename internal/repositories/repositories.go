package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/curator/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// AuditLog records runs and removal intents.
type AuditLog struct {
	Runs     *RunRepository
	Removals *RemovalRepository
}

// NewAuditLog creates an AuditLog over db, which must have migrations applied.
func NewAuditLog(db *sql.DB) *AuditLog {
	return &AuditLog{Runs: NewRunRepository(db), Removals: NewRemovalRepository(db)}
}

func (a *AuditLog) StartRun(ctx context.Context, run *models.Run) error {
	return a.Runs.Create(ctx, run)
}

func (a *AuditLog) FinishRun(ctx context.Context, id string, finished time.Time) error {
	return a.Runs.Finish(ctx, id, finished)
}

func (a *AuditLog) Create(ctx context.Context, rec *models.RemovalRecord) error {
	return a.Removals.Create(ctx, rec)
}

func (a *AuditLog) UpdateStatus(ctx context.Context, id string, status models.RemovalStatus, errMsg string) error {
	return a.Removals.UpdateStatus(ctx, id, status, errMsg)
}

// scanner is satisfied by [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// checkAffected turns a zero-row update into [ErrNotFound].
func checkAffected(result sql.Result, kind, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return nil
}
