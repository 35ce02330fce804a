package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/services"
	"github.com/desertthunder/curator/internal/shared"
)

// AuditRecorder persists removal intents.
type AuditRecorder interface {
	Create(ctx context.Context, rec *models.RemovalRecord) error
	UpdateStatus(ctx context.Context, id string, status models.RemovalStatus, errMsg string) error
}

// RemovalRequest describes one removal intent.
type RemovalRequest struct {
	PlaylistID string
	Track      models.Track
	Reason     models.RemovalReason
	Detail     string
}

// Remover is the single chokepoint removal paths go through. [DeletionGate] implements it.
type Remover interface {
	Delete(ctx context.Context, req RemovalRequest, dangerRun bool) (models.RemovalStatus, error)
}

// GateOpts configures a [DeletionGate]. Audit and Metrics are optional.
type GateOpts struct {
	RunID   string
	Audit   AuditRecorder
	Metrics *shared.Metrics
	Logger  *log.Logger
	Now     func() time.Time
}

// DeletionGate logs every removal intent and only mutates the playlist on a danger run.
type DeletionGate struct {
	svc     services.Service
	runID   string
	audit   AuditRecorder
	metrics *shared.Metrics
	logger  *log.Logger
	now     func() time.Time
}

// NewDeletionGate creates a gate issuing removals through svc.
func NewDeletionGate(svc services.Service, opts GateOpts) *DeletionGate {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &DeletionGate{
		svc:     svc,
		runID:   opts.RunID,
		audit:   opts.Audit,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		now:     opts.Now,
	}
}

// Delete logs and audits the intent, then issues exactly one removal request if dangerRun is set.
//
// A dry run returns [models.StatusSkipped]. So does a track without an id, which cannot be
// addressed. A failed request is audited as [models.StatusFailed] and returned.
func (g *DeletionGate) Delete(ctx context.Context, req RemovalRequest, dangerRun bool) (models.RemovalStatus, error) {
	track := req.Track
	g.logger.Info("track will be deleted",
		"track", track.Name,
		"artists", strings.Join(track.ArtistNames(), ", "),
		"playlist", req.PlaylistID,
		"reason", req.Reason,
	)

	rec, err := g.record(ctx, req, dangerRun)
	if err != nil {
		return models.StatusPending, err
	}

	mode := "dry"
	if dangerRun {
		mode = "danger"
	}
	if g.metrics != nil {
		g.metrics.Removals.WithLabelValues(string(req.Reason), mode).Inc()
	}

	switch {
	case !dangerRun:
		g.logger.Info("dry-run, skip deletion", "track", track.Name)
		return models.StatusSkipped, g.finish(ctx, rec, models.StatusSkipped, "")
	case track.ID == "":
		g.logger.Warn("track has no id, skip deletion", "track", track.Name)
		return models.StatusSkipped, g.finish(ctx, rec, models.StatusSkipped, "track has no id")
	}

	if err := g.svc.RemoveTrackOccurrences(ctx, req.PlaylistID, track.ID); err != nil {
		g.logger.Error("deletion failed", "track", track.Name, "error", err)
		if g.metrics != nil {
			g.metrics.Failures.WithLabelValues(string(req.Reason)).Inc()
		}
		if ferr := g.finish(ctx, rec, models.StatusFailed, err.Error()); ferr != nil {
			g.logger.Warn("failed to audit deletion failure", "error", ferr)
		}
		return models.StatusFailed, err
	}

	g.logger.Debug("track deleted", "track", track.Name, "playlist", req.PlaylistID)
	return models.StatusApplied, g.finish(ctx, rec, models.StatusApplied, "")
}

func (g *DeletionGate) record(ctx context.Context, req RemovalRequest, dangerRun bool) (*models.RemovalRecord, error) {
	if g.audit == nil {
		return nil, nil
	}

	now := g.now().UTC()
	rec := &models.RemovalRecord{
		ID:         shared.GenerateID(),
		RunID:      g.runID,
		PlaylistID: req.PlaylistID,
		TrackID:    req.Track.ID,
		TrackName:  req.Track.Name,
		Artists:    strings.Join(req.Track.ArtistNames(), ", "),
		AddedBy:    req.Track.Adder(),
		Reason:     req.Reason,
		Detail:     req.Detail,
		DangerRun:  dangerRun,
		Status:     models.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := g.audit.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to audit removal of %q: %w", req.Track.Name, err)
	}
	return rec, nil
}

func (g *DeletionGate) finish(ctx context.Context, rec *models.RemovalRecord, status models.RemovalStatus, errMsg string) error {
	if rec == nil {
		return nil
	}
	if err := g.audit.UpdateStatus(ctx, rec.ID, status, errMsg); err != nil {
		return fmt.Errorf("failed to update audit record %s: %w", rec.ID, err)
	}
	rec.Status = status
	return nil
}
