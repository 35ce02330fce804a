package models

import (
	"fmt"
	"time"
)

// RemovalReason identifies which rule produced a removal intent.
type RemovalReason string

const (
	ReasonDuplicate       RemovalReason = "duplicate"
	ReasonStale           RemovalReason = "stale"
	ReasonUntoleratedUser RemovalReason = "untolerated-user"
	ReasonDeniedGenre     RemovalReason = "denied-genre"
)

// RemovalStatus is the outcome of a gate invocation.
type RemovalStatus string

const (
	StatusPending RemovalStatus = "pending"
	StatusSkipped RemovalStatus = "skipped" // dry-run
	StatusApplied RemovalStatus = "applied"
	StatusFailed  RemovalStatus = "failed"
)

// RemovalRecord is the audit row for one removal intent.
type RemovalRecord struct {
	ID         string        `json:"id"`
	RunID      string        `json:"run_id"`
	PlaylistID string        `json:"playlist_id"`
	TrackID    string        `json:"track_id"`
	TrackName  string        `json:"track_name"`
	Artists    string        `json:"artists"`
	AddedBy    string        `json:"added_by"`
	Reason     RemovalReason `json:"reason"`
	Detail     string        `json:"detail,omitempty"`
	DangerRun  bool          `json:"danger_run"`
	Status     RemovalStatus `json:"status"`
	Error      string        `json:"error,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Validate checks the fields required to persist the record.
func (r *RemovalRecord) Validate() error {
	switch {
	case r.RunID == "":
		return fmt.Errorf("run id is required")
	case r.PlaylistID == "":
		return fmt.Errorf("playlist id is required")
	case r.TrackName == "" && r.TrackID == "":
		return fmt.Errorf("track name or id is required")
	case r.Reason == "":
		return fmt.Errorf("reason is required")
	}
	return nil
}

// Run is the audit row for one pipeline invocation.
type Run struct {
	ID         string     `json:"id"`
	Pipeline   string     `json:"pipeline"`
	DangerRun  bool       `json:"danger_run"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
