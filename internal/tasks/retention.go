package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

// Outcome is the terminal state of a track after a pipeline evaluated it.
type Outcome string

const (
	OutcomeRetained         Outcome = "retained"
	OutcomeRemovedDuplicate Outcome = "removed-duplicate"
	OutcomeFlagged          Outcome = "flagged"
	OutcomeRemovedStale     Outcome = "removed-stale"
	OutcomeRemovedUser      Outcome = "removed-untolerated-user"
	OutcomeRemovedGenre     Outcome = "removed-denied-genre"
)

// Removed reports whether the outcome carried a removal intent.
func (o Outcome) Removed() bool {
	switch o {
	case OutcomeRemovedDuplicate, OutcomeRemovedStale, OutcomeRemovedUser, OutcomeRemovedGenre:
		return true
	}
	return false
}

// Decision records what a pipeline decided for one track.
type Decision struct {
	PlaylistID  string               `json:"playlist_id"`
	Track       models.Track         `json:"track"`
	AgeDays     int                  `json:"age_days"`
	Outcome     Outcome              `json:"outcome"`
	Occurrences int                  `json:"occurrences,omitempty"`
	Reason      models.RemovalReason `json:"reason,omitempty"`
	Detail      string               `json:"detail,omitempty"`
	Status      models.RemovalStatus `json:"status,omitempty"`
}

// RetentionPolicy holds the phase thresholds in days. PhaseOne < PhaseTwo < PhaseThree.
type RetentionPolicy struct {
	PhaseOne   int
	PhaseTwo   int
	PhaseThree int
}

// PolicyFromConfig reads the thresholds from the todo configuration.
func PolicyFromConfig(cfg shared.TodoConfig) RetentionPolicy {
	return RetentionPolicy{PhaseOne: cfg.PhaseOneDays, PhaseTwo: cfg.PhaseTwoDays, PhaseThree: cfg.PhaseThreeDays}
}

// Validate checks the threshold ordering.
func (p RetentionPolicy) Validate() error {
	if p.PhaseOne < 0 || p.PhaseOne >= p.PhaseTwo || p.PhaseTwo >= p.PhaseThree {
		return fmt.Errorf("%w: retention thresholds must satisfy 0 <= T1 < T2 < T3, got %d/%d/%d",
			shared.ErrInvalidConfig, p.PhaseOne, p.PhaseTwo, p.PhaseThree)
	}
	return nil
}

// ReviewHook is called for tracks that reached phase 2.
type ReviewHook func(ctx context.Context, track models.Track, ageDays int) error

// LogReview returns a [ReviewHook] that only logs the track.
func LogReview(logger *log.Logger) ReviewHook {
	return func(_ context.Context, track models.Track, ageDays int) error {
		logger.Info("track needs review", "track", track.String(), "age_days", ageDays)
		return nil
	}
}

// RetentionEngine applies the phased retention policy to todo tracks.
type RetentionEngine struct {
	policy   RetentionPolicy
	detector *DuplicateDetector
	review   ReviewHook
	now      func() time.Time
	logger   *log.Logger
}

// RetentionOpts configures a [RetentionEngine]. Review and Now have logging and wall-clock defaults.
type RetentionOpts struct {
	Policy   RetentionPolicy
	Detector *DuplicateDetector
	Review   ReviewHook
	Now      func() time.Time
	Logger   *log.Logger
}

// NewRetentionEngine creates a retention engine.
func NewRetentionEngine(opts RetentionOpts) *RetentionEngine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Detector == nil {
		opts.Detector = NewDuplicateDetector(nil)
	}
	if opts.Review == nil {
		opts.Review = LogReview(opts.Logger)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &RetentionEngine{
		policy:   opts.Policy,
		detector: opts.Detector,
		review:   opts.Review,
		now:      opts.Now,
		logger:   opts.Logger,
	}
}

// Evaluate runs the phases for one todo track in order.
//
// Phase 1 removes a duplicate and stops. Phase 2 flags and continues. Phase 3 always hands the
// track to the remover; whether anything is mutated is up to the remover and dangerRun.
func (e *RetentionEngine) Evaluate(ctx context.Context, rm Remover, playlistID string, track models.Track, index models.PersonalIndex, dangerRun bool) (Decision, error) {
	age := track.AgeDays(e.now())
	d := Decision{PlaylistID: playlistID, Track: track, AgeDays: age, Outcome: OutcomeRetained}

	if age >= e.policy.PhaseOne {
		n, err := e.detector.Count(track, index)
		if err != nil {
			return d, err
		}
		d.Occurrences = n

		if n > 0 {
			e.logger.Info("track present in personal playlists", "track", track.Name, "occurrences", n)
			return e.remove(ctx, rm, d, models.ReasonDuplicate, OutcomeRemovedDuplicate,
				fmt.Sprintf("present %d time(s) in personal playlists", n), dangerRun)
		}
	}

	if age > e.policy.PhaseTwo {
		if err := e.review(ctx, track, age); err != nil {
			return d, fmt.Errorf("review hook failed for %q: %w", track.Name, err)
		}
		d.Outcome = OutcomeFlagged
	}

	if age >= e.policy.PhaseThree {
		e.logger.Info("found old track", "track", track.String(), "age_days", age)
		return e.remove(ctx, rm, d, models.ReasonStale, OutcomeRemovedStale,
			fmt.Sprintf("added %d days ago", age), dangerRun)
	}

	return d, nil
}

func (e *RetentionEngine) remove(ctx context.Context, rm Remover, d Decision, reason models.RemovalReason, outcome Outcome, detail string, dangerRun bool) (Decision, error) {
	d.Outcome = outcome
	d.Reason = reason
	d.Detail = detail

	status, err := rm.Delete(ctx, RemovalRequest{
		PlaylistID: d.PlaylistID,
		Track:      d.Track,
		Reason:     reason,
		Detail:     detail,
	}, dangerRun)
	d.Status = status
	return d, err
}
