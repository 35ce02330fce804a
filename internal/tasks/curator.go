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

const (
	PipelineTodo   = "todo"
	PipelineFilter = "filter"
)

// AuditStore persists runs and their removal intents.
type AuditStore interface {
	AuditRecorder
	StartRun(ctx context.Context, run *models.Run) error
	FinishRun(ctx context.Context, id string, finished time.Time) error
}

// RunReport summarizes one pipeline run.
type RunReport struct {
	RunID      string          `json:"run_id"`
	Pipeline   string          `json:"pipeline"`
	DangerRun  bool            `json:"danger_run"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Inspected  int             `json:"inspected"`
	Decisions  []Decision      `json:"decisions"`
	Counts     map[Outcome]int `json:"counts"`
}

// Removed returns the decisions that carried a removal intent.
func (r *RunReport) Removed() []Decision {
	var out []Decision
	for _, d := range r.Decisions {
		if d.Outcome.Removed() {
			out = append(out, d)
		}
	}
	return out
}

func (r *RunReport) add(d Decision) {
	r.Decisions = append(r.Decisions, d)
	r.Counts[d.Outcome]++
}

// CuratorOpts contains the dependencies of a [Curator]. Only Service and Config are required.
type CuratorOpts struct {
	Service  services.Service
	Config   *shared.Config
	Audit    AuditStore
	Metrics  *shared.Metrics
	Logger   *log.Logger
	Review   ReviewHook
	Insult   InsultSelector
	Now      func() time.Time
	Progress ProgressFunc
}

// Curator runs the todo and filter pipelines.
type Curator struct {
	svc       services.Service
	config    *shared.Config
	retriever *Retriever
	audit     AuditStore
	metrics   *shared.Metrics
	logger    *log.Logger
	review    ReviewHook
	insult    InsultSelector
	now       func() time.Time
	progress  ProgressFunc
}

// NewCurator creates a Curator.
func NewCurator(opts CuratorOpts) *Curator {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Insult == nil {
		opts.Insult = RandomInsult
	}

	return &Curator{
		svc:       opts.Service,
		config:    opts.Config,
		retriever: NewRetriever(opts.Service, opts.Config.Spotify, opts.Logger),
		audit:     opts.Audit,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		review:    opts.Review,
		insult:    opts.Insult,
		now:       opts.Now,
		progress:  opts.Progress,
	}
}

// Todo applies the retention policy to the todo playlist.
func (c *Curator) Todo(ctx context.Context, dangerRun bool) (*RunReport, error) {
	if c.svc == nil {
		return nil, fmt.Errorf("%w: streaming service not initialized", shared.ErrServiceUnavailable)
	}

	policy := PolicyFromConfig(c.config.Todo)
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	report, gate, err := c.start(ctx, PipelineTodo, dangerRun)
	if err != nil {
		return nil, err
	}
	logger := shared.WithLogger(c.logger, "pipeline", PipelineTodo, "run", report.RunID)

	todo := c.config.Todo
	name := todo.PlaylistName
	if name == "" {
		name = todo.PlaylistID
	}

	c.progress.send(fetchPlaylistUpdate(FetchTodo, 1, 1, name))
	tracks, err := c.retriever.Tracks(ctx, todo.PlaylistID)
	if err != nil {
		return nil, err
	}
	c.progress.send(fetchedPlaylistUpdate(FetchTodo, 1, 1, name, len(tracks)))

	index, err := c.retriever.PersonalIndex(ctx, c.config.Personal, c.progress)
	if err != nil {
		return nil, err
	}

	engine := NewRetentionEngine(RetentionOpts{
		Policy:   policy,
		Detector: NewDuplicateDetector(todo.ToleratedMissingIDs),
		Review:   c.review,
		Now:      c.now,
		Logger:   logger,
	})

	report.Inspected = len(tracks)
	for i, track := range tracks {
		d, err := engine.Evaluate(ctx, gate, todo.PlaylistID, track, index, dangerRun)
		if err != nil {
			return nil, err
		}
		report.add(d)
		c.observe(PipelineTodo, d)
		c.progress.send(decisionUpdate(ApplyRetention, i+1, len(tracks), d))
	}

	return report, c.finish(ctx, report)
}

// Filter applies the genre and user rules to every curated personal playlist.
func (c *Curator) Filter(ctx context.Context, dangerRun bool) (*RunReport, error) {
	if c.svc == nil {
		return nil, fmt.Errorf("%w: streaming service not initialized", shared.ErrServiceUnavailable)
	}

	report, gate, err := c.start(ctx, PipelineFilter, dangerRun)
	if err != nil {
		return nil, err
	}
	logger := shared.WithLogger(c.logger, "pipeline", PipelineFilter, "run", report.RunID)
	rules := RulesFromConfig(c.config.Filter)

	targets := c.config.CurationTargets()
	if len(targets) == 0 {
		logger.Warn("no personal playlist matches the filter", "match", c.config.Filter.PlaylistMatch)
	}

	for i, pl := range targets {
		c.progress.send(fetchPlaylistUpdate(FetchCurated, i+1, len(targets), pl.Name))

		tracks, err := c.retriever.Tracks(ctx, pl.ID)
		if err != nil {
			return nil, err
		}
		tracks, err = c.retriever.EnrichGenres(ctx, tracks, c.progress)
		if err != nil {
			return nil, err
		}
		c.progress.send(fetchedPlaylistUpdate(FetchCurated, i+1, len(targets), pl.Name, len(tracks)))

		report.Inspected += len(tracks)
		for j, track := range tracks {
			d, err := c.filterTrack(ctx, logger, gate, rules, pl, track, dangerRun)
			if err != nil {
				return nil, err
			}
			report.add(d)
			c.observe(PipelineFilter, d)
			c.progress.send(decisionUpdate(ApplyFilter, j+1, len(tracks), d))
		}
	}

	return report, c.finish(ctx, report)
}

func (c *Curator) filterTrack(ctx context.Context, logger *log.Logger, gate Remover, rules FilterRules, pl shared.PlaylistConfig, track models.Track, dangerRun bool) (Decision, error) {
	d := Decision{PlaylistID: pl.ID, Track: track, AgeDays: track.AgeDays(c.now()), Outcome: OutcomeRetained}

	v, err := rules.Evaluate(track)
	if err != nil {
		return d, err
	}
	if !v.Remove {
		return d, nil
	}

	genres := strings.Join(track.Genres, ", ")
	switch v.Reason {
	case models.ReasonUntoleratedUser:
		d.Outcome = OutcomeRemovedUser
		d.Detail = "added by " + track.Adder()
		logger.Warn("track added by untolerated user",
			"track", track.String(), "playlist", pl.Name, "added_by", track.Adder(), "genres", genres)
	case models.ReasonDeniedGenre:
		d.Outcome = OutcomeRemovedGenre
		d.Detail = "genres " + strings.Join(v.Denied, ", ")
		logger.Warn(fmt.Sprintf("detected sacrilegious track from genre %s, added by the %s %s",
			genres, Insult(c.insult), track.Adder()), "track", track.String(), "playlist", pl.Name)
	}
	d.Reason = v.Reason

	status, err := gate.Delete(ctx, RemovalRequest{PlaylistID: pl.ID, Track: track, Reason: v.Reason, Detail: d.Detail}, dangerRun)
	d.Status = status
	return d, err
}

func (c *Curator) start(ctx context.Context, pipeline string, dangerRun bool) (*RunReport, *DeletionGate, error) {
	report := &RunReport{
		RunID:     shared.GenerateID(),
		Pipeline:  pipeline,
		DangerRun: dangerRun,
		StartedAt: c.now(),
		Counts:    make(map[Outcome]int),
	}

	if c.audit != nil {
		run := &models.Run{ID: report.RunID, Pipeline: pipeline, DangerRun: dangerRun, StartedAt: report.StartedAt.UTC()}
		if err := c.audit.StartRun(ctx, run); err != nil {
			return nil, nil, fmt.Errorf("failed to record run: %w", err)
		}
	}

	c.logger.Info("starting run", "pipeline", pipeline, "run", report.RunID, "danger_run", dangerRun)

	gate := NewDeletionGate(c.svc, GateOpts{
		RunID:   report.RunID,
		Audit:   c.audit,
		Metrics: c.metrics,
		Logger:  shared.WithLogger(c.logger, "pipeline", pipeline),
		Now:     c.now,
	})
	return report, gate, nil
}

func (c *Curator) finish(ctx context.Context, report *RunReport) error {
	report.FinishedAt = c.now()
	if c.metrics != nil {
		c.metrics.Tracks.WithLabelValues(report.Pipeline).Set(float64(report.Inspected))
	}

	c.logger.Info("run finished",
		"pipeline", report.Pipeline,
		"inspected", report.Inspected,
		"removed", len(report.Removed()),
		"flagged", report.Counts[OutcomeFlagged],
	)

	if c.audit == nil {
		return nil
	}
	if err := c.audit.FinishRun(ctx, report.RunID, report.FinishedAt.UTC()); err != nil {
		return fmt.Errorf("failed to finish run %s: %w", report.RunID, err)
	}
	return nil
}

func (c *Curator) observe(pipeline string, d Decision) {
	if c.metrics != nil {
		c.metrics.Decisions.WithLabelValues(pipeline, string(d.Outcome)).Inc()
	}
}
