package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/curator/internal/shared"
	"github.com/desertthunder/curator/internal/tasks"
	"github.com/desertthunder/curator/internal/ui"
	"github.com/urfave/cli/v3"
)

// Todo applies the retention policy to the todo playlist.
func (r *Runner) Todo(ctx context.Context, cmd *cli.Command) error {
	return r.curate(ctx, cmd, tasks.PipelineTodo)
}

// Filter applies the genre and user rules to the curated personal playlists.
func (r *Runner) Filter(ctx context.Context, cmd *cli.Command) error {
	return r.curate(ctx, cmd, tasks.PipelineFilter)
}

// RunAll runs the todo pipeline followed by the filter pipeline.
//
// The filter pipeline does not start when the todo pipeline fails.
func (r *Runner) RunAll(ctx context.Context, cmd *cli.Command) error {
	return r.curate(ctx, cmd, tasks.PipelineTodo, tasks.PipelineFilter)
}

func (r *Runner) curate(ctx context.Context, cmd *cli.Command, pipelines ...string) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	useJSON := cmd.Bool("json")
	dangerRun := resolveDangerRun(cmd.Bool("danger-run"), cmd.Bool("dry-run"))
	if cmd.Bool("danger-run") && !dangerRun {
		r.logger.Warn("--dry-run overrides --danger-run")
	}
	if !dangerRun {
		r.logger.Info("dry run, no track will be removed (pass --danger-run to apply)")
	}

	svc, err := r.spotify(ctx, config)
	if err != nil {
		return err
	}

	audit, closeAudit, err := r.openAudit(config)
	if err != nil {
		return err
	}
	defer closeAudit()

	metrics := shared.NewMetrics()
	opts := tasks.CuratorOpts{
		Service: svc,
		Config:  config,
		Metrics: metrics,
		Logger:  r.logger,
		Review:  tasks.LogReview(r.logger),
		Insult:  r.insult,
		Now:     r.now,
	}
	if audit != nil {
		opts.Audit = audit
	}
	if !useJSON && !cmd.Bool("quiet") {
		opts.Progress = ui.ProgressPrinter(r.output)
	}

	curator := tasks.NewCurator(opts)

	reports := make([]*tasks.RunReport, 0, len(pipelines))
	var runErr error
	for _, pipeline := range pipelines {
		var report *tasks.RunReport
		switch pipeline {
		case tasks.PipelineTodo:
			report, runErr = curator.Todo(ctx, dangerRun)
		case tasks.PipelineFilter:
			report, runErr = curator.Filter(ctx, dangerRun)
		default:
			runErr = fmt.Errorf("%w: unknown pipeline %q", shared.ErrInvalidInput, pipeline)
		}
		if runErr != nil {
			runErr = fmt.Errorf("%s pipeline failed: %w", pipeline, runErr)
			break
		}
		reports = append(reports, report)
	}

	r.writeMetrics(config, metrics)
	if runErr != nil {
		return runErr
	}

	if useJSON {
		if len(reports) == 1 {
			return r.writeJSON(reports[0], true)
		}
		return r.writeJSON(reports, true)
	}

	for _, report := range reports {
		if err := r.writePlain("\n%s\n", ui.RenderReport(report)); err != nil {
			return err
		}
	}
	return nil
}

// writeMetrics dumps the run metrics to the configured textfile. Failures are logged only.
func (r *Runner) writeMetrics(config *shared.Config, metrics *shared.Metrics) {
	path := config.Metrics.Textfile
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path, r.now()); err != nil {
		r.logger.Warn("failed to write metrics", "path", path, "error", err)
		return
	}
	r.logger.Debug("metrics written", "path", path)
}
