package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/curator/internal/formatter"
	"github.com/desertthunder/curator/internal/repositories"
	"github.com/desertthunder/curator/internal/shared"
	"github.com/urfave/cli/v3"
)

// History lists recorded removal intents, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	audit, closeAudit, err := r.requireAudit(cmd)
	if err != nil {
		return err
	}
	defer closeAudit()

	criteria := map[string]any{
		"run_id": cmd.String("run"),
		"reason": cmd.String("reason"),
		"status": cmd.String("status"),
	}

	records, err := audit.Removals.List(ctx, criteria, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if output := cmd.String("output"); output != "" {
		path, err := formatter.WriteHistoryExport(records, format, output, r.now())
		if err != nil {
			return err
		}
		r.logger.Info("history exported", "path", path, "records", len(records))
		return r.writePlain("✓ Exported %d records to %s\n", len(records), path)
	}

	return formatter.WriteHistory(r.output, records, format)
}

// HistoryRuns lists recorded runs, newest first.
func (r *Runner) HistoryRuns(ctx context.Context, cmd *cli.Command) error {
	audit, closeAudit, err := r.requireAudit(cmd)
	if err != nil {
		return err
	}
	defer closeAudit()

	runs, err := audit.Runs.List(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}

	r.writePlainHeader(fmt.Sprintf("Runs: %d", len(runs)))
	for _, run := range runs {
		mode := "dry"
		if run.DangerRun {
			mode = "danger"
		}
		finished := "unfinished"
		if run.FinishedAt != nil {
			finished = run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		r.writePlain("%s  %-6s  %-6s  %s  %s\n", run.StartedAt.UTC().Format(time.RFC3339), run.Pipeline, mode, finished, run.ID)
	}
	return nil
}

func (r *Runner) requireAudit(cmd *cli.Command) (*repositories.AuditLog, func(), error) {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return nil, nil, err
	}

	if config.Database.Path == "" {
		return nil, nil, fmt.Errorf("%w: database.path is empty, no history is recorded", shared.ErrInvalidConfig)
	}
	return r.openAudit(config)
}
