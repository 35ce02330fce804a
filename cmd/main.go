package main

import (
	"context"
	"os"

	"github.com/desertthunder/curator/internal/shared"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadDotEnv(".env"); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// newApp builds the root command. The --loglevel flag is applied before any subcommand runs.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "curator",
		Usage:   "Prune a Spotify todo playlist and keep personal playlists free of foreign tracks",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "loglevel",
				Aliases: []string{"l"},
				Usage:   "Log level (debug, info, warn, error, fatal)",
				Value:   "info",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level, err := shared.ParseLogLevel(cmd.String("loglevel"))
			if err != nil {
				return ctx, err
			}
			shared.SetLogLevel(r.logger, level)
			return ctx, nil
		},
		Commands: r.register(),
	}
}
