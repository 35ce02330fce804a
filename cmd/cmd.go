// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// curateFlags are shared by the pipeline commands.
func curateFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		&cli.BoolFlag{
			Name:  "danger-run",
			Usage: "Actually remove tracks (default is a dry run)",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Force a dry run, overrides --danger-run",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output the run report as JSON",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Do not print progress lines",
		},
	}
}

// todoCommand applies the retention policy to the todo playlist
func todoCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "todo",
		Usage:  "Apply the phased retention policy to the todo playlist",
		Flags:  curateFlags(),
		Action: r.Todo,
	}
}

// filterCommand applies the genre and user rules to personal playlists
func filterCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "filter",
		Usage:  "Remove tracks added by untolerated users or from denied genres",
		Flags:  curateFlags(),
		Action: r.Filter,
	}
}

// runCommand runs both pipelines in sequence
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Run the todo and filter pipelines in sequence",
		Flags:  curateFlags(),
		Action: r.RunAll,
	}
}

// authCommand runs the OAuth2 authorization code flow
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize with Spotify and store the refresh token",
		Flags: []cli.Flag{
			configFlag(),
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser callback",
				Value: 2 * time.Minute,
			},
		},
		Action: r.Auth,
	}
}

// setupCommand handles setup operations for configuration and the audit database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the example configuration file",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the audit database and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// historyCommand lists the removal audit log
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded removal intents",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (text, json, csv, markdown)",
				Value:   "text",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of records, 0 for all",
				Value: 50,
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "Only show records of this run id",
			},
			&cli.StringFlag{
				Name:  "reason",
				Usage: "Only show records with this reason (duplicate, stale, untolerated-user, denied-genre)",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only show records with this status (pending, skipped, applied, failed)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to this file instead of stdout",
			},
		},
		Action: r.History,
		Commands: []*cli.Command{
			{
				Name:  "runs",
				Usage: "List recorded runs",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs, 0 for all",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryRuns,
			},
		},
	}
}
