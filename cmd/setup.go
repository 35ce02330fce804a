package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/curator/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("✓ Configuration written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set todo.playlist_id and the [[personal]] playlists in %s\n", configPath)
	r.writePlain("2. Export %s and %s, then run 'curator auth'\n", shared.EnvClientID, shared.EnvClientSecret)
	r.writePlain("3. Run 'curator todo' to preview the retention policy\n")

	return nil
}

// SetupDatabase initializes the audit database and runs migrations.
//
// With --rollback the most recent migration is reverted instead.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	if config.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty, the audit log is disabled", shared.ErrInvalidConfig)
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenAuditDatabase(config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return err
		}
		return r.writePlain("✓ Rolled back latest migration of %s\n", config.Database.Path)
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", config.Database.Path)
}
