package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/wavey/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the config template to the configured path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err == nil {
		return fmt.Errorf("%w: %s already exists", shared.ErrInvalidArgument, r.configPath)
	}

	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	r.logger.Info("config file created", "path", r.configPath)
	r.writePlain("✓ Wrote %s\n", r.configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set api.base_url to your Wavey service\n")
	r.writePlain("2. Run 'wavey auth login --email you@example.com --password ...'\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig()
	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	switch {
	case cmd.Bool("rollback"):
		r.logger.Info("rolling back last migration")
		if err := shared.RollbackMigration(ctx, db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return r.writePlain("✓ Rolled back the most recent migration\n")

	case cmd.Bool("status"):
		pending, err := shared.PendingMigrations(ctx, db)
		if err != nil {
			return fmt.Errorf("failed to list migrations: %w", err)
		}
		if len(pending) == 0 {
			return r.writePlain("✓ Database is up to date\n")
		}
		r.writePlain("%d pending migration(s):\n", len(pending))
		for _, m := range pending {
			r.writePlain("  %04d %s\n", m.Version, m.Name)
		}
		return nil
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", config.Database.Path)
}
