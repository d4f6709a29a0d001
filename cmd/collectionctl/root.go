package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/segyhp/collection-engine/internal/config"
	"github.com/segyhp/collection-engine/internal/logger"
	"github.com/segyhp/collection-engine/internal/repository"
)

var version = "0.1.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "collectionctl",
		Short: "Operator tools for the collection engine",
		Long: `collectionctl runs maintenance tasks against the collection engine database
and previews loan schedules and commissions without touching any data.

Database commands read the same environment as the server
(DATABASE_DRIVER, DATABASE_URL, OPERATIONAL_TIMEZONE, ...).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			cfg := logger.DefaultConfig()
			cfg.Level = level
			cfg.Format = "console"
			cfg.Output = cmd.ErrOrStderr()
			return logger.Setup(cfg)
		},
	}
	root.PersistentFlags().String("log-level", "warn", "Log level (trace, debug, info, warn, error)")

	root.AddCommand(
		newMigrateCmd(),
		newScheduleCmd(),
		newCommissionCmd(),
		newReconcileCmd(),
		newCloseRoutesCmd(),
	)
	return root
}

// openDatabase loads configuration and opens the configured database.
func openDatabase(ctx context.Context) (*config.Config, *sqlx.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, db, nil
}
