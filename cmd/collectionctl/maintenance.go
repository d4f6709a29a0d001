package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/segyhp/collection-engine/internal/repository"
	"github.com/segyhp/collection-engine/internal/service"
)

const commandTimeout = 2 * time.Minute

func operatorContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := service.WithActor(cmd.Context(), service.Actor{ID: "collectionctl", Role: service.RoleSystem})
	return context.WithTimeout(ctx, commandTimeout)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := operatorContext(cmd)
			defer cancel()

			cfg, db, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info().Str("driver", cfg.Database.Driver).Msg("schema is up to date")
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile WALLET_ID...",
		Short: "Replay wallet histories and compare them with stored balances",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := operatorContext(cmd)
			defer cancel()

			cfg, db, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			ledger := service.NewLedgerService(repository.NewStore(db), service.NewRoleAuthorizer(), cfg)
			inconsistent := 0
			for _, walletID := range args {
				report, err := ledger.ReconcileWallet(ctx, walletID)
				if err != nil {
					return fmt.Errorf("wallet %s: %w", walletID, err)
				}
				status := "ok"
				if !report.Consistent {
					status = "MISMATCH"
					inconsistent++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tstored=%s replayed=%s transactions=%d\n",
					walletID, status, report.StoredBalance.StringFixed(2),
					report.ReplayedBalance.StringFixed(2), report.Transactions)
			}
			if inconsistent > 0 {
				return fmt.Errorf("%d wallet(s) failed reconciliation", inconsistent)
			}
			return nil
		},
	}
	return cmd
}

func newCloseRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close-stale-routes",
		Short: "Close every route left open after its operational day",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := operatorContext(cmd)
			defer cancel()

			cfg, db, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			routes := service.NewRouteService(repository.NewStore(db), nil, service.NewRoleAuthorizer(), cfg)
			closed, err := routes.CloseStaleRoutes(ctx, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "closed %d route(s)\n", closed)
			return nil
		},
	}
}
