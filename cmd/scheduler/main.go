package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/segyhp/collection-engine/internal/config"
	"github.com/segyhp/collection-engine/internal/logger"
	"github.com/segyhp/collection-engine/internal/repository"
	"github.com/segyhp/collection-engine/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	schedLog := logger.WithComponent("scheduler")

	ctx := context.Background()
	db, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		schedLog.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db); err != nil {
		schedLog.Fatal().Err(err).Msg("failed to migrate database")
	}
	store := repository.NewStore(db)

	authz := service.NewRoleAuthorizer()
	j := newJobs(
		service.NewRouteService(store, nil, authz, cfg),
		service.NewLoanService(store, authz, cfg),
	)

	// Specs are evaluated in the operational timezone so "midnight" is the
	// collectors' midnight.
	c := cron.New(cron.WithSeconds(), cron.WithLocation(cfg.GetOperationalLocation()))
	if err := setupCronJobs(c, cfg, j); err != nil {
		schedLog.Fatal().Err(err).Msg("failed to schedule jobs")
	}

	// Start the scheduler
	c.Start()
	schedLog.Info().
		Str("route_close_spec", cfg.Scheduler.RouteCloseSpec).
		Str("delinquency_spec", cfg.Scheduler.DelinquencySpec).
		Msg("scheduler started")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	schedLog.Info().Msg("shutting down scheduler")
	<-c.Stop().Done()
	schedLog.Info().Msg("scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, j *jobs) error {
	if _, err := c.AddFunc(cfg.Scheduler.RouteCloseSpec, j.closeStaleRoutes); err != nil {
		return err
	}
	if _, err := c.AddFunc(cfg.Scheduler.DelinquencySpec, j.sweepDelinquency); err != nil {
		return err
	}
	return nil
}
