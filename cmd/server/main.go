package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/segyhp/collection-engine/internal/cache"
	"github.com/segyhp/collection-engine/internal/config"
	"github.com/segyhp/collection-engine/internal/handler"
	"github.com/segyhp/collection-engine/internal/logger"
	"github.com/segyhp/collection-engine/internal/repository"
	"github.com/segyhp/collection-engine/internal/service"
	"github.com/segyhp/collection-engine/pkg/response"
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
	srvLog := logger.WithComponent("server")

	ctx := context.Background()

	// Initialize database
	db, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		srvLog.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db); err != nil {
		srvLog.Fatal().Err(err).Msg("failed to migrate database")
	}
	store := repository.NewStore(db)

	// Initialize Redis
	redisClient, routeCache := initCache(ctx, cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize services
	authz := service.NewRoleAuthorizer()
	loanService := service.NewLoanService(store, authz, cfg)
	paymentService := service.NewPaymentService(store, authz, cfg)
	ledgerService := service.NewLedgerService(store, authz, cfg)
	routeService := service.NewRouteService(store, routeCache, authz, cfg)
	liquidationService := service.NewLiquidationService(store, authz, cfg)

	// Setup routes
	router := handler.NewRouter(handler.Handlers{
		Health:      handler.NewHealthHandler(store, redisClient, cfg.GetHealthTimeout()),
		Loans:       handler.NewLoanHandler(loanService),
		Payments:    handler.NewPaymentHandler(paymentService),
		Wallets:     handler.NewWalletHandler(ledgerService),
		Routes:      handler.NewRouteHandler(routeService),
		Liquidation: handler.NewLiquidationHandler(liquidationService),
	})

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      response.CORSMiddleware(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		srvLog.Info().
			Str("addr", server.Addr).
			Str("driver", cfg.Database.Driver).
			Str("timezone", cfg.Business.OperationalTimezone).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvLog.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	srvLog.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		srvLog.Fatal().Err(err).Msg("server forced to shutdown")
	}

	srvLog.Info().Msg("server exited")
}

// initCache connects to redis when enabled. Without it closed routes are
// always read from the database.
func initCache(ctx context.Context, cfg *config.Config) (*redis.Client, cache.RouteCache) {
	if !cfg.Redis.Enabled {
		return nil, cache.NoopRouteCache{}
	}

	client, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		l := logger.WithComponent("server")
		l.Warn().Err(err).Msg("redis unavailable, route cache disabled")
		return nil, cache.NoopRouteCache{}
	}
	return client, cache.NewRouteCache(client, cfg.Redis.RouteTTL)
}
