package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"catalog-sync/internal/config"
	"catalog-sync/internal/database"
	"catalog-sync/internal/domain"
	"catalog-sync/internal/ingest"
	"catalog-sync/internal/metrics"
	"catalog-sync/internal/repository"
	"catalog-sync/internal/server"
	"catalog-sync/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the sync scheduler",
	Long: `Starts the HTTP API and runs a sync cycle every SYNC_INTERVAL_MINUTES.
When SYNC_ON_STARTUP is set the first cycle runs immediately.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", zap.Error(err))
		return err
	}

	log.Info("Starting catalog sync service",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	db, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	log.Info("Database health check", zap.Any("health", database.Health(db)))

	ensureBootstrapUser(cmd.Context(), cfg, repository.NewUserRepository(db), log)

	registry := metrics.New()
	orchestrator, err := newOrchestrator(cfg, db, registry, log)
	if err != nil {
		_ = db.Close()
		return err
	}

	var redisClient *redis.Client
	if cfg.RateLimit.Enabled {
		redisClient, err = database.OpenRedis(cmd.Context(), cfg.Redis)
		if err != nil {
			log.Warn("Rate limiting disabled, redis unavailable", zap.Error(err))
		}
	}

	srv := server.NewServer(cfg, log, server.Deps{
		DB:      db,
		Redis:   redisClient,
		Metrics: registry,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := ingest.NewScheduler(orchestrator, cfg.Sync.Interval, log)
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		scheduler.Run(ctx, cfg.Sync.OnStartup)
	}()

	done := make(chan bool, 1)
	go gracefulShutdown(ctx, stop, srv, schedulerDone, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-done
		return err
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
	return nil
}

func gracefulShutdown(ctx context.Context, stop context.CancelFunc, apiServer *server.Server, schedulerDone <-chan struct{}, log *zap.Logger, done chan bool) {
	<-ctx.Done()

	log.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	// The server has 30 seconds to finish the requests it is handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	select {
	case <-schedulerDone:
	case <-shutdownCtx.Done():
		log.Warn("Sync cycle did not finish before shutdown deadline")
	}

	if err := apiServer.Close(); err != nil {
		log.Error("Error closing server resources", zap.Error(err))
	}

	log.Info("Server exiting")
	done <- true
}

// ensureBootstrapUser creates the configured admin account on first start
func ensureBootstrapUser(ctx context.Context, cfg *config.Config, users repository.UserRepository, log *zap.Logger) {
	if cfg.Bootstrap.Username == "" || cfg.Bootstrap.Password == "" {
		log.Debug("No bootstrap account configured")
		return
	}

	var email *string
	if cfg.Bootstrap.Email != "" {
		email = &cfg.Bootstrap.Email
	}

	userService := service.NewUserService(users, cfg.JWT.Secret, cfg.JWT.Expiration)
	created, err := userService.EnsureUser(ctx, cfg.Bootstrap.Username, cfg.Bootstrap.Password, email, domain.RoleAdmin)
	if err != nil {
		log.Error("Failed to ensure bootstrap account", zap.Error(err))
		return
	}
	if created {
		log.Info("Bootstrap admin account created", zap.String("username", cfg.Bootstrap.Username))
	}
}
