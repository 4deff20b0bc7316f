package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"catalog-sync/internal/config"
	"catalog-sync/internal/database"
	"catalog-sync/internal/ingest"
	"catalog-sync/internal/logger"
	"catalog-sync/internal/metrics"
	"catalog-sync/internal/repository"
	"catalog-sync/internal/source"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootCmd serves the API when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "catalog-sync",
	Short: "Catalog ingestion and reporting service",
	Long: `catalog-sync pulls product entries from the content delivery API,
reconciles them into Postgres by SKU and serves filtered product listings
and inventory reports over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		l, logErr := logger.New("development")
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the logger every command needs
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}

// openDatabase connects and applies pending migrations
func openDatabase(cfg *config.Config, log *zap.Logger) (*sql.DB, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := database.RunMigrations(context.Background(), db, cfg.Server.MigrationsDir, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// newOrchestrator wires the fetch, normalize and reconcile stages of a cycle
func newOrchestrator(cfg *config.Config, db *sql.DB, registry *metrics.Registry, log *zap.Logger) (*ingest.Orchestrator, error) {
	normalizer, err := ingest.NewNormalizer()
	if err != nil {
		return nil, fmt.Errorf("failed to build item normalizer: %w", err)
	}

	return ingest.NewOrchestrator(
		source.NewClient(cfg.Source, log),
		normalizer,
		ingest.NewReconciler(repository.NewCatalogRepository(db)),
		registry,
		log,
	), nil
}
