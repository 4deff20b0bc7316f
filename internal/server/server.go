package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"catalog-sync/internal/config"
	"catalog-sync/internal/database"
	"catalog-sync/internal/metrics"
	custommiddleware "catalog-sync/internal/middleware"
	"catalog-sync/internal/repository"
	"catalog-sync/internal/service"
	"catalog-sync/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

// Deps carries the shared resources the HTTP layer is built on. Redis is
// optional; without it no rate limit is applied.
type Deps struct {
	DB      *sql.DB
	Redis   *redis.Client
	Metrics *metrics.Registry
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      NewRouter(cfg, logger, deps),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     deps.DB,
		redis:  deps.Redis,
	}

	return server
}

// NewRouter assembles the middleware chain and every route of the API
func NewRouter(cfg *config.Config, logger *zap.Logger, deps Deps) chi.Router {
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, !cfg.IsProduction()))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := database.Health(deps.DB)
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})
	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics.Handler())
	}

	// Initialize repositories
	catalogRepo := repository.NewCatalogRepository(deps.DB)
	userRepo := repository.NewUserRepository(deps.DB)

	// Initialize services
	catalogService := service.NewCatalogService(catalogRepo, cfg.Catalog.DefaultPageSize, logger)
	reportService := service.NewReportService(catalogRepo)
	userService := service.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)

	// Initialize handlers
	catalogHandler := transport.NewCatalogHandler(catalogService, logger)
	reportHandler := transport.NewReportHandler(reportService, catalogService, logger)
	userHandler := transport.NewUserHandler(userService, logger)

	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)

	router.Group(func(r chi.Router) {
		if cfg.RateLimit.Enabled && deps.Redis != nil {
			r.Use(custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
				RequestsPerWindow: cfg.RateLimit.Requests,
				Window:            cfg.RateLimit.Window,
				KeyPrefix:         "ratelimit:api",
			}, logger))
		}

		catalogHandler.RegisterRoutes(r)
		reportHandler.RegisterRoutes(r, authMiddleware)
		userHandler.RegisterRoutes(r, authMiddleware)
	})

	return router
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}
