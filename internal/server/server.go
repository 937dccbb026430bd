package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"compucobano/internal/config"
	"compucobano/internal/database"
	custommiddleware "compucobano/internal/middleware"
	"compucobano/internal/repository"
	"compucobano/internal/service"
	"compucobano/internal/storage"
	"compucobano/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const adminRateLimitPrefix = "admin_mutations"

var ErrMissingTokenSecret = errors.New("JWT_SECRET is required in production")

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *database.Service
	redis  *redis.Client
}

// NewServer wires repositories, services and handlers onto one router.
// redisClient and images may be nil: rate limiting and uploads are then off.
func NewServer(cfg *config.Config, logger *zap.Logger, db *database.Service, redisClient *redis.Client, images storage.ImageStore) (*Server, error) {
	tokens, err := adminTokens(cfg)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, !cfg.IsProduction()))

	router.Get("/health", healthHandler(db, redisClient))

	// Initialize repositories
	categoryRepo := repository.NewCategoryRepository(db.Pool())
	productRepo := repository.NewProductRepository(db.Pool())

	// Initialize services
	reader := service.NewCatalogReader(categoryRepo, productRepo, logger,
		service.WithPageSizes(cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize),
	)
	writer := service.NewCatalogWriter(categoryRepo, productRepo, logger)

	// Initialize handlers
	exposeDetails := !cfg.IsProduction()
	catalogHandler := transport.NewCatalogHandler(reader, logger, exposeDetails)
	adminHandler := transport.NewAdminHandler(reader, writer, logger, exposeDetails)

	guard := custommiddleware.AdminGuard(tokens, logger)
	limit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         adminRateLimitPrefix,
	}, logger)

	// Register routes
	catalogHandler.RegisterRoutes(router)
	router.Route("/api/admin", func(r chi.Router) {
		r.Use(guard)
		adminHandler.RegisterRoutes(r, limit)

		if images == nil {
			logger.Warn("Image uploads disabled: no storage configured")
			return
		}
		uploader := storage.NewImageUploader(images, cfg.Storage.Folder, cfg.Storage.MaxUploadBytes, logger)
		transport.NewImageHandler(uploader, cfg.Storage.MaxUploadBytes, logger).RegisterRoutes(r, limit)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server, nil
}

// adminTokens returns nil when the admin guard should stay open, which is
// only allowed outside production.
func adminTokens(cfg *config.Config) (custommiddleware.TokenValidator, error) {
	if cfg.JWT.Secret != "" {
		return service.NewTokenService(cfg.JWT.Secret), nil
	}
	if cfg.IsProduction() {
		return nil, ErrMissingTokenSecret
	}
	return nil, nil
}

type healthChecker interface {
	Health(ctx context.Context) map[string]string
}

func healthHandler(db healthChecker, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := db.Health(r.Context())

		if redisClient != nil {
			if err := redisClient.Ping(r.Context()).Err(); err != nil {
				health["redis"] = "down"
			} else {
				health["redis"] = "up"
			}
		}

		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if s.db != nil {
		s.db.Close()
	}

	_ = s.logger.Sync()
	return nil
}
