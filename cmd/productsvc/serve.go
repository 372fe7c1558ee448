package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/products-service/internal/api"
	"github.com/hypernova-labs/products-service/internal/config"
	"github.com/hypernova-labs/products-service/internal/database"
	"github.com/hypernova-labs/products-service/internal/metrics"
	"github.com/hypernova-labs/products-service/internal/services"
	"github.com/hypernova-labs/products-service/internal/telemetry"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	// Cargar configuración
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	logger := setupLogger(cfg)
	logger.Info("Starting products service...")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Conectar a la base de datos
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer func() {
		db.LogStats(logger)
		if err := db.Close(); err != nil {
			logger.WithError(err).Error("Error closing database pool")
		}
	}()

	if err := metrics.RegisterDBStats(db.DB, cfg.Database.Name); err != nil {
		logger.WithError(err).Warn("Error registering database pool metrics")
	}

	// Redis es opcional: solo respalda el rate limiting
	var (
		redisClient *database.Redis
		cache       services.Pinger
		rateCounter api.RateCounter
	)
	if cfg.Redis.Enabled {
		redisClient, err = database.ConnectRedis(cfg)
		if err != nil {
			logger.WithError(err).Warn("Error connecting to Redis, rate limiting disabled")
		} else {
			cache = redisClient
			rateCounter = redisClient
			defer func() {
				redisClient.LogStats(logger)
				if err := redisClient.Close(); err != nil {
					logger.WithError(err).Error("Error closing Redis client")
				}
			}()
		}
	} else {
		logger.Info("Redis disabled, rate limiting will not be available")
	}

	// Trazas
	var tracing gin.HandlerFunc
	if cfg.Tracing.Enabled {
		shutdownTracer, err := telemetry.Init(parent, cfg.Tracing, cfg.Server.Env, logger)
		if err != nil {
			logger.WithError(err).Warn("Error initializing tracing")
		} else {
			tracing = telemetry.Middleware(cfg.Tracing.ServiceName)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTracer(ctx); err != nil {
					logger.WithError(err).Error("Error shutting down tracer provider")
				}
			}()
		}
	}

	// Inicializar servicios
	productRepo := database.NewProductRepository(db, logger)
	productService := services.NewProductService(productRepo, logger)
	healthService := services.NewHealthService(db, cache, logger)

	apiHandler := api.NewAPI(productService, healthService, logger)
	router := api.NewRouter(apiHandler, api.RouterOptions{
		CORS:           cfg.IsDevelopment(),
		RateCounter:    rateCounter,
		RateLimit:      cfg.RateLimit.Default,
		RateLimitBurst: cfg.RateLimit.Burst,
		Tracing:        tracing,
	})

	server := &http.Server{
		Addr:         cfg.GetListenAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("error starting server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	// Drenar peticiones en curso antes de cerrar el pool
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
	return nil
}
