package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dandantas/pimpush/internal/config"
	"github.com/dandantas/pimpush/internal/database"
	"github.com/dandantas/pimpush/internal/handler"
	"github.com/dandantas/pimpush/internal/model"
	"github.com/dandantas/pimpush/internal/recordapi"
	"github.com/dandantas/pimpush/internal/scheduler"
	"github.com/dandantas/pimpush/internal/service"
	"github.com/dandantas/pimpush/pkg/middleware"
)

const version = "1.0.0"

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		slog.Error("Failed to load .env file", "error", err)
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()

	// Initialize logger
	config.InitLogger(cfg)

	slog.Info("Starting PIM Push Service", "version", version, "job_store", cfg.JobStore)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		slog.Error("Failed to load catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}
	slog.Info("Catalog loaded",
		"environments", catalog.EnvironmentNames(),
		"fields", len(catalog.FieldMap.Fields),
	)

	// Initialize job store
	var store service.JobStore
	switch cfg.JobStore {
	case "mongo":
		db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
		if err != nil {
			slog.Error("Failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := db.Disconnect(context.Background()); err != nil {
				slog.Error("Failed to disconnect from MongoDB", "error", err)
			}
		}()

		if err := database.CreateIndexes(ctx, db); err != nil {
			slog.Error("Failed to create indexes", "error", err)
			os.Exit(1)
		}
		store = database.NewJobRepository(db)
	case "memory":
		store = model.NewMemoryJobStore()
	default:
		slog.Error("Unknown job store", "job_store", cfg.JobStore)
		os.Exit(1)
	}

	// Initialize record API client
	client := recordapi.NewClient(recordapi.NewHTTPClient(cfg.ERPTimeout), recordapi.Options{
		Retry:            model.RetryConfig{MaxAttempts: cfg.ERPMaxAttempts},
		MinInterval:      cfg.ERPMinInterval,
		BreakerThreshold: cfg.ERPBreakerThreshold,
		BreakerCooldown:  cfg.ERPBreakerCooldown,
		PriceItemsPath:   cfg.PriceItemsPath,
		PriceValueField:  cfg.PriceValueField,
	})

	// Initialize queue and runner
	runner := service.NewPushRunner(store, service.NewRowProcessor(client, *catalog.FieldMap))
	queue := service.NewJobQueue(store, runner)

	if _, err := queue.Recover(ctx, catalog); err != nil {
		slog.Error("Failed to recover unfinished jobs", "error", err)
		os.Exit(1)
	}
	queue.Start(ctx)

	// Initialize retention sweeper
	sweeper, err := scheduler.NewRetentionSweeper(store, cfg.JobRetention, cfg.RetentionSchedule)
	if err != nil {
		slog.Error("Failed to create retention sweeper", "error", err)
		os.Exit(1)
	}
	sweeper.Start(ctx)

	// Initialize handlers
	pushHandler := handler.NewPushHandler(queue, catalog)
	mappingHandler := handler.NewMappingHandler(*catalog.FieldMap, catalog.EnvironmentNames())
	healthHandler := handler.NewHealthHandler(store, queue.Len, client.BreakerState, version)

	// Create CORS config
	corsConfig := middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           cfg.CORSMaxAge,
	}

	// Create router
	router := handler.NewRouter(
		pushHandler,
		mappingHandler,
		healthHandler,
		corsConfig,
		cfg.IdentityHeader,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("Received shutdown signal, initiating graceful shutdown")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop accepting jobs before stopping the runner
	slog.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	sweeper.Stop(shutdownCtx)
	queue.Stop()

	slog.Info("PIM Push Service stopped")
}
