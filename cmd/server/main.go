package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flooring_crm/internal/config"
	"flooring_crm/internal/database"
	"flooring_crm/internal/handlers"
	"flooring_crm/internal/migrations"
	"flooring_crm/internal/redis"
	"flooring_crm/internal/repository"
	"flooring_crm/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL, cfg.LogLevel)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := migrations.RunMigrations(ctx, db, logger); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Redis only caches the status taxonomy; the service runs without it.
	var statusCache services.StatusCache
	if cfg.RedisURL != "" {
		redisClient, err := redis.Initialize(cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, status cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			statusCache = redisClient
		}
	}

	if cfg.OperatorTokenHash == "" {
		logger.Warn("OPERATOR_TOKEN_HASH is not set, taxonomy edits and repairs are disabled")
	}

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	checklistRepo := repository.NewChecklistRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Initialize services
	statusService := services.NewStatusService(settingsRepo, statusCache, cfg.StatusCacheTTL, logger)
	orderService := services.NewOrderService(db, orderRepo, customerRepo, checklistRepo, quoteRepo, statusService, cfg.SequenceMaxRetries, logger)
	customerService := services.NewCustomerService(customerRepo)
	checklistService := services.NewChecklistService(checklistRepo, orderRepo, logger)
	repairService := services.NewRepairService(orderRepo, cfg.DriftBatchSize, logger)

	router := handlers.NewRouter(handlers.RouterConfig{
		Orders:            handlers.NewOrderHandler(orderService, customerService, checklistService, logger),
		Statuses:          handlers.NewStatusHandler(statusService, logger),
		Admin:             handlers.NewAdminHandler(repairService, logger),
		OperatorTokenHash: cfg.OperatorTokenHash,
		Logger:            logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
