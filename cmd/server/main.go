package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application/services"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/config"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/infrastructure/cache"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/infrastructure/collaborators"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/infrastructure/gateway"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/infrastructure/persistence/postgres"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/interfaces/rest/handlers"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/interfaces/rest/middleware"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting payment service",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	store := postgres.NewStore(db)
	settingsRepo := postgres.NewSettingsRepository(db)
	settings := cache.NewSettingsCache(settingsRepo, redisClient, logger)

	gatewayClient := gateway.NewGatewayClient(cfg.Gateway)
	retryGateway := gateway.NewRetryGatewayClient(gatewayClient, cfg.Retry)

	identityClient := collaborators.NewIdentityClient(cfg.Collaborators)
	catalogClient := collaborators.NewCatalogClient(cfg.Collaborators)
	cartClient := collaborators.NewCartClient(cfg.Collaborators)

	reconcileService := services.NewReconcileService(store, identityClient, cartClient, logger)
	checkoutService := services.NewCheckoutService(store, retryGateway, catalogClient, settings, reconcileService, cfg.Intent.TTL, logger)
	refundService := services.NewRefundService(store, retryGateway, logger)
	webhookService := services.NewWebhookService(cfg.Webhook.SecretHash, reconcileService, refundService, logger)
	queryService := services.NewQueryService(store)

	h := handlers.NewHandlers(
		checkoutService,
		refundService,
		webhookService,
		queryService,
		settings,
		logger,
	)

	mux := http.NewServeMux()
	h.Routes(mux)

	handler := middleware.Recovery(logger)(http.Handler(mux))
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweeper := worker.NewIntentSweeper(store.Intents(), cfg.Worker.Interval, logger)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go sweeper.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
