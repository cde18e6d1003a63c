package main

import (
	"context"
	"log"
	"time"

	"panel-connector/internal/core/cache"
	"panel-connector/internal/core/config"
	"panel-connector/internal/core/httpclient"
	"panel-connector/internal/core/logger"
	"panel-connector/internal/core/server"
	"panel-connector/internal/features/notify"
	orderadapters "panel-connector/internal/features/orders/adapters"
	provideradapters "panel-connector/internal/features/providers/adapters"
	providerhandler "panel-connector/internal/features/providers/handler"
	providerservice "panel-connector/internal/features/providers/service"

	"go.uber.org/zap"
)

// @title Panel Connector API
// @version 1.0
// @description Provider integration layer translating canonical panel operations into per-provider HTTP dialects.
// @contact.name API Support
// @contact.email support@panelconnector.com
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	// Initialize the Redis-backed store and verify reachability.
	redisCache, err := cache.NewRedisAdapter(cfg.RedisURL)
	if err != nil {
		l.Fatal("Failed to create Redis adapter", zap.Error(err))
	}
	defer redisCache.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisCache.Ping(pingCtx); err != nil {
		l.Fatal("Redis Health Check Failed", zap.Error(err))
	}
	l.Info("Redis connection verified")

	store := orderadapters.NewRedisStore(redisCache)

	// Outbound transport. The client timeout is a hard outer ceiling; each
	// provider call is bounded by its own per-provider timeout below it.
	client := httpclient.NewProxiedClient(time.Duration(cfg.Provider.TimeoutSeconds)*time.Second, cfg.Proxy)
	transport := provideradapters.NewHTTPTransport(client)
	transport.UserAgent = cfg.Provider.UserAgent

	notifier := notify.NewLogNotifier()

	connector := providerservice.NewConnectorService(store, transport, notifier)
	connectorHdl := providerhandler.NewProviderHandler(connector)

	srv := server.New(cfg)

	// Register Routes
	srv.App.Get("/providers/:id/balance", connectorHdl.GetBalance)
	srv.App.Get("/providers/:id/services", connectorHdl.GetServices)
	srv.App.Get("/orders/:id/status", connectorHdl.GetOrderStatus)
	srv.App.Get("/orders/:id/refill/eligibility", connectorHdl.GetRefillEligibility)
	srv.App.Post("/orders/:id/refill", connectorHdl.SubmitRefill)
	srv.App.Post("/orders/:id/cancel", connectorHdl.SubmitCancel)
	srv.App.Post("/refills/:id/resend", connectorHdl.ResendRefill)

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}
