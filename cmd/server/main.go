package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/zone-queue/internal/app"
	"github.com/iliyamo/zone-queue/internal/config"
	"github.com/iliyamo/zone-queue/internal/handler"
	"github.com/iliyamo/zone-queue/internal/middleware"
	"github.com/iliyamo/zone-queue/internal/queue"
	"github.com/iliyamo/zone-queue/internal/router"
	"github.com/iliyamo/zone-queue/internal/worker"
)

func main() {
	cfg := config.Load()
	logger, err := config.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close()

	h := handler.NewReservationHandler(a.Engine, a.Catalog, a.Confirms, a.Board, logger)
	h.ConfirmTimeout = cfg.ConfirmTimeout
	h.Location = cfg.TimeLocation()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(logger))
	router.RegisterRoutes(e)
	router.RegisterReservations(e, h, router.Options{
		JWTSecret: cfg.JWTSecret,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), a.Redis, logger),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), a.Redis, logger),
	})

	// Background purge keeps the board current even when nobody
	// reserves; it exits when ctx is cancelled.
	w := &worker.PurgeWorker{Purger: a.Engine, Board: a.Board, Interval: cfg.PurgeInterval, Log: logger}
	go func() { _ = w.Run(ctx) }()

	if cfg.NotifyBackend == config.NotifyAMQP {
		deliver := queue.LogFileDelivery(filepath.Join("logs", "notifications.log"))
		go func() { _ = queue.StartNotificationConsumer(ctx, cfg.RabbitURL, deliver, logger) }()
	}

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreBackend), zap.String("lock", cfg.LockBackend))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("bye")
}
