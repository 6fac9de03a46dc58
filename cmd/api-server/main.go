// cmd/api-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"cryptoreed-server/internal/artifacts"
	"cryptoreed-server/internal/chatbot"
	"cryptoreed-server/internal/common/config"
	"cryptoreed-server/internal/common/database"
	"cryptoreed-server/internal/common/logger"
	"cryptoreed-server/internal/common/observability"
	"cryptoreed-server/internal/llm"
	"cryptoreed-server/internal/recommender"
	"cryptoreed-server/internal/runner"
	"cryptoreed-server/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting CryptoReed API server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis cache with retry; the cache is optional ---
	var cache *database.RedisClient
	if cfg.Database.Redis.Enabled() {
		err = retryWithBackoff(func() error {
			var err error
			cache, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return cache.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Warn("redis unavailable, continuing without cache", zap.Error(err))
			cache = nil
		} else {
			defer cache.Close()
			zapLog.Info("Redis connected successfully")
		}
	}

	store := artifacts.NewStore(cfg.Artifacts.Dir, log)
	rec := recommender.NewClient(cfg.Recommender, cache, store, log)
	completion := llm.NewClient(cfg.OpenRouter, log)

	chat := chatbot.NewHandler(chatbot.Config{
		SystemPrompt: cfg.OpenRouter.SystemPrompt,
		Timeout:      config.GetDuration(cfg.OpenRouter.Timeout),
	}, rec, completion, log)

	run := runner.New(cfg.Scripts, log)

	srv := server.New(*cfg, log, obs, chat, rec, store, run)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.Routes(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zapLog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("shutdown did not finish cleanly", zap.Error(err))
	}

	zapLog.Info("Server stopped")
}
