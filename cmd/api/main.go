// Command api serves the aggregated weather analyses over REST, reading the
// part files the jobs publish under the data directory.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"weather-mapreduce/internal/adapter/httpapi"
	"weather-mapreduce/internal/config"
	"weather-mapreduce/internal/observability"
	"weather-mapreduce/internal/results"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger("info", "json").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	store := results.NewStore(filepath.Join(cfg.DataDir, "output"), logger, metrics)
	app := httpapi.NewApp(store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("query service listening", "addr", cfg.HTTPAddr)
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}
