// Command extract fetches daily weather history for every catalog city from
// the Open-Meteo archive and writes the unified JSONL record stream the
// aggregation jobs consume.
//
// Usage:
//
//	go run ./cmd/extract -start-date 2022-12-01 -end-date 2022-12-31
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"weather-mapreduce/internal/adapter/kafka"
	"weather-mapreduce/internal/config"
	"weather-mapreduce/internal/domain"
	"weather-mapreduce/internal/extract"
	"weather-mapreduce/internal/observability"
)

func main() {
	if err := run(); err != nil {
		slog.Error("extraction failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	startDate := flag.String("start-date", "", "first day of the period (YYYY-MM-DD)")
	endDate := flag.String("end-date", "", "last day of the period, inclusive (YYYY-MM-DD)")
	out := flag.String("out", filepath.Join(cfg.DataDir, "input", "unified_weather_data.jsonl"), "unified stream output path")
	workers := flag.Int("workers", 4, "concurrent location fetches")
	flag.Parse()

	if err := validatePeriod(*startDate, *endDate); err != nil {
		flag.Usage()
		return err
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := extract.NewOpenMeteoClient(cfg.OpenMeteoBaseURL, cfg.FetchTimeout, logger, metrics)

	var publisher extract.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		p := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer p.Close()
		publisher = p
		logger.Info("stream mirroring enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	collector := extract.NewCollector(client, publisher, extract.Catalog(), *workers, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(*out), filepath.Base(*out)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp stream file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	summary, err := collector.Run(ctx, *startDate, *endDate, tmp)
	if err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close stream file: %w", err)
	}
	if err := os.Rename(tmp.Name(), *out); err != nil {
		return fmt.Errorf("publish stream file: %w", err)
	}

	logger.Info("unified stream written",
		"path", *out,
		"records", summary.Records,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed)
	return nil
}

func validatePeriod(startDate, endDate string) error {
	if startDate == "" || endDate == "" {
		return fmt.Errorf("missing required flags: -start-date, -end-date")
	}
	start, err := time.Parse(domain.DateLayout, startDate)
	if err != nil {
		return fmt.Errorf("invalid -start-date %q: want YYYY-MM-DD", startDate)
	}
	end, err := time.Parse(domain.DateLayout, endDate)
	if err != nil {
		return fmt.Errorf("invalid -end-date %q: want YYYY-MM-DD", endDate)
	}
	if end.Before(start) {
		return fmt.Errorf("-end-date %s is before -start-date %s", endDate, startDate)
	}
	return nil
}
