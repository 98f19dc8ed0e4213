// Command temperature-job aggregates the unified record stream by climate
// zone: maximum-temperature statistics plus a thermal comfort label per zone.
//
// Usage:
//
//	go run ./cmd/temperature-job data/input/unified_weather_data.jsonl
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"weather-mapreduce/internal/config"
	"weather-mapreduce/internal/mapreduce"
	"weather-mapreduce/internal/observability"
)

func main() {
	if err := run(); err != nil {
		slog.Error("temperature job failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	outputDir := flag.String("output-dir", filepath.Join(cfg.DataDir, "output", "temperature_analysis"), "directory for the part file")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return fmt.Errorf("expected exactly one input file argument")
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	runner := mapreduce.NewRunner(logger, metrics)
	summary, err := runner.Run(mapreduce.NewTemperatureJob(cfg.Thresholds), flag.Arg(0), *outputDir)
	if err != nil {
		return err
	}

	logger.Info("temperature analysis written",
		"output_dir", *outputDir,
		"lines_read", summary.LinesRead,
		"malformed", summary.Malformed,
		"zones", summary.GroupsEmitted)
	return nil
}
