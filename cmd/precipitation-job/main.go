// Command precipitation-job aggregates the unified record stream by country:
// precipitation totals, the rainy/dry day split, and a humidity label per
// country.
//
// Usage:
//
//	go run ./cmd/precipitation-job data/input/unified_weather_data.jsonl
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
		slog.Error("precipitation job failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	outputDir := flag.String("output-dir", filepath.Join(cfg.DataDir, "output", "precipitation_analysis"), "directory for the part file")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return fmt.Errorf("expected exactly one input file argument")
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	runner := mapreduce.NewRunner(logger, metrics)
	summary, err := runner.Run(mapreduce.NewPrecipitationJob(cfg.Thresholds), flag.Arg(0), *outputDir)
	if err != nil {
		return err
	}

	logger.Info("precipitation analysis written",
		"output_dir", *outputDir,
		"lines_read", summary.LinesRead,
		"malformed", summary.Malformed,
		"countries", summary.GroupsEmitted)
	return nil
}
