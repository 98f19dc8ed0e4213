package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"weather-mapreduce/internal/domain"
	"weather-mapreduce/internal/observability"
)

// Fetcher retrieves the daily history for one location.
type Fetcher interface {
	FetchDaily(ctx context.Context, loc Location, startDate, endDate string) ([]domain.WeatherRecord, error)
}

// Publisher mirrors collected records to a streaming sink. A nil Publisher
// disables mirroring.
type Publisher interface {
	Publish(ctx context.Context, records []domain.WeatherRecord) error
}

// ErrAllLocationsFailed is returned when no location produced any data.
var ErrAllLocationsFailed = errors.New("all locations failed")

// Summary reports the outcome of one collection run.
type Summary struct {
	Succeeded []string
	Failed    []string
	Records   int
}

// Collector fetches all catalog locations in parallel and concatenates their
// daily records into the unified JSONL stream.
type Collector struct {
	fetcher   Fetcher
	publisher Publisher
	locations []Location
	workers   int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewCollector creates a collector over the given locations. workers bounds
// concurrent fetches; values below 1 are clamped to 1.
func NewCollector(fetcher Fetcher, publisher Publisher, locations []Location, workers int, logger *slog.Logger, metrics *observability.Metrics) *Collector {
	if workers < 1 {
		workers = 1
	}
	return &Collector{
		fetcher:   fetcher,
		publisher: publisher,
		locations: locations,
		workers:   workers,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run fetches [startDate, endDate] for every location and writes the unified
// stream to w, one JSON record per line. Failed locations are logged and
// skipped; the stream is still written in catalog order so output is
// deterministic for a given set of successes. Run fails only when every
// location fails or the stream cannot be written.
func (c *Collector) Run(ctx context.Context, startDate, endDate string, w io.Writer) (Summary, error) {
	c.metrics.CollectorRunning.Set(1)
	defer c.metrics.CollectorRunning.Set(0)

	c.logger.Info("starting collection run",
		"start_date", startDate,
		"end_date", endDate,
		"locations", len(c.locations),
		"workers", c.workers)

	byLocation := make(map[string][]domain.WeatherRecord, len(c.locations))
	var failed []string
	var mu sync.Mutex

	sem := make(chan struct{}, c.workers)
	var wg sync.WaitGroup
	for _, loc := range c.locations {
		wg.Add(1)
		go func(loc Location) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			records, err := c.fetcher.FetchDaily(ctx, loc, startDate, endDate)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.logger.Error("location fetch failed", "location", loc.ID, "error", err)
				failed = append(failed, loc.ID)
				return
			}
			byLocation[loc.ID] = records
		}(loc)
	}
	wg.Wait()

	if len(byLocation) == 0 {
		return Summary{Failed: failed}, ErrAllLocationsFailed
	}

	summary := Summary{Failed: failed}
	var collected []domain.WeatherRecord
	for _, loc := range c.locations {
		records, ok := byLocation[loc.ID]
		if !ok {
			continue
		}
		summary.Succeeded = append(summary.Succeeded, loc.ID)

		for _, rec := range records {
			line, err := domain.EncodeRecordLine(rec)
			if err != nil {
				return summary, fmt.Errorf("encode record for %s: %w", loc.ID, err)
			}
			if _, err := w.Write(append(line, '\n')); err != nil {
				return summary, fmt.Errorf("write unified stream: %w", err)
			}
		}

		summary.Records += len(records)
		collected = append(collected, records...)
	}
	c.metrics.RecordsCollected.Add(float64(summary.Records))

	if c.publisher != nil {
		if err := c.publisher.Publish(ctx, collected); err != nil {
			// The stream on disk is the source of truth; a mirror failure
			// does not fail the run.
			c.logger.Error("stream mirror publish failed", "error", err)
		} else {
			c.metrics.RecordsPublished.Add(float64(len(collected)))
		}
	}

	c.logger.Info("collection run complete",
		"records", summary.Records,
		"succeeded", len(summary.Succeeded),
		"failed", len(summary.Failed))

	return summary, nil
}
