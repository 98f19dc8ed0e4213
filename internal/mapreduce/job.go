package mapreduce

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"weather-mapreduce/internal/domain"
	"weather-mapreduce/internal/observability"
)

// PartFileName is the single output shard every job writes. The jobs run as
// local batch processes, so there is exactly one part per run.
const PartFileName = "part-00000.jsonl"

// Job is one group-by aggregation over the unified record stream. Key
// extracts the grouping key from a record (empty means the record does not
// participate); Reduce turns one group into one output row.
type Job interface {
	Name() string
	Key(rec domain.WeatherRecord) string
	Reduce(key string, group []domain.WeatherRecord) (any, error)
}

// RunSummary reports what one job run consumed and produced.
type RunSummary struct {
	LinesRead     int
	Malformed     int
	GroupsEmitted int
}

// Runner executes jobs over a JSONL input file.
type Runner struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRunner creates a job runner.
func NewRunner(logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{logger: logger, metrics: metrics}
}

// Run streams inputPath through the job and writes the aggregated groups to
// <outputDir>/part-00000.jsonl, one JSON row per group, sorted by group key
// so identical inputs produce identical bytes. Malformed lines are skipped
// and counted, never fatal. The part file appears atomically via a temp-file
// rename; a failed run leaves no partial output. An empty input is a valid
// run that produces an empty part file.
func (r *Runner) Run(job Job, inputPath, outputDir string) (RunSummary, error) {
	start := time.Now()
	defer func() {
		r.metrics.JobDuration.WithLabelValues(job.Name()).Observe(time.Since(start).Seconds())
	}()

	groups, summary, err := r.collectGroups(job, inputPath)
	if err != nil {
		return summary, err
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return summary, fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(outputDir, PartFileName+".tmp-*")
	if err != nil {
		return summary, fmt.Errorf("create temp part file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := bufio.NewWriter(tmp)
	for _, key := range keys {
		row, err := job.Reduce(key, groups[key])
		if err != nil {
			return summary, fmt.Errorf("reduce group %q: %w", key, err)
		}
		line, err := json.Marshal(row)
		if err != nil {
			return summary, fmt.Errorf("encode group %q: %w", key, err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return summary, fmt.Errorf("write part file: %w", err)
		}
		summary.GroupsEmitted++
	}
	if err := w.Flush(); err != nil {
		return summary, fmt.Errorf("flush part file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return summary, fmt.Errorf("close part file: %w", err)
	}

	partPath := filepath.Join(outputDir, PartFileName)
	if err := os.Rename(tmp.Name(), partPath); err != nil {
		return summary, fmt.Errorf("publish part file: %w", err)
	}

	r.metrics.JobGroupsEmitted.WithLabelValues(job.Name()).Add(float64(summary.GroupsEmitted))
	r.logger.Info("job run complete",
		"job", job.Name(),
		"lines_read", summary.LinesRead,
		"malformed", summary.Malformed,
		"groups", summary.GroupsEmitted,
		"part_file", partPath)

	return summary, nil
}

func (r *Runner) collectGroups(job Job, inputPath string) (map[string][]domain.WeatherRecord, RunSummary, error) {
	var summary RunSummary

	f, err := os.Open(inputPath)
	if err != nil {
		return nil, summary, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	groups := make(map[string][]domain.WeatherRecord)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		summary.LinesRead++
		r.metrics.JobLinesRead.WithLabelValues(job.Name()).Inc()

		rec, err := domain.ParseRecordLine(line)
		if err != nil {
			summary.Malformed++
			r.metrics.JobMalformedRows.WithLabelValues(job.Name()).Inc()
			r.logger.Warn("skipping malformed line", "job", job.Name(), "line", summary.LinesRead, "error", err)
			continue
		}

		key := domain.NormalizeKey(job.Key(rec))
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, summary, fmt.Errorf("read input: %w", err)
	}

	return groups, summary, nil
}
