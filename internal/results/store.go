// Package results is the read side of the job part files: it maps job names
// to their output directories and decodes the aggregate rows the query
// service serves.
package results

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"weather-mapreduce/internal/domain"
	"weather-mapreduce/internal/mapreduce"
	"weather-mapreduce/internal/observability"
)

// ErrNotProduced means the job has not written its part file yet. Callers
// treat it as "no results", not as a failure.
var ErrNotProduced = errors.New("job output not produced")

// Row is one decoded aggregate from a part file. Rows pass through to API
// responses unchanged, so the store does not retype them per job.
type Row = map[string]any

// Store reads job part files from <baseDir>/<job>/part-00000.jsonl. Part
// files are static once a run publishes them, so every load reads from disk
// and a new run is picked up without restarting.
type Store struct {
	baseDir string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewStore creates a store rooted at baseDir, the directory holding one
// subdirectory per job.
func NewStore(baseDir string, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{baseDir: baseDir, logger: logger, metrics: metrics}
}

// Available reports whether the job's part file exists and is readable.
func (s *Store) Available(job string) bool {
	f, err := os.Open(s.partPath(job))
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// Load returns every aggregate row the job produced, in part-file order.
func (s *Store) Load(job string) ([]Row, error) {
	f, err := os.Open(s.partPath(job))
	if err != nil {
		if os.IsNotExist(err) {
			s.metrics.ResultLoads.WithLabelValues(job, "missing").Inc()
			return nil, fmt.Errorf("%w: %s", ErrNotProduced, job)
		}
		s.metrics.ResultLoads.WithLabelValues(job, "error").Inc()
		return nil, fmt.Errorf("open part file for %s: %w", job, err)
	}
	defer f.Close()

	var rows []Row
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var row Row
		if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
			s.metrics.ResultLoads.WithLabelValues(job, "error").Inc()
			return nil, fmt.Errorf("decode part file row for %s: %w", job, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		s.metrics.ResultLoads.WithLabelValues(job, "error").Inc()
		return nil, fmt.Errorf("read part file for %s: %w", job, err)
	}

	s.metrics.ResultLoads.WithLabelValues(job, "success").Inc()
	s.logger.Debug("loaded job results", "job", job, "rows", len(rows))
	return rows, nil
}

// LoadFiltered returns the job's rows whose keyField matches value under key
// normalization. An empty value returns every row.
func (s *Store) LoadFiltered(job, keyField, value string) ([]Row, error) {
	rows, err := s.Load(job)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return rows, nil
	}

	want := domain.NormalizeKey(value)
	filtered := make([]Row, 0, len(rows))
	for _, row := range rows {
		got, _ := row[keyField].(string)
		if domain.NormalizeKey(got) == want {
			filtered = append(filtered, row)
		}
	}
	return filtered, nil
}

func (s *Store) partPath(job string) string {
	return filepath.Join(s.baseDir, job, mapreduce.PartFileName)
}
