package mapreduce

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-mapreduce/internal/observability"
)

func newTestRunner() *Runner {
	return NewRunner(slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func writeInput(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unified_weather_data.jsonl")
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readPartFile(t *testing.T, outputDir string) []map[string]any {
	t.Helper()
	f, err := os.Open(filepath.Join(outputDir, PartFileName))
	require.NoError(t, err)
	defer f.Close()

	var rows []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var row map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &row))
		rows = append(rows, row)
	}
	require.NoError(t, scanner.Err())
	return rows
}

func TestRunnerRun(t *testing.T) {
	t.Run("groups by normalized key and sorts output", func(t *testing.T) {
		input := writeInput(t,
			`{"location_id":"tokyo_japan","date":"2022-12-01","climate_zone":"humid_subtropical","temperature_max":14.0}`,
			`{"location_id":"medellin_colombia","date":"2022-12-01","climate_zone":"tropical_mountain","temperature_max":27.5}`,
			`{"location_id":"tokyo_japan","date":"2022-12-02","climate_zone":"Humid  Subtropical","temperature_max":13.0}`,
		)
		outputDir := t.TempDir()
		runner := newTestRunner()

		summary, err := runner.Run(NewTemperatureJob(defaultThresholds()), input, outputDir)

		require.NoError(t, err)
		assert.Equal(t, 3, summary.LinesRead)
		assert.Equal(t, 0, summary.Malformed)
		assert.Equal(t, 2, summary.GroupsEmitted)

		rows := readPartFile(t, outputDir)
		require.Len(t, rows, 2)
		// Sorted by group key: humid_subtropical before tropical_mountain.
		assert.Equal(t, "humid_subtropical", rows[0]["climate_zone"])
		assert.Equal(t, float64(2), rows[0]["record_count"])
		assert.Equal(t, "tropical_mountain", rows[1]["climate_zone"])
	})

	t.Run("skips malformed lines without failing", func(t *testing.T) {
		input := writeInput(t,
			`{"location_id":"tokyo_japan","date":"2022-12-01","climate_zone":"humid_subtropical","temperature_max":14.0}`,
			`{not json`,
			`{"date":"2022-12-01","climate_zone":"no_location"}`,
			`{"location_id":"tokyo_japan","date":"2022-12-02","climate_zone":"humid_subtropical","temperature_max":13.0}`,
		)
		outputDir := t.TempDir()

		summary, err := newTestRunner().Run(NewTemperatureJob(defaultThresholds()), input, outputDir)

		require.NoError(t, err)
		assert.Equal(t, 4, summary.LinesRead)
		assert.Equal(t, 2, summary.Malformed)
		assert.Equal(t, 1, summary.GroupsEmitted)
	})

	t.Run("records without the grouping key are excluded", func(t *testing.T) {
		input := writeInput(t,
			`{"location_id":"tokyo_japan","date":"2022-12-01","climate_zone":"humid_subtropical","temperature_max":14.0}`,
			`{"location_id":"somewhere","date":"2022-12-01","temperature_max":9.9}`,
		)
		outputDir := t.TempDir()

		summary, err := newTestRunner().Run(NewTemperatureJob(defaultThresholds()), input, outputDir)

		require.NoError(t, err)
		assert.Equal(t, 2, summary.LinesRead)
		assert.Equal(t, 0, summary.Malformed)
		assert.Equal(t, 1, summary.GroupsEmitted)
	})

	t.Run("empty input produces an empty part file", func(t *testing.T) {
		input := writeInput(t)
		outputDir := t.TempDir()

		summary, err := newTestRunner().Run(NewTemperatureJob(defaultThresholds()), input, outputDir)

		require.NoError(t, err)
		assert.Equal(t, 0, summary.LinesRead)
		assert.Equal(t, 0, summary.GroupsEmitted)

		info, err := os.Stat(filepath.Join(outputDir, PartFileName))
		require.NoError(t, err)
		assert.Zero(t, info.Size())
	})

	t.Run("missing input fails without creating output", func(t *testing.T) {
		outputDir := t.TempDir()

		_, err := newTestRunner().Run(NewTemperatureJob(defaultThresholds()), filepath.Join(t.TempDir(), "nope.jsonl"), outputDir)

		require.Error(t, err)
		_, statErr := os.Stat(filepath.Join(outputDir, PartFileName))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("creates the output directory", func(t *testing.T) {
		input := writeInput(t,
			`{"location_id":"tokyo_japan","date":"2022-12-01","climate_zone":"humid_subtropical","temperature_max":14.0}`,
		)
		outputDir := filepath.Join(t.TempDir(), "output", "temperature_analysis")

		_, err := newTestRunner().Run(NewTemperatureJob(defaultThresholds()), input, outputDir)

		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(outputDir, PartFileName))
	})

	t.Run("identical input yields identical part files", func(t *testing.T) {
		lines := []string{
			`{"location_id":"miami_usa","date":"2022-12-01","country":"USA","precipitation_sum":3.2}`,
			`{"location_id":"madrid_espana","date":"2022-12-01","country":"Spain","precipitation_sum":0.0}`,
			`{"location_id":"tokyo_japan","date":"2022-12-01","country":"Japan","precipitation_sum":null}`,
		}
		job := NewPrecipitationJob(defaultThresholds())

		dirA, dirB := t.TempDir(), t.TempDir()
		_, err := newTestRunner().Run(job, writeInput(t, lines...), dirA)
		require.NoError(t, err)
		_, err = newTestRunner().Run(job, writeInput(t, lines...), dirB)
		require.NoError(t, err)

		a, err := os.ReadFile(filepath.Join(dirA, PartFileName))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dirB, PartFileName))
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.NotEmpty(t, a)
	})

	t.Run("no leftover temp files after a run", func(t *testing.T) {
		input := writeInput(t,
			`{"location_id":"tokyo_japan","date":"2022-12-01","climate_zone":"humid_subtropical","temperature_max":14.0}`,
		)
		outputDir := t.TempDir()

		_, err := newTestRunner().Run(NewTemperatureJob(defaultThresholds()), input, outputDir)
		require.NoError(t, err)

		entries, err := os.ReadDir(outputDir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, PartFileName, entries[0].Name())
	})
}
