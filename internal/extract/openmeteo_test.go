package extract

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-mapreduce/internal/observability"
)

func testLocation() Location {
	return Location{
		ID:          "madrid_espana",
		Latitude:    40.42,
		Longitude:   -3.70,
		Timezone:    "Europe/Madrid",
		Country:     "Spain",
		ClimateZone: "continental_mediterranean",
	}
}

func newTestClient(t *testing.T, baseURL string) *OpenMeteoClient {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOpenMeteoClient(baseURL, 5*time.Second, logger, observability.NewMetricsForTesting())
}

func TestFetchDaily(t *testing.T) {
	t.Run("flattens archive arrays into records", func(t *testing.T) {
		var gotQuery map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = map[string]string{
				"latitude":   r.URL.Query().Get("latitude"),
				"longitude":  r.URL.Query().Get("longitude"),
				"start_date": r.URL.Query().Get("start_date"),
				"end_date":   r.URL.Query().Get("end_date"),
				"daily":      r.URL.Query().Get("daily"),
				"timezone":   r.URL.Query().Get("timezone"),
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"daily": {
					"time": ["2022-12-01", "2022-12-02", "2022-12-03"],
					"temperature_2m_max": [12.4, null, 10.1],
					"temperature_2m_min": [3.1, 2.0, null],
					"precipitation_sum": [0.2, 5.5, 0.0]
				}
			}`))
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		records, err := client.FetchDaily(context.Background(), testLocation(), "2022-12-01", "2022-12-03")

		require.NoError(t, err)
		require.Len(t, records, 3)

		assert.Equal(t, "40.42", gotQuery["latitude"])
		assert.Equal(t, "-3.70", gotQuery["longitude"])
		assert.Equal(t, "2022-12-01", gotQuery["start_date"])
		assert.Equal(t, "2022-12-03", gotQuery["end_date"])
		assert.Equal(t, "temperature_2m_max,temperature_2m_min,precipitation_sum", gotQuery["daily"])
		assert.Equal(t, "Europe/Madrid", gotQuery["timezone"])

		first := records[0]
		assert.Equal(t, "madrid_espana", first.LocationID)
		assert.Equal(t, "2022-12-01", first.Date)
		assert.Equal(t, "Spain", first.Country)
		assert.Equal(t, "continental_mediterranean", first.ClimateZone)
		require.NotNil(t, first.TemperatureMax)
		assert.Equal(t, 12.4, *first.TemperatureMax)

		// Archive gaps arrive as nulls and must stay nil, never zero.
		assert.Nil(t, records[1].TemperatureMax)
		assert.Nil(t, records[2].TemperatureMin)
		require.NotNil(t, records[2].PrecipitationSum)
		assert.Equal(t, 0.0, *records[2].PrecipitationSum)
	})

	t.Run("tolerates metric arrays shorter than time array", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
				"daily": {
					"time": ["2022-12-01", "2022-12-02"],
					"temperature_2m_max": [12.4],
					"temperature_2m_min": [],
					"precipitation_sum": [0.2, 1.1]
				}
			}`))
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		records, err := client.FetchDaily(context.Background(), testLocation(), "2022-12-01", "2022-12-02")

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Nil(t, records[1].TemperatureMax)
		assert.Nil(t, records[0].TemperatureMin)
		require.NotNil(t, records[1].PrecipitationSum)
	})

	t.Run("empty period yields no records", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"daily": {"time": []}}`))
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		records, err := client.FetchDaily(context.Background(), testLocation(), "2022-12-01", "2022-12-01")

		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		_, err := client.FetchDaily(context.Background(), testLocation(), "2022-12-01", "2022-12-01")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode")
	})
}

func newTestBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "test",
		MaxRequests: 5,
		// High trip threshold so retry tests exercise backoff, not the breaker.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 50
		},
	})
}

func TestDoRequestWithResilience_RetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	cfg := HTTPClientConfig{
		Client: server.Client(),
		Backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
		},
	}
	cb := newTestBreaker()

	resp, err := doRequestWithResilience(context.Background(), cfg, cb, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, server.URL, nil)
	})

	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 3, calls)
}

func TestDoRequestWithResilience_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := HTTPClientConfig{
		Client: server.Client(),
		Backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: time.Millisecond,
		},
	}

	_, err := doRequestWithResilience(ctx, cfg, newTestBreaker(), func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, server.URL, nil)
	})

	require.ErrorIs(t, err, context.Canceled)
}
