package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"weather-mapreduce/internal/domain"
	"weather-mapreduce/internal/observability"
)

// dailyParams are the archive variables requested for every location.
const dailyParams = "temperature_2m_max,temperature_2m_min,precipitation_sum"

// OpenMeteoClient fetches daily weather history from the Open-Meteo archive
// API and flattens it into unified stream records.
type OpenMeteoClient struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewOpenMeteoClient creates an archive client. baseURL is overridable so
// tests can point at a local server.
func NewOpenMeteoClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *OpenMeteoClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo-archive",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenMeteoClient{
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client: &http.Client{Timeout: timeout},
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
		logger:  logger,
		metrics: metrics,
	}
}

// archiveResponse mirrors the daily block of an archive API reply. Metric
// arrays use pointers because the archive reports gaps as JSON nulls.
type archiveResponse struct {
	Daily struct {
		Time             []string   `json:"time"`
		TemperatureMax   []*float64 `json:"temperature_2m_max"`
		TemperatureMin   []*float64 `json:"temperature_2m_min"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// FetchDaily returns one record per day in [startDate, endDate] for the
// location, in the order the archive reports them. Days the archive has no
// value for keep nil metrics.
func (c *OpenMeteoClient) FetchDaily(ctx context.Context, loc Location, startDate, endDate string) ([]domain.WeatherRecord, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 2, 64))
		values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 2, 64))
		values.Set("start_date", startDate)
		values.Set("end_date", endDate)
		values.Set("daily", dailyParams)
		values.Set("timezone", loc.Timezone)

		return http.NewRequest(http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
	}

	start := time.Now()
	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	c.metrics.FetchDuration.WithLabelValues(loc.ID).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(loc.ID, "error").Inc()
		return nil, fmt.Errorf("fetch %s: %w", loc.ID, err)
	}
	defer resp.Body.Close()

	var payload archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.metrics.FetchRequests.WithLabelValues(loc.ID, "error").Inc()
		return nil, fmt.Errorf("decode %s response: %w", loc.ID, err)
	}
	c.metrics.FetchRequests.WithLabelValues(loc.ID, "success").Inc()

	records := make([]domain.WeatherRecord, 0, len(payload.Daily.Time))
	for i, date := range payload.Daily.Time {
		records = append(records, domain.WeatherRecord{
			LocationID:       loc.ID,
			Date:             date,
			Country:          loc.Country,
			ClimateZone:      loc.ClimateZone,
			TemperatureMax:   metricAt(payload.Daily.TemperatureMax, i),
			TemperatureMin:   metricAt(payload.Daily.TemperatureMin, i),
			PrecipitationSum: metricAt(payload.Daily.PrecipitationSum, i),
		})
	}

	c.logger.Debug("fetched location history",
		"location", loc.ID,
		"start_date", startDate,
		"end_date", endDate,
		"records", len(records))

	return records, nil
}

// metricAt tolerates metric arrays shorter than the time array.
func metricAt(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
