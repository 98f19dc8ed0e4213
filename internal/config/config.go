package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
// The same Config feeds the collector, the three aggregation jobs, and the
// query service; each binary reads the subset it needs.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// DataDir is the root of the flat-file layout: the unified stream lives
	// under <DataDir>/input, job part files under <DataDir>/output/<job>.
	DataDir string

	// Open-Meteo archive client settings.
	OpenMeteoBaseURL string
	FetchTimeout     time.Duration

	// Optional Kafka mirror of the unified record stream. Empty brokers
	// disable publishing.
	KafkaBrokers []string
	KafkaTopic   string

	Thresholds Thresholds
}

// Thresholds are the classification constants used by the aggregation jobs.
// They are configuration, not derived values, so boundary behavior stays
// auditable and testable in isolation. All bands are inclusive on their
// lower bound.
type Thresholds struct {
	// Thermal comfort bands over the group mean of temperature_max (°C):
	// mean < ComfortColdMaxC is "cold", mean >= ComfortHotMinC is "hot",
	// anything between is "mild".
	ComfortColdMaxC float64
	ComfortHotMinC  float64

	// A day counts as rainy when precipitation_sum exceeds this value (mm).
	RainyDayMinPrecipMM float64

	// Humidity bands over the rainy-day ratio rainy/(rainy+dry).
	HumidityVeryHumidMinRatio float64
	HumidityHumidMinRatio     float64
	HumidityModerateMinRatio  float64

	// A record is anomalous when a metric deviates from its location mean by
	// more than this many sample standard deviations.
	AnomalySigma float64

	// Risk bands over the anomaly ratio anomalies/record_count.
	RiskHighMinRatio     float64
	RiskModerateMinRatio float64
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	// Missing .env is the normal case in production; only explicit settings matter.
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	thresholds, err := loadThresholds()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataDir: envOrDefault("DATA_DIR", "data"),

		OpenMeteoBaseURL: envOrDefault("OPENMETEO_BASE_URL", "https://archive-api.open-meteo.com/v1/archive"),
		FetchTimeout:     fetchTimeout,

		KafkaBrokers: parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "unified-weather-records"),

		Thresholds: thresholds,
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR must not be empty")
	}
	if cfg.OpenMeteoBaseURL == "" {
		return nil, errors.New("OPENMETEO_BASE_URL must not be empty")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

func loadThresholds() (Thresholds, error) {
	t := Thresholds{}

	var err error
	load := func(dst *float64, key string, def float64) {
		if err != nil {
			return
		}
		*dst, err = parseFloat(key, def)
	}

	load(&t.ComfortColdMaxC, "COMFORT_COLD_MAX_C", 15)
	load(&t.ComfortHotMinC, "COMFORT_HOT_MIN_C", 25)
	load(&t.RainyDayMinPrecipMM, "RAINY_DAY_MIN_PRECIP_MM", 0)
	load(&t.HumidityVeryHumidMinRatio, "HUMIDITY_VERY_HUMID_MIN_RATIO", 0.60)
	load(&t.HumidityHumidMinRatio, "HUMIDITY_HUMID_MIN_RATIO", 0.40)
	load(&t.HumidityModerateMinRatio, "HUMIDITY_MODERATE_MIN_RATIO", 0.15)
	load(&t.AnomalySigma, "ANOMALY_SIGMA", 2.0)
	load(&t.RiskHighMinRatio, "RISK_HIGH_MIN_RATIO", 0.15)
	load(&t.RiskModerateMinRatio, "RISK_MODERATE_MIN_RATIO", 0.05)
	if err != nil {
		return Thresholds{}, err
	}

	if t.ComfortColdMaxC >= t.ComfortHotMinC {
		return Thresholds{}, errors.New("COMFORT_COLD_MAX_C must be below COMFORT_HOT_MIN_C")
	}
	if t.RainyDayMinPrecipMM < 0 {
		return Thresholds{}, errors.New("RAINY_DAY_MIN_PRECIP_MM must not be negative")
	}
	if t.AnomalySigma <= 0 {
		return Thresholds{}, errors.New("ANOMALY_SIGMA must be positive")
	}
	if t.RiskModerateMinRatio > t.RiskHighMinRatio {
		return Thresholds{}, errors.New("RISK_MODERATE_MIN_RATIO must not exceed RISK_HIGH_MIN_RATIO")
	}

	return t, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

func parseBrokers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
