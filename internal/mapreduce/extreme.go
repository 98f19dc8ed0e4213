package mapreduce

import (
	"sort"

	"weather-mapreduce/internal/config"
	"weather-mapreduce/internal/domain"
)

// Risk labels emitted by the extreme weather job.
const (
	RiskLow      = "low"
	RiskModerate = "moderate"
	RiskHigh     = "high"
)

// MetricBaseline is the per-metric profile a location's anomalies are
// measured against.
type MetricBaseline struct {
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std_dev"`
	SampleCount int     `json:"sample_count"`
}

// ExtremeWeatherResult is one output row of the extreme weather job: the
// anomaly profile of one location.
type ExtremeWeatherResult struct {
	LocationID string `json:"location_id"`
	Country    string `json:"country"`

	RecordCount  int      `json:"record_count"`
	AnomalyCount int      `json:"anomaly_count"`
	AnomalyDates []string `json:"anomaly_dates"`

	// Baseline keys are the unified stream metric names.
	Baseline map[string]MetricBaseline `json:"baseline"`

	RiskLevel string `json:"risk_level"`
}

// ExtremeWeatherJob profiles each location's own history and flags days that
// deviate from it. A location is its own baseline, so a day that is ordinary
// in Medellín can be anomalous in Madrid.
type ExtremeWeatherJob struct {
	thresholds config.Thresholds
}

// NewExtremeWeatherJob creates the extreme weather job with the given bands.
func NewExtremeWeatherJob(thresholds config.Thresholds) *ExtremeWeatherJob {
	return &ExtremeWeatherJob{thresholds: thresholds}
}

func (j *ExtremeWeatherJob) Name() string { return "extreme_weather" }

func (j *ExtremeWeatherJob) Key(rec domain.WeatherRecord) string { return rec.LocationID }

// metricAccessors maps unified stream metric names to their record fields.
var metricAccessors = map[string]func(domain.WeatherRecord) *float64{
	"temperature_max":   func(r domain.WeatherRecord) *float64 { return r.TemperatureMax },
	"temperature_min":   func(r domain.WeatherRecord) *float64 { return r.TemperatureMin },
	"precipitation_sum": func(r domain.WeatherRecord) *float64 { return r.PrecipitationSum },
}

// baseline holds unrounded statistics; rounding happens only on output.
type baseline struct {
	mean   float64
	stdDev float64
	count  int
}

// Reduce runs two passes over the group: pass one computes each metric's mean
// and sample standard deviation, pass two flags records where any metric
// deviates from its mean by strictly more than sigma standard deviations.
// Groups with fewer than two records have no usable baseline and report zero
// anomalies.
func (j *ExtremeWeatherJob) Reduce(key string, group []domain.WeatherRecord) (any, error) {
	result := ExtremeWeatherResult{
		LocationID:   key,
		RecordCount:  len(group),
		AnomalyDates: []string{},
		Baseline:     make(map[string]MetricBaseline, len(metricAccessors)),
	}
	if len(group) > 0 {
		result.Country = group[0].Country
	}

	// Pass one.
	baselines := make(map[string]baseline, len(metricAccessors))
	for name, metric := range metricAccessors {
		var values []float64
		for _, rec := range group {
			if v := metric(rec); v != nil {
				values = append(values, *v)
			}
		}

		b := baseline{count: len(values)}
		if len(values) > 0 {
			b.mean = mean(values)
		}
		if len(values) >= 2 {
			b.stdDev = sampleStdDev(values)
		}
		baselines[name] = b

		result.Baseline[name] = MetricBaseline{
			Mean:        round2(b.mean),
			StdDev:      round2(b.stdDev),
			SampleCount: b.count,
		}
	}

	// Pass two.
	if len(group) >= 2 {
		for _, rec := range group {
			if j.isAnomalous(rec, baselines) {
				result.AnomalyCount++
				result.AnomalyDates = append(result.AnomalyDates, rec.Date)
			}
		}
		sort.Strings(result.AnomalyDates)
	}

	ratio := 0.0
	if result.RecordCount > 0 {
		ratio = float64(result.AnomalyCount) / float64(result.RecordCount)
	}
	result.RiskLevel = j.risk(ratio)

	return result, nil
}

func (j *ExtremeWeatherJob) isAnomalous(rec domain.WeatherRecord, baselines map[string]baseline) bool {
	for name, metric := range metricAccessors {
		v := metric(rec)
		if v == nil {
			continue
		}

		b := baselines[name]
		// A flat or single-sample metric cannot flag deviations.
		if b.count < 2 || b.stdDev == 0 {
			continue
		}

		deviation := *v - b.mean
		if deviation < 0 {
			deviation = -deviation
		}
		if deviation > j.thresholds.AnomalySigma*b.stdDev {
			return true
		}
	}
	return false
}

// risk bands are inclusive on the lower bound.
func (j *ExtremeWeatherJob) risk(anomalyRatio float64) string {
	switch {
	case anomalyRatio >= j.thresholds.RiskHighMinRatio:
		return RiskHigh
	case anomalyRatio >= j.thresholds.RiskModerateMinRatio:
		return RiskModerate
	default:
		return RiskLow
	}
}
