package mapreduce

import (
	"weather-mapreduce/internal/config"
	"weather-mapreduce/internal/domain"
)

// Comfort labels emitted by the temperature job.
const (
	ComfortCold      = "cold"
	ComfortMild      = "mild"
	ComfortHot       = "hot"
	ComfortUndefined = "undefined"
)

// TemperatureResult is one output row of the temperature job: maximum-
// temperature statistics for one climate zone.
type TemperatureResult struct {
	ClimateZone string `json:"climate_zone"`

	// RecordCount is every well-formed record in the group; SampleCount is
	// the subset with a non-null temperature_max that fed the statistics.
	RecordCount int `json:"record_count"`
	SampleCount int `json:"sample_count"`

	// Statistics are null when the group has no usable samples.
	MeanTemperatureMax *float64 `json:"mean_temperature_max"`
	MaxTemperatureMax  *float64 `json:"max_temperature_max"`
	MinTemperatureMax  *float64 `json:"min_temperature_max"`

	Comfort string `json:"comfort"`
}

// TemperatureJob aggregates temperature_max by climate zone and labels each
// zone's thermal comfort.
type TemperatureJob struct {
	thresholds config.Thresholds
}

// NewTemperatureJob creates the temperature job with the given bands.
func NewTemperatureJob(thresholds config.Thresholds) *TemperatureJob {
	return &TemperatureJob{thresholds: thresholds}
}

func (j *TemperatureJob) Name() string { return "temperature_analysis" }

func (j *TemperatureJob) Key(rec domain.WeatherRecord) string { return rec.ClimateZone }

func (j *TemperatureJob) Reduce(key string, group []domain.WeatherRecord) (any, error) {
	var samples []float64
	for _, rec := range group {
		if rec.TemperatureMax != nil {
			samples = append(samples, *rec.TemperatureMax)
		}
	}

	result := TemperatureResult{
		ClimateZone: key,
		RecordCount: len(group),
		SampleCount: len(samples),
		Comfort:     ComfortUndefined,
	}
	if len(samples) == 0 {
		return result, nil
	}

	m := mean(samples)
	mx, mn := samples[0], samples[0]
	for _, v := range samples[1:] {
		if v > mx {
			mx = v
		}
		if v < mn {
			mn = v
		}
	}

	result.MeanTemperatureMax = round2p(m)
	result.MaxTemperatureMax = round2p(mx)
	result.MinTemperatureMax = round2p(mn)
	result.Comfort = j.comfort(m)
	return result, nil
}

// comfort bands are inclusive on the lower bound: a mean exactly at the cold
// ceiling is mild, exactly at the hot floor is hot.
func (j *TemperatureJob) comfort(meanMax float64) string {
	switch {
	case meanMax < j.thresholds.ComfortColdMaxC:
		return ComfortCold
	case meanMax < j.thresholds.ComfortHotMinC:
		return ComfortMild
	default:
		return ComfortHot
	}
}
