package mapreduce

import (
	"weather-mapreduce/internal/config"
	"weather-mapreduce/internal/domain"
)

// Humidity labels emitted by the precipitation job.
const (
	HumidityVeryHumid = "very_humid"
	HumidityHumid     = "humid"
	HumidityModerate  = "moderate"
	HumidityArid      = "arid"
	HumidityUndefined = "undefined"
)

// PrecipitationResult is one output row of the precipitation job:
// precipitation totals and the rainy/dry day split for one country.
type PrecipitationResult struct {
	Country string `json:"country"`

	// RecordCount is every well-formed record in the group; ObservedDays is
	// the subset with a non-null precipitation_sum.
	RecordCount  int `json:"record_count"`
	ObservedDays int `json:"observed_days"`

	TotalPrecipitationMM   float64  `json:"total_precipitation_mm"`
	MeanDailyPrecipitation *float64 `json:"mean_daily_precipitation"`

	// Rainy and dry partition the observed days; days with a null
	// precipitation value fall in neither bucket.
	RainyDays int `json:"rainy_days"`
	DryDays   int `json:"dry_days"`

	Humidity string `json:"humidity"`
}

// PrecipitationJob aggregates precipitation_sum by country and classifies
// each country's humidity from its rainy-day ratio.
type PrecipitationJob struct {
	thresholds config.Thresholds
}

// NewPrecipitationJob creates the precipitation job with the given bands.
func NewPrecipitationJob(thresholds config.Thresholds) *PrecipitationJob {
	return &PrecipitationJob{thresholds: thresholds}
}

func (j *PrecipitationJob) Name() string { return "precipitation_analysis" }

func (j *PrecipitationJob) Key(rec domain.WeatherRecord) string { return rec.Country }

func (j *PrecipitationJob) Reduce(key string, group []domain.WeatherRecord) (any, error) {
	result := PrecipitationResult{
		Country:  key,
		Humidity: HumidityUndefined,
	}
	result.RecordCount = len(group)

	var total float64
	for _, rec := range group {
		if rec.PrecipitationSum == nil {
			continue
		}
		result.ObservedDays++
		total += *rec.PrecipitationSum
		if *rec.PrecipitationSum > j.thresholds.RainyDayMinPrecipMM {
			result.RainyDays++
		} else {
			result.DryDays++
		}
	}

	result.TotalPrecipitationMM = round2(total)
	if result.ObservedDays > 0 {
		result.MeanDailyPrecipitation = round2p(total / float64(result.ObservedDays))
		result.Humidity = j.humidity(float64(result.RainyDays) / float64(result.ObservedDays))
	}

	return result, nil
}

// humidity bands are inclusive on the lower bound.
func (j *PrecipitationJob) humidity(rainyRatio float64) string {
	switch {
	case rainyRatio >= j.thresholds.HumidityVeryHumidMinRatio:
		return HumidityVeryHumid
	case rainyRatio >= j.thresholds.HumidityHumidMinRatio:
		return HumidityHumid
	case rainyRatio >= j.thresholds.HumidityModerateMinRatio:
		return HumidityModerate
	default:
		return HumidityArid
	}
}
