package mapreduce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-mapreduce/internal/domain"
)

func precipRecord(country string, precip *float64) domain.WeatherRecord {
	return domain.WeatherRecord{
		LocationID:       "miami_usa",
		Date:             "2022-12-01",
		Country:          country,
		ClimateZone:      "tropical_subtropical",
		PrecipitationSum: precip,
	}
}

func TestPrecipitationJobReduce(t *testing.T) {
	job := NewPrecipitationJob(defaultThresholds())

	t.Run("splits rainy and dry days", func(t *testing.T) {
		group := []domain.WeatherRecord{
			precipRecord("USA", domain.Float64(0)),
			precipRecord("USA", domain.Float64(5)),
			precipRecord("USA", domain.Float64(0)),
			precipRecord("USA", domain.Float64(10)),
		}

		row, err := job.Reduce("usa", group)
		require.NoError(t, err)
		result := row.(PrecipitationResult)

		assert.Equal(t, "usa", result.Country)
		assert.Equal(t, 4, result.RecordCount)
		assert.Equal(t, 4, result.ObservedDays)
		assert.Equal(t, 15.0, result.TotalPrecipitationMM)
		require.NotNil(t, result.MeanDailyPrecipitation)
		assert.Equal(t, 3.75, *result.MeanDailyPrecipitation)
		// With the default cutoff at 0, a 0 mm day is dry, not rainy.
		assert.Equal(t, 2, result.RainyDays)
		assert.Equal(t, 2, result.DryDays)
	})

	t.Run("null precipitation counts as neither rainy nor dry", func(t *testing.T) {
		group := []domain.WeatherRecord{
			precipRecord("Japan", domain.Float64(3)),
			precipRecord("Japan", nil),
			precipRecord("Japan", domain.Float64(0)),
		}

		row, err := job.Reduce("japan", group)
		require.NoError(t, err)
		result := row.(PrecipitationResult)

		assert.Equal(t, 3, result.RecordCount)
		assert.Equal(t, 2, result.ObservedDays)
		assert.Equal(t, 1, result.RainyDays)
		assert.Equal(t, 1, result.DryDays)
		assert.Equal(t, 2, result.RainyDays+result.DryDays)
	})

	t.Run("all null group has no observations", func(t *testing.T) {
		group := []domain.WeatherRecord{
			precipRecord("Spain", nil),
			precipRecord("Spain", nil),
		}

		row, err := job.Reduce("spain", group)
		require.NoError(t, err)
		result := row.(PrecipitationResult)

		assert.Equal(t, 2, result.RecordCount)
		assert.Equal(t, 0, result.ObservedDays)
		assert.Equal(t, 0.0, result.TotalPrecipitationMM)
		assert.Nil(t, result.MeanDailyPrecipitation)
		assert.Equal(t, HumidityUndefined, result.Humidity)
	})

	t.Run("configurable rainy cutoff", func(t *testing.T) {
		thresholds := defaultThresholds()
		thresholds.RainyDayMinPrecipMM = 1.0
		job := NewPrecipitationJob(thresholds)

		group := []domain.WeatherRecord{
			precipRecord("USA", domain.Float64(0.5)),
			precipRecord("USA", domain.Float64(1.0)),
			precipRecord("USA", domain.Float64(1.5)),
		}

		row, err := job.Reduce("usa", group)
		require.NoError(t, err)
		result := row.(PrecipitationResult)

		// The cutoff is exclusive: exactly 1.0 mm is still dry.
		assert.Equal(t, 1, result.RainyDays)
		assert.Equal(t, 2, result.DryDays)
	})

	t.Run("humidity bands from rainy ratio", func(t *testing.T) {
		tests := []struct {
			name     string
			rainy    int
			dry      int
			expected string
		}{
			{"all rainy", 10, 0, HumidityVeryHumid},
			{"exactly very humid floor", 6, 4, HumidityVeryHumid},
			{"exactly humid floor", 4, 6, HumidityHumid},
			{"exactly moderate floor", 3, 17, HumidityModerate},
			{"below moderate floor", 1, 9, HumidityArid},
			{"no rain at all", 0, 10, HumidityArid},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var group []domain.WeatherRecord
				for i := 0; i < tt.rainy; i++ {
					group = append(group, precipRecord("X", domain.Float64(5)))
				}
				for i := 0; i < tt.dry; i++ {
					group = append(group, precipRecord("X", domain.Float64(0)))
				}

				row, err := job.Reduce("x", group)
				require.NoError(t, err)
				assert.Equal(t, tt.expected, row.(PrecipitationResult).Humidity)
			})
		}
	})
}
