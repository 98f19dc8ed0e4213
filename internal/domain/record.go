package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used throughout the unified stream.
const DateLayout = "2006-01-02"

// WeatherRecord is one daily observation for one location, as carried by the
// unified record stream. The JSON field names are an external contract shared
// by the collector, all three aggregation jobs, and the query service.
//
// The three metric fields are pointers: an absent or null value means the
// upstream archive has a gap for that day. Aggregations must exclude nulls
// from statistics rather than treat them as zero.
type WeatherRecord struct {
	LocationID  string `json:"location_id"`
	Date        string `json:"date"` // YYYY-MM-DD
	Country     string `json:"country"`
	ClimateZone string `json:"climate_zone"`

	TemperatureMax   *float64 `json:"temperature_max"`
	TemperatureMin   *float64 `json:"temperature_min"`
	PrecipitationSum *float64 `json:"precipitation_sum"`
}

// ParseRecordLine decodes a single line of the unified JSONL stream.
// A line is malformed when it is not valid JSON, or when it lacks the
// identifying fields (location_id, date) every record must carry.
func ParseRecordLine(line []byte) (WeatherRecord, error) {
	var rec WeatherRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return WeatherRecord{}, fmt.Errorf("parse record line: %w", err)
	}

	rec.LocationID = strings.TrimSpace(rec.LocationID)
	rec.Date = strings.TrimSpace(rec.Date)

	if rec.LocationID == "" {
		return WeatherRecord{}, fmt.Errorf("parse record line: missing location_id")
	}
	if _, err := time.Parse(DateLayout, rec.Date); err != nil {
		return WeatherRecord{}, fmt.Errorf("parse record line: invalid date %q", rec.Date)
	}

	return rec, nil
}

// EncodeRecordLine serializes a record as one line of the unified stream,
// without a trailing newline.
func EncodeRecordLine(rec WeatherRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record line: %w", err)
	}
	return data, nil
}

// NormalizeKey canonicalizes a grouping key: trimmed, lower-cased, inner
// whitespace collapsed to single underscores. Grouping and query filtering
// both go through this, so "Tropical Mountain" and "tropical_mountain"
// land in the same group.
func NormalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.Join(strings.Fields(key), "_")
}

// TemperatureRange returns the daily max-min spread, or nil when either
// bound is missing.
func (r WeatherRecord) TemperatureRange() *float64 {
	if r.TemperatureMax == nil || r.TemperatureMin == nil {
		return nil
	}
	d := *r.TemperatureMax - *r.TemperatureMin
	return &d
}

// Float64 is a convenience for building optional metric values in tests
// and fixtures.
func Float64(v float64) *float64 { return &v }
