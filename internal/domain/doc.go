// Package domain models daily weather observations from the Open-Meteo
// historical archive.
//
// # Data Source
//
// Observations come from the Open-Meteo archive API
// (https://archive-api.open-meteo.com/v1/archive), which returns per-day
// arrays of temperature_2m_max, temperature_2m_min, and precipitation_sum for
// a coordinate pair. The collector flattens those arrays into one JSON object
// per day per city and concatenates all cities into a single line-delimited
// stream, the "unified record stream".
//
// # Unified stream conventions
//
// Field names (location_id, date, country, climate_zone, temperature_max,
// temperature_min, precipitation_sum) are an external contract: the three
// aggregation jobs and the query service all consume them, so a rename here
// must be mirrored everywhere.
//
// location_id is a stable city slug such as "madrid_espana". date is a
// YYYY-MM-DD calendar date, unique per location within one stream. The three
// metric fields may be null on days where the archive has a gap; consumers
// must exclude nulls from statistics rather than substitute zero.
//
// # Grouping keys
//
// Jobs group by climate_zone, country, or location_id. Keys are compared
// after [NormalizeKey]: lower-cased, trimmed, inner whitespace collapsed to
// underscores.
package domain
