package extract

// Location is one city tracked by the collector. ID doubles as the
// location_id value on every record emitted for the city.
type Location struct {
	ID          string
	Latitude    float64
	Longitude   float64
	Timezone    string
	Country     string
	ClimateZone string
}

// Catalog returns the fixed set of tracked cities in stable order. The mix
// spans hemispheres and climate zones so the aggregation jobs always have
// multiple groups to work with.
func Catalog() []Location {
	return []Location{
		{ID: "medellin_colombia", Latitude: 6.25, Longitude: -75.56, Timezone: "America/Bogota", Country: "Colombia", ClimateZone: "tropical_mountain"},
		{ID: "sao_paulo_brasil", Latitude: -23.55, Longitude: -46.64, Timezone: "America/Sao_Paulo", Country: "Brasil", ClimateZone: "subtropical"},
		{ID: "buenos_aires_argentina", Latitude: -34.61, Longitude: -58.38, Timezone: "America/Argentina/Buenos_Aires", Country: "Argentina", ClimateZone: "temperate"},
		{ID: "miami_usa", Latitude: 25.76, Longitude: -80.19, Timezone: "America/New_York", Country: "USA", ClimateZone: "tropical_subtropical"},
		{ID: "ciudad_mexico", Latitude: 19.43, Longitude: -99.13, Timezone: "America/Mexico_City", Country: "Mexico", ClimateZone: "tropical_highland"},
		{ID: "madrid_espana", Latitude: 40.42, Longitude: -3.70, Timezone: "Europe/Madrid", Country: "Spain", ClimateZone: "continental_mediterranean"},
		{ID: "tokyo_japan", Latitude: 35.68, Longitude: 139.69, Timezone: "Asia/Tokyo", Country: "Japan", ClimateZone: "humid_subtropical"},
		{ID: "sydney_australia", Latitude: -33.87, Longitude: 151.21, Timezone: "Australia/Sydney", Country: "Australia", ClimateZone: "oceanic"},
	}
}
