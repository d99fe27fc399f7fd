package models

// Place is a location resolved by a geocoding lookup
type Place struct {
	Name        string  `json:"name"`
	CountryCode string  `json:"countryCode"` // ISO 3166-1 alpha-2
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"` // IANA identifier, e.g. "Europe/Berlin"
}
