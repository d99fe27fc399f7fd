package openmeteo

import (
	"context"
	"fmt"
	"net/url"

	"classy-weather/datasource"
	"classy-weather/models"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
)

// Ensure Provider implements both datasource interfaces
var _ datasource.Provider = (*Provider)(nil)

// Provider resolves locations and fetches daily forecasts from Open-Meteo
type Provider struct {
	geocodingURL string
	forecastURL  string
	client       *datasource.HTTPClient
}

// New creates a new Open-Meteo provider. Empty URLs fall back to the public endpoints.
func New(geocodingURL, forecastURL string, client *datasource.HTTPClient) *Provider {
	if geocodingURL == "" {
		geocodingURL = DefaultGeocodingURL
	}
	if forecastURL == "" {
		forecastURL = DefaultForecastURL
	}
	return &Provider{
		geocodingURL: geocodingURL,
		forecastURL:  forecastURL,
		client:       client,
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "OpenMeteo"
}

// geocodingResponse is the subset of the search response we use.
// The results key is absent when nothing matched.
type geocodingResponse struct {
	Results []struct {
		Name        string  `json:"name"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		Timezone    string  `json:"timezone"`
		CountryCode string  `json:"country_code"`
	} `json:"results"`
}

// Geocode resolves query to the first matching place
func (p *Provider) Geocode(ctx context.Context, query string) (models.Place, error) {
	params := url.Values{}
	params.Set("name", query)

	var response geocodingResponse
	if err := p.client.GetJSON(ctx, p.geocodingURL, params, &response); err != nil {
		return models.Place{}, fmt.Errorf("geocoding %q: %w", query, err)
	}

	if len(response.Results) == 0 {
		return models.Place{}, fmt.Errorf("geocoding %q: %w", query, datasource.ErrLocationNotFound)
	}

	first := response.Results[0]
	return models.Place{
		Name:        first.Name,
		CountryCode: first.CountryCode,
		Latitude:    first.Latitude,
		Longitude:   first.Longitude,
		Timezone:    first.Timezone,
	}, nil
}
