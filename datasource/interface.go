package datasource

import (
	"context"

	"classy-weather/models"
)

// Geocoder resolves a free-text location name into a place
type Geocoder interface {
	// Geocode returns the best match for query, or ErrLocationNotFound
	Geocode(ctx context.Context, query string) (models.Place, error)

	// Name returns the geocoder's name
	Name() string
}

// ForecastSource is an interface for services that can fetch daily forecasts
type ForecastSource interface {
	// FetchForecast fetches the daily forecast for a resolved place
	FetchForecast(ctx context.Context, place models.Place) (models.Forecast, error)

	// Name returns the source's name
	Name() string
}
