package datasource

import (
	"context"
	"fmt"

	"classy-weather/models"

	"golang.org/x/time/rate"
)

// Provider is implemented by upstreams serving both geocoding and forecasts
type Provider interface {
	Geocoder
	ForecastSource
}

// RateLimitedGeocoder wraps a Geocoder with rate limiting
type RateLimitedGeocoder struct {
	geocoder Geocoder
	limiter  *rate.Limiter
	name     string
}

// NewRateLimitedGeocoder creates a new rate limited geocoder
// rps is the maximum requests per second allowed (can be fractional for less than 1 request per second)
// burst is the maximum burst size allowed
func NewRateLimitedGeocoder(geocoder Geocoder, rps float64, burst int) *RateLimitedGeocoder {
	return &RateLimitedGeocoder{
		geocoder: geocoder,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		name:     fmt.Sprintf("%s [Rate Limited]", geocoder.Name()),
	}
}

// Geocode resolves a location, respecting rate limits
func (r *RateLimitedGeocoder) Geocode(ctx context.Context, query string) (models.Place, error) {
	// Wait for rate limiter permission or context cancellation
	if err := r.limiter.Wait(ctx); err != nil {
		return models.Place{}, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	return r.geocoder.Geocode(ctx, query)
}

// Name returns the geocoder name
func (r *RateLimitedGeocoder) Name() string {
	return r.name
}

// RateLimitedForecastSource wraps a ForecastSource with rate limiting
type RateLimitedForecastSource struct {
	source  ForecastSource
	limiter *rate.Limiter
	name    string
}

// NewRateLimitedForecastSource creates a new rate limited forecast source
// rps is the maximum requests per second allowed
// burst is the maximum burst size allowed
func NewRateLimitedForecastSource(source ForecastSource, rps float64, burst int) *RateLimitedForecastSource {
	return &RateLimitedForecastSource{
		source:  source,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    fmt.Sprintf("%s [Rate Limited]", source.Name()),
	}
}

// FetchForecast fetches forecast data, respecting rate limits
func (r *RateLimitedForecastSource) FetchForecast(ctx context.Context, place models.Place) (models.Forecast, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return models.Forecast{}, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	return r.source.FetchForecast(ctx, place)
}

// Name returns the source name
func (r *RateLimitedForecastSource) Name() string {
	return r.name
}

// RateLimitedProvider combines both interfaces for providers that implement both.
// Geocoding and forecast requests go to different endpoints, so each gets its own limiter.
type RateLimitedProvider struct {
	provider        Provider
	geocodeLimiter  *rate.Limiter
	forecastLimiter *rate.Limiter
	name            string
}

// NewRateLimitedProvider creates a provider that implements both interfaces with rate limiting
func NewRateLimitedProvider(provider Provider, geocodeRPS, forecastRPS float64, burst int) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider:        provider,
		geocodeLimiter:  rate.NewLimiter(rate.Limit(geocodeRPS), burst),
		forecastLimiter: rate.NewLimiter(rate.Limit(forecastRPS), burst),
		name:            fmt.Sprintf("%s [Rate Limited]", provider.Name()),
	}
}

// Geocode implements Geocoder with rate limiting
func (r *RateLimitedProvider) Geocode(ctx context.Context, query string) (models.Place, error) {
	if err := r.geocodeLimiter.Wait(ctx); err != nil {
		return models.Place{}, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.provider.Geocode(ctx, query)
}

// FetchForecast implements ForecastSource with rate limiting
func (r *RateLimitedProvider) FetchForecast(ctx context.Context, place models.Place) (models.Forecast, error) {
	if err := r.forecastLimiter.Wait(ctx); err != nil {
		return models.Forecast{}, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.provider.FetchForecast(ctx, place)
}

// Name returns the provider name
func (r *RateLimitedProvider) Name() string {
	return r.name
}

// Verify that our rate limited types implement the required interfaces
var (
	_ Geocoder       = (*RateLimitedGeocoder)(nil)
	_ ForecastSource = (*RateLimitedForecastSource)(nil)
	_ Provider       = (*RateLimitedProvider)(nil)
)
