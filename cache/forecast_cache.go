package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"classy-weather/datasource"
	"classy-weather/models"
)

// CachedForecastSource wraps a ForecastSource and adds caching functionality
type CachedForecastSource struct {
	source         datasource.ForecastSource
	cache          map[string]forecastCacheEntry // key is lat,lon,timezone
	mutex          sync.RWMutex
	cacheDuration  time.Duration
	cacheHitCount  int
	cacheMissCount int
	now            func() time.Time
	logger         *slog.Logger
}

// forecastCacheEntry represents a cached forecast with its timestamp
type forecastCacheEntry struct {
	Data      models.Forecast
	Timestamp time.Time
}

// NewCachedForecastSource creates a new cached wrapper around a forecast source
func NewCachedForecastSource(source datasource.ForecastSource, cacheDuration time.Duration, logger *slog.Logger) *CachedForecastSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedForecastSource{
		source:        source,
		cache:         make(map[string]forecastCacheEntry),
		cacheDuration: cacheDuration,
		now:           time.Now,
		logger:        logger,
	}
}

// Name returns the name of the underlying forecast source with [Cached] suffix
func (c *CachedForecastSource) Name() string {
	return c.source.Name() + " [Cached]"
}

// FetchForecast fetches forecast data, using cache when available
func (c *CachedForecastSource) FetchForecast(ctx context.Context, place models.Place) (models.Forecast, error) {
	cacheKey := fmt.Sprintf("%.4f,%.4f,%s", place.Latitude, place.Longitude, place.Timezone)

	c.mutex.RLock()
	entry, found := c.cache[cacheKey]
	c.mutex.RUnlock()

	if found && c.now().Sub(entry.Timestamp) < c.cacheDuration {
		c.mutex.Lock()
		c.cacheHitCount++
		c.mutex.Unlock()

		c.logger.DebugContext(ctx, "forecast cache hit",
			"place", place.Name,
			"source", c.source.Name(),
			"age", c.now().Sub(entry.Timestamp).Round(time.Second),
		)
		return entry.Data, nil
	}

	c.mutex.Lock()
	c.cacheMissCount++
	c.mutex.Unlock()

	c.logger.DebugContext(ctx, "forecast cache miss", "place", place.Name, "source", c.source.Name())

	forecast, err := c.source.FetchForecast(ctx, place)
	if err != nil {
		return models.Forecast{}, err
	}

	c.mutex.Lock()
	c.cache[cacheKey] = forecastCacheEntry{
		Data:      forecast,
		Timestamp: c.now(),
	}
	c.mutex.Unlock()

	return forecast, nil
}

// CacheStats returns statistics about cache hits and misses
func (c *CachedForecastSource) CacheStats() (hits, misses int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.cacheHitCount, c.cacheMissCount
}

// Ensure CachedForecastSource implements ForecastSource
var _ datasource.ForecastSource = (*CachedForecastSource)(nil)
