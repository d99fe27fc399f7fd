package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"classy-weather/datasource"
	"classy-weather/models"
)

// CachedGeocoder wraps a Geocoder and adds caching functionality
type CachedGeocoder struct {
	geocoder       datasource.Geocoder
	cache          map[string]placeEntry // key is the normalized query
	mutex          sync.RWMutex
	cacheDuration  time.Duration
	cacheHitCount  int
	cacheMissCount int
	now            func() time.Time
	logger         *slog.Logger
}

// placeEntry represents a resolved place with its timestamp
type placeEntry struct {
	Data      models.Place
	Timestamp time.Time
}

// NewCachedGeocoder creates a new cached wrapper around a geocoder
func NewCachedGeocoder(geocoder datasource.Geocoder, cacheDuration time.Duration, logger *slog.Logger) *CachedGeocoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedGeocoder{
		geocoder:      geocoder,
		cache:         make(map[string]placeEntry),
		cacheDuration: cacheDuration,
		now:           time.Now,
		logger:        logger,
	}
}

// Name returns the name of the underlying geocoder with [Cached] suffix
func (c *CachedGeocoder) Name() string {
	return c.geocoder.Name() + " [Cached]"
}

// Geocode resolves a location, using cache when available.
// Failed lookups, including ErrLocationNotFound, are not cached.
func (c *CachedGeocoder) Geocode(ctx context.Context, query string) (models.Place, error) {
	key := strings.ToLower(strings.TrimSpace(query))

	c.mutex.RLock()
	entry, found := c.cache[key]
	c.mutex.RUnlock()

	if found && c.now().Sub(entry.Timestamp) < c.cacheDuration {
		c.mutex.Lock()
		c.cacheHitCount++
		c.mutex.Unlock()

		c.logger.DebugContext(ctx, "geocode cache hit",
			"query", query,
			"source", c.geocoder.Name(),
			"age", c.now().Sub(entry.Timestamp).Round(time.Second),
		)
		return entry.Data, nil
	}

	c.mutex.Lock()
	c.cacheMissCount++
	c.mutex.Unlock()

	c.logger.DebugContext(ctx, "geocode cache miss", "query", query, "source", c.geocoder.Name())

	place, err := c.geocoder.Geocode(ctx, query)
	if err != nil {
		return models.Place{}, err
	}

	c.mutex.Lock()
	c.cache[key] = placeEntry{
		Data:      place,
		Timestamp: c.now(),
	}
	c.mutex.Unlock()

	return place, nil
}

// CacheStats returns statistics about cache hits and misses
func (c *CachedGeocoder) CacheStats() (hits, misses int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.cacheHitCount, c.cacheMissCount
}

// Ensure CachedGeocoder implements the Geocoder interface
var _ datasource.Geocoder = (*CachedGeocoder)(nil)
