package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"classy-weather/cache"
	"classy-weather/datasource"
	"classy-weather/providers/openmeteo"
	"classy-weather/view"
)

func main() {
	cacheDuration := flag.Duration("ttl", 15*time.Second, "Cache lifetime for this demo")
	locations := flag.String("locations", "London,New York", "Comma separated locations to look up")
	geocodeRPS := flag.Float64("geocode-rps", 1.0, "Rate limit for geocoding requests per second")
	forecastRPS := flag.Float64("forecast-rps", 2.0, "Rate limit for forecast requests per second")
	flag.Parse()

	fmt.Println("=== Running Cache Test ===")
	fmt.Println("This will demonstrate how caching works with repeated lookups against Open-Meteo")
	fmt.Println()

	client := datasource.NewHTTPClient(10*time.Second, "open-meteo", "classy-weather-cache-test")
	provider := openmeteo.New("", "", client)

	// Each endpoint gets its own limiter; cache hits never reach them.
	limitedGeocoder := datasource.NewRateLimitedGeocoder(provider, *geocodeRPS, 1)
	limitedForecasts := datasource.NewRateLimitedForecastSource(provider, *forecastRPS, 1)
	geocoder := cache.NewCachedGeocoder(limitedGeocoder, *cacheDuration, nil)
	forecasts := cache.NewCachedForecastSource(limitedForecasts, *cacheDuration, nil)

	ctx := context.Background()
	queries := strings.Split(*locations, ",")

	fmt.Println("*** First Request - Should be cache misses ***")
	makeRequests(ctx, geocoder, forecasts, queries)

	fmt.Println("\n*** Second Request - Should use cached data ***")
	makeRequests(ctx, geocoder, forecasts, queries)

	fmt.Printf("\nWaiting for cache to expire (%s)...\n", *cacheDuration)
	time.Sleep(*cacheDuration + time.Second)

	fmt.Println("\n*** After Expiry - Should be cache misses again ***")
	makeRequests(ctx, geocoder, forecasts, queries)

	hits, misses := geocoder.CacheStats()
	fmt.Printf("\nStats for %s: %d cache hits, %d cache misses\n", geocoder.Name(), hits, misses)
	hits, misses = forecasts.CacheStats()
	fmt.Printf("Stats for %s: %d cache hits, %d cache misses\n", forecasts.Name(), hits, misses)

	fmt.Println("\n=== Cache Test Complete ===")
}

func makeRequests(ctx context.Context, geocoder datasource.Geocoder, forecasts datasource.ForecastSource, queries []string) {
	for _, q := range queries {
		q = strings.TrimSpace(q)
		start := time.Now()

		place, err := geocoder.Geocode(ctx, q)
		if err != nil {
			log.Printf("Error geocoding %s: %v", q, err)
			continue
		}
		forecast, err := forecasts.FetchForecast(ctx, place)
		if err != nil {
			log.Printf("Error fetching forecast for %s: %v", q, err)
			continue
		}

		days := view.Summaries(forecast)
		if len(days) == 0 {
			fmt.Printf("%s: no forecast days\n", view.DisplayLabel(place.Name, place.CountryCode))
			continue
		}
		fmt.Printf("%s: %s %d° / %d° (%v)\n",
			view.DisplayLabel(place.Name, place.CountryCode), days[0].Icon, days[0].Min, days[0].Max,
			time.Since(start).Round(time.Millisecond))
	}
}
