package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"classy-weather/datasource"
	"classy-weather/lookup"
	"classy-weather/models"
	"classy-weather/store"
	"classy-weather/view"

	"github.com/prometheus/client_golang/prometheus"
)

// MockProvider simulates a slow upstream and counts calls
type MockProvider struct {
	mutex     sync.Mutex
	callCount int
	latency   time.Duration
}

func NewMockProvider(latency time.Duration) *MockProvider {
	return &MockProvider{latency: latency}
}

func (m *MockProvider) Geocode(ctx context.Context, query string) (models.Place, error) {
	m.mutex.Lock()
	m.callCount++
	currentCount := m.callCount
	m.mutex.Unlock()

	fmt.Printf("%s - Processing geocode #%d for %q\n", time.Now().Format("15:04:05.000"), currentCount, query)

	// Simulate work/latency
	select {
	case <-time.After(m.latency):
	case <-ctx.Done():
		return models.Place{}, ctx.Err()
	}

	return models.Place{Name: query, CountryCode: "DE", Latitude: 52.52, Longitude: 13.41, Timezone: "Europe/Berlin"}, nil
}

func (m *MockProvider) FetchForecast(ctx context.Context, place models.Place) (models.Forecast, error) {
	select {
	case <-time.After(m.latency):
	case <-ctx.Done():
		return models.Forecast{}, ctx.Err()
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	days := make([]models.Day, 7)
	for i := range days {
		days[i] = models.Day{Date: today.AddDate(0, 0, i), WeatherCode: 3, MinTemp: 4.2, MaxTemp: 12.7}
	}
	return models.Forecast{Days: days}, nil
}

func (m *MockProvider) Name() string {
	return "MockProvider"
}

func (m *MockProvider) GetCallCount() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.callCount
}

// main types a location one keystroke at a time into a pipeline backed by a
// rate limited mock, showing that the last query typed wins.
func main() {
	requestsPerSecond := flag.Float64("rps", 1.0, "Rate limit in requests per second")
	burstSize := flag.Int("burst", 3, "Maximum burst size")
	word := flag.String("type", "Berlin", "Location to type")
	keystroke := flag.Duration("keystroke", 120*time.Millisecond, "Delay between keystrokes")
	latency := flag.Duration("latency", 200*time.Millisecond, "Simulated upstream latency")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mockProvider := NewMockProvider(*latency)
	rateLimitedProvider := datasource.NewRateLimitedProvider(mockProvider, *requestsPerSecond, *requestsPerSecond, *burstSize)

	slot := store.NewMemory()
	pipe := lookup.New(rateLimitedProvider, rateLimitedProvider, slot,
		lookup.WithLogger(logger),
		lookup.WithMetrics(lookup.NewMetrics(prometheus.NewRegistry())),
	)
	defer pipe.Close()

	fmt.Printf("Testing rate limited lookups with:\n")
	fmt.Printf("- Rate limit: %.2f requests/second\n", *requestsPerSecond)
	fmt.Printf("- Burst size: %d\n", *burstSize)
	fmt.Printf("- Typing %q, one keystroke every %v\n", *word, *keystroke)
	fmt.Println("Starting test...")

	startTime := time.Now()
	runes := []rune(*word)
	for i := 1; i <= len(runes); i++ {
		pipe.SetQuery(string(runes[:i]))
		time.Sleep(*keystroke)
	}
	pipe.Wait()
	totalTime := time.Since(startTime)

	s := pipe.State()
	saved, _ := slot.Load(context.Background())

	fmt.Println("\nTest completed!")
	fmt.Printf("Total time: %.2f seconds\n", totalTime.Seconds())
	fmt.Printf("Geocode calls reaching the upstream: %d\n", mockProvider.GetCallCount())
	fmt.Printf("Committed label: %s\n", s.Label)
	fmt.Printf("Persisted location: %q\n", saved)

	if saved != *word {
		fmt.Println("\n⚠️ WARNING: the persisted location is not the last one typed!")
		os.Exit(1)
	}
	fmt.Println("\n✅ The last query typed was committed and persisted.")
	_ = view.Render(os.Stdout, view.Frame{Query: s.Query, Label: s.Label, Days: view.Summaries(s.Forecast)})
}
