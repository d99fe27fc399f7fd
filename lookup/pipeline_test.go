package lookup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"classy-weather/datasource"
	"classy-weather/models"
	"classy-weather/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream serves canned places and forecasts. Geocode blocks on a gate
// registered for the query until the gate is closed.
type fakeUpstream struct {
	mu            sync.Mutex
	geocodeCalls  []string
	forecastCalls []string
	places        map[string]models.Place
	forecasts     map[string]models.Forecast
	geocodeErrs   map[string]error
	forecastErrs  map[string]error
	gates         map[string]chan struct{}
	ignoreCancel  bool // simulate a transport that delivers the response anyway
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		places: map[string]models.Place{
			"Berlin": {Name: "Berlin", CountryCode: "DE", Latitude: 52.52, Longitude: 13.41, Timezone: "Europe/Berlin"},
			"Austin": {Name: "Austin", CountryCode: "US", Latitude: 30.27, Longitude: -97.74, Timezone: "America/Chicago"},
		},
		forecasts: map[string]models.Forecast{
			"Berlin": {Days: days(3, 61)},
			"Austin": {Days: days(7, 0)},
		},
		geocodeErrs:  map[string]error{},
		forecastErrs: map[string]error{},
		gates:        map[string]chan struct{}{},
	}
}

func days(n, code int) []models.Day {
	out := make([]models.Day, n)
	for i := range out {
		out[i] = models.Day{
			Date:        time.Date(2024, 3, 4+i, 0, 0, 0, 0, time.UTC),
			WeatherCode: code,
			MinTemp:     float64(i),
			MaxTemp:     float64(10 + i),
		}
	}
	return out
}

func (f *fakeUpstream) Name() string { return "Fake" }

func (f *fakeUpstream) gate(query string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[query] = ch
	return ch
}

func (f *fakeUpstream) Geocode(ctx context.Context, query string) (models.Place, error) {
	f.mu.Lock()
	f.geocodeCalls = append(f.geocodeCalls, query)
	gate := f.gates[query]
	place, ok := f.places[query]
	err := f.geocodeErrs[query]
	ignore := f.ignoreCancel
	f.mu.Unlock()

	if gate != nil {
		if ignore {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return models.Place{}, ctx.Err()
			}
		}
	}

	if err != nil {
		return models.Place{}, err
	}
	if !ok {
		return models.Place{}, datasource.ErrLocationNotFound
	}
	return place, nil
}

func (f *fakeUpstream) FetchForecast(ctx context.Context, place models.Place) (models.Forecast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forecastCalls = append(f.forecastCalls, place.Name)
	if err := f.forecastErrs[place.Name]; err != nil {
		return models.Forecast{}, err
	}
	return f.forecasts[place.Name], nil
}

func (f *fakeUpstream) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.geocodeCalls) + len(f.forecastCalls)
}

type harness struct {
	p        *Pipeline
	upstream *fakeUpstream
	slot     *store.MemorySlot
	metrics  *Metrics
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		upstream: newFakeUpstream(),
		slot:     store.NewMemory(),
		metrics:  NewMetrics(prometheus.NewRegistry()),
	}
	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(h.metrics),
	}, opts...)
	h.p = New(h.upstream, h.upstream, h.slot, opts...)
	t.Cleanup(h.p.Close)
	return h
}

func (h *harness) outcomes(o Outcome) float64 {
	return testutil.ToFloat64(h.metrics.outcomes.WithLabelValues(string(o)))
}

func TestSetQuery_CommitsForecastAndPersists(t *testing.T) {
	h := newHarness(t)
	gate := h.upstream.gate("Berlin")

	h.p.SetQuery("Berlin")
	assert.True(t, h.p.State().Loading)
	assert.True(t, h.p.State().Forecast.Empty())

	close(gate)
	h.p.Wait()

	s := h.p.State()
	assert.False(t, s.Loading)
	assert.Equal(t, "Berlin", s.Query)
	assert.Equal(t, "Berlin \U0001F1E9\U0001F1EA", s.Label)
	require.NotNil(t, s.Place)
	assert.Equal(t, "Europe/Berlin", s.Place.Timezone)
	require.Len(t, s.Forecast.Days, 3)
	assert.Equal(t, 61, s.Forecast.Days[2].WeatherCode)

	saved, err := h.slot.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Berlin", saved)
	assert.Equal(t, 1.0, h.outcomes(OutcomeCommitted))
}

func TestSetQuery_ShortQueryClearsWithoutNetwork(t *testing.T) {
	h := newHarness(t)

	h.p.SetQuery("Berlin")
	h.p.Wait()
	require.False(t, h.p.State().Forecast.Empty())
	before := h.upstream.calls()

	for _, q := range []string{"B", " B ", "", "   ", "é"} {
		h.p.SetQuery(q)
		h.p.Wait()

		s := h.p.State()
		assert.True(t, s.Forecast.Empty(), "query %q", q)
		assert.Empty(t, s.Label, "query %q", q)
		assert.False(t, s.Loading, "query %q", q)
	}

	assert.Equal(t, before, h.upstream.calls())
	assert.Equal(t, 1, h.slot.Saves())
}

func TestSetQuery_TrimsBeforeLookup(t *testing.T) {
	h := newHarness(t)

	h.p.SetQuery("  Berlin ")
	h.p.Wait()

	assert.Equal(t, []string{"Berlin"}, h.upstream.geocodeCalls)
	assert.Equal(t, "  Berlin ", h.p.State().Query)
}

func TestSetQuery_LocationNotFoundKeepsPreviousForecast(t *testing.T) {
	h := newHarness(t)

	h.p.SetQuery("Berlin")
	h.p.Wait()
	committed := h.p.State()

	h.p.SetQuery("Atlantis")
	h.p.Wait()

	s := h.p.State()
	assert.False(t, s.Loading)
	assert.Equal(t, "Atlantis", s.Query)
	assert.Equal(t, committed.Forecast, s.Forecast)
	assert.Equal(t, committed.Label, s.Label)
	assert.Equal(t, 1.0, h.outcomes(OutcomeLocationNotFound))
	assert.Empty(t, h.upstream.forecastCalls[1:])

	saved, _ := h.slot.Load(context.Background())
	assert.Equal(t, "Berlin", saved)
}

func TestSetQuery_FailureKeepsPreviousForecast(t *testing.T) {
	h := newHarness(t)
	h.upstream.geocodeErrs["Paris"] = errors.New("connection reset by peer")

	h.p.SetQuery("Berlin")
	h.p.Wait()
	committed := h.p.State()

	h.p.SetQuery("Paris")
	h.p.Wait()

	s := h.p.State()
	assert.False(t, s.Loading)
	assert.Equal(t, committed.Forecast, s.Forecast)
	assert.Equal(t, 1.0, h.outcomes(OutcomeFailure))
	assert.Equal(t, 1, h.slot.Saves())
}

func TestSetQuery_ForecastFailureKeepsPreviousForecastAndLabel(t *testing.T) {
	h := newHarness(t)
	h.upstream.forecastErrs["Austin"] = &datasource.StatusError{URL: "https://api.open-meteo.com/v1/forecast", StatusCode: 502}

	h.p.SetQuery("Berlin")
	h.p.Wait()
	committed := h.p.State()

	h.p.SetQuery("Austin")
	h.p.Wait()

	s := h.p.State()
	assert.False(t, s.Loading)
	assert.Equal(t, "Austin", s.Query)
	assert.Equal(t, committed.Forecast, s.Forecast)
	assert.Equal(t, committed.Label, s.Label)
	require.NotNil(t, s.Place)
	assert.Equal(t, "Berlin", s.Place.Name)
	assert.Equal(t, []string{"Berlin", "Austin"}, h.upstream.forecastCalls)
	assert.Equal(t, 1.0, h.outcomes(OutcomeFailure))

	saved, _ := h.slot.Load(context.Background())
	assert.Equal(t, "Berlin", saved)
	assert.Equal(t, 1, h.slot.Saves())
}

func TestSetQuery_SupersededResponseNeverCommitted(t *testing.T) {
	h := newHarness(t)
	h.upstream.ignoreCancel = true
	gate := h.upstream.gate("Austin")

	h.p.SetQuery("Austin")
	h.p.SetQuery("Berlin")

	require.Eventually(t, func() bool {
		return h.p.State().Label == "Berlin \U0001F1E9\U0001F1EA"
	}, 2*time.Second, 5*time.Millisecond)

	// The old response arrives after the new one was committed.
	close(gate)
	h.p.Wait()

	s := h.p.State()
	assert.Equal(t, "Berlin", s.Query)
	assert.Len(t, s.Forecast.Days, 3)
	assert.Equal(t, "Berlin \U0001F1E9\U0001F1EA", s.Label)
	assert.Equal(t, 1.0, h.outcomes(OutcomeSuperseded))
	assert.Equal(t, 1.0, h.outcomes(OutcomeCommitted))

	saved, _ := h.slot.Load(context.Background())
	assert.Equal(t, "Berlin", saved)
}

func TestSetQuery_SupersededResponseArrivingFirst(t *testing.T) {
	h := newHarness(t)
	h.upstream.ignoreCancel = true
	gateA := h.upstream.gate("Austin")
	gateB := h.upstream.gate("Berlin")

	h.p.SetQuery("Austin")
	h.p.SetQuery("Berlin")

	close(gateA)
	require.Eventually(t, func() bool {
		return h.outcomes(OutcomeSuperseded) == 1
	}, 2*time.Second, 5*time.Millisecond)

	s := h.p.State()
	assert.True(t, s.Loading, "the newer chain still owns the loading flag")
	assert.True(t, s.Forecast.Empty())

	close(gateB)
	h.p.Wait()

	s = h.p.State()
	assert.False(t, s.Loading)
	assert.Len(t, s.Forecast.Days, 3)
	assert.Equal(t, 1, h.slot.Saves())
}

func TestSetQuery_CancellationIsNotAFailure(t *testing.T) {
	h := newHarness(t)
	h.upstream.gate("Austin")

	h.p.SetQuery("Austin")
	h.p.SetQuery("Berlin")
	h.p.Wait()

	assert.Equal(t, 0.0, h.outcomes(OutcomeFailure))
	assert.Equal(t, 1.0, h.outcomes(OutcomeSuperseded))
	assert.Equal(t, "Berlin \U0001F1E9\U0001F1EA", h.p.State().Label)
}

func TestSetQuery_ShortQueryCancelsInFlight(t *testing.T) {
	h := newHarness(t)
	h.upstream.gate("Austin")

	h.p.SetQuery("Austin")
	h.p.SetQuery("A")
	h.p.Wait()

	s := h.p.State()
	assert.False(t, s.Loading)
	assert.True(t, s.Forecast.Empty())
	assert.Equal(t, 1.0, h.outcomes(OutcomeSuperseded))
}

func TestSetQuery_SameTextIsNoop(t *testing.T) {
	h := newHarness(t)

	h.p.SetQuery("Berlin")
	h.p.Wait()
	h.p.SetQuery("Berlin")
	h.p.Wait()

	assert.Len(t, h.upstream.geocodeCalls, 1)
}

func TestSetQuery_ObserverSeesLoadingThenResult(t *testing.T) {
	var mu sync.Mutex
	var seen []State
	h := newHarness(t, WithObserver(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	}))

	h.p.SetQuery("Austin")
	h.p.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.True(t, seen[0].Loading)
	assert.False(t, seen[1].Loading)
	assert.Len(t, seen[1].Forecast.Days, 7)
	assert.Equal(t, "Austin \U0001F1FA\U0001F1F8", seen[1].Label)
}

func TestRestore_SeedsQueryFromSlot(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.slot.Save(context.Background(), "Austin"))

	require.NoError(t, h.p.Restore(context.Background()))
	h.p.Wait()

	s := h.p.State()
	assert.Equal(t, "Austin", s.Query)
	assert.Len(t, s.Forecast.Days, 7)
}

func TestRestore_EmptySlot(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.p.Restore(context.Background()))
	h.p.Wait()

	assert.Zero(t, h.upstream.calls())
	assert.Empty(t, h.p.State().Query)
}

func TestClose_CancelsInFlightAndStopsAcceptingQueries(t *testing.T) {
	h := newHarness(t)
	h.upstream.gate("Austin")

	h.p.SetQuery("Austin")
	h.p.Close()

	s := h.p.State()
	assert.False(t, s.Loading)
	assert.True(t, s.Forecast.Empty())
	assert.Equal(t, 1.0, h.outcomes(OutcomeCancelled))

	h.p.SetQuery("Berlin")
	h.p.Wait()
	assert.Equal(t, "Austin", h.p.State().Query)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, OutcomeCommitted, classify(nil))
	assert.Equal(t, OutcomeCancelled, classify(context.Canceled))
	assert.Equal(t, OutcomeLocationNotFound, classify(errors.Join(errors.New("geocoding"), datasource.ErrLocationNotFound)))
	assert.Equal(t, OutcomeFailure, classify(&datasource.StatusError{StatusCode: 502}))
}
