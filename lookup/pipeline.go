// Package lookup runs the location query pipeline: geocode the query text,
// fetch the daily forecast for the resolved place, and commit the result.
//
// Every change of the query text starts a new generation and cancels the
// previous one. A chain commits only while its generation is still current,
// so a slow response to an old query can never overwrite a newer one.
package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"classy-weather/datasource"
	"classy-weather/models"
	"classy-weather/store"
	"classy-weather/view"

	"github.com/google/uuid"
)

// MinQueryLength is the shortest trimmed query, in runes, that is looked up
const MinQueryLength = 2

const persistTimeout = 5 * time.Second

// State is a snapshot of the widget's observable slots
type State struct {
	Query      string          `json:"query"`
	Loading    bool            `json:"loading"`
	Label      string          `json:"label,omitempty"`
	Place      *models.Place   `json:"place,omitempty"`
	Forecast   models.Forecast `json:"forecast"`
	Generation uuid.UUID       `json:"generation"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger; defaults to slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithMetrics records chain outcomes
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithObserver registers fn to receive a snapshot after every state change.
// Calls are serialized.
func WithObserver(fn func(State)) Option {
	return func(p *Pipeline) { p.observer = fn }
}

// Pipeline owns the widget state and the single current query chain
type Pipeline struct {
	geocoder  datasource.Geocoder
	forecasts datasource.ForecastSource
	slot      store.Slot
	logger    *slog.Logger
	metrics   *Metrics
	observer  func(State)

	base     context.Context
	stopBase context.CancelFunc
	wg       sync.WaitGroup

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	state  State
	closed bool

	notifyMu sync.Mutex

	persistMu    sync.Mutex
	persistedGen uint64
}

// New creates a pipeline over the given upstreams and durable slot
func New(geocoder datasource.Geocoder, forecasts datasource.ForecastSource, slot store.Slot, opts ...Option) *Pipeline {
	base, stop := context.WithCancel(context.Background())
	p := &Pipeline{
		geocoder:  geocoder,
		forecasts: forecasts,
		slot:      slot,
		logger:    slog.Default(),
		base:      base,
		stopBase:  stop,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Restore seeds the query from the durable slot
func (p *Pipeline) Restore(ctx context.Context) error {
	query, err := p.slot.Load(ctx)
	if err != nil {
		return fmt.Errorf("restoring last location: %w", err)
	}
	if query != "" {
		p.logger.InfoContext(ctx, "restored last location", "query", query)
		p.SetQuery(query)
	}
	return nil
}

// SetQuery replaces the query text. It cancels any in-flight chain and, if
// the trimmed query is long enough, starts a new one in the background.
// Setting the current text again is a no-op.
func (p *Pipeline) SetQuery(query string) {
	p.mu.Lock()
	if p.closed || (p.gen > 0 && query == p.state.Query) {
		p.mu.Unlock()
		return
	}

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
	gen := p.gen
	p.state.Query = query

	trimmed := strings.TrimSpace(query)
	if utf8.RuneCountInString(trimmed) < MinQueryLength {
		p.state.Loading = false
		p.state.Label = ""
		p.state.Place = nil
		p.state.Forecast = models.Forecast{}
		p.state.Generation = uuid.Nil
		p.mu.Unlock()
		p.notify()
		return
	}

	id := uuid.New()
	ctx, cancel := context.WithCancel(p.base)
	p.cancel = cancel
	p.state.Loading = true
	p.state.Generation = id
	p.wg.Add(1)
	p.mu.Unlock()

	p.notify()
	go p.run(ctx, cancel, gen, id, query, trimmed)
}

// State returns a snapshot of the current state
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Wait blocks until every started chain has settled
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Close cancels the current chain, waits for all chains and ignores
// further queries.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.stopBase()
}

func (p *Pipeline) run(ctx context.Context, cancel context.CancelFunc, gen uint64, id uuid.UUID, query, trimmed string) {
	defer p.wg.Done()
	defer cancel()

	start := time.Now()
	logger := p.logger.With("generation", id.String(), "query", trimmed)
	logger.DebugContext(ctx, "query started")

	place, forecast, err := p.fetch(ctx, trimmed)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	outcome := classify(err)

	p.mu.Lock()
	current := gen == p.gen
	if current {
		p.state.Loading = false
		p.cancel = nil
		if outcome == OutcomeCommitted {
			p.state.Place = &place
			p.state.Label = view.DisplayLabel(place.Name, place.CountryCode)
			p.state.Forecast = forecast
			p.state.UpdatedAt = time.Now()
		}
	} else {
		outcome = OutcomeSuperseded
	}
	p.mu.Unlock()

	elapsed := time.Since(start)
	p.metrics.observe(outcome, elapsed)

	switch outcome {
	case OutcomeCommitted:
		logger.InfoContext(ctx, "forecast updated", "place", place.Name, "days", len(forecast.Days), "elapsed", elapsed)
	case OutcomeLocationNotFound:
		logger.WarnContext(ctx, "location not found", "error", err)
	case OutcomeFailure:
		logger.ErrorContext(ctx, "forecast lookup failed", "error", err)
	default:
		logger.DebugContext(ctx, "query abandoned", "outcome", outcome)
	}

	if !current {
		return
	}
	p.notify()

	if outcome == OutcomeCommitted {
		p.persist(ctx, logger, gen, query)
	}
}

func (p *Pipeline) fetch(ctx context.Context, query string) (models.Place, models.Forecast, error) {
	place, err := p.geocoder.Geocode(ctx, query)
	if err != nil {
		return models.Place{}, models.Forecast{}, err
	}

	forecast, err := p.forecasts.FetchForecast(ctx, place)
	if err != nil {
		return models.Place{}, models.Forecast{}, err
	}

	return place, forecast, nil
}

// persist saves the committed query unless a newer generation already did
func (p *Pipeline) persist(ctx context.Context, logger *slog.Logger, gen uint64, query string) {
	p.persistMu.Lock()
	defer p.persistMu.Unlock()

	if gen < p.persistedGen {
		return
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := p.slot.Save(saveCtx, query); err != nil {
		logger.WarnContext(ctx, "could not persist location", "error", err)
		return
	}
	p.persistedGen = gen
}

func (p *Pipeline) notify() {
	if p.observer == nil {
		return
	}
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()
	p.observer(p.State())
}
