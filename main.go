package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classy-weather/api"
	"classy-weather/cache"
	"classy-weather/config"
	"classy-weather/datasource"
	"classy-weather/input"
	"classy-weather/lookup"
	"classy-weather/providers/openmeteo"
	"classy-weather/store"
	"classy-weather/view"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Parse command line arguments
	enableRateLimiting := flag.Bool("rate-limit", true, "Enable client-side rate limiting of Open-Meteo calls")
	httpAddr := flag.String("http", "", "Serve the control API on this address (overrides HTTP_ADDR)")
	initialQuery := flag.String("query", "", "Start with this location instead of the saved one")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *httpAddr != "" {
		cfg.HTTP.Addr = *httpAddr
		if err := cfg.Validate(); err != nil {
			slog.Error("invalid -http address", "error", err)
			os.Exit(1)
		}
	}

	// stdout carries the rendered widget, so logs go to stderr
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop, cfg, logger, *enableRateLimiting, *initialQuery); err != nil {
		logger.Error("classy-weather stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg *config.Config, logger *slog.Logger, rateLimit bool, initialQuery string) error {
	slot, err := store.Open(ctx, store.Options{
		Backend:       cfg.Store.Backend,
		Key:           cfg.Store.Key,
		SQLitePath:    cfg.Store.Path,
		RedisAddr:     cfg.Store.RedisAddr,
		RedisPassword: cfg.Store.RedisPassword,
	})
	if err != nil {
		return err
	}
	defer slot.Close()

	client := datasource.NewHTTPClient(cfg.Upstream.Timeout, "open-meteo", cfg.Upstream.UserAgent)
	var provider datasource.Provider = openmeteo.New(cfg.Upstream.GeocodingURL, cfg.Upstream.ForecastURL, client)

	// Apply rate limiting if enabled
	if rateLimit {
		provider = datasource.NewRateLimitedProvider(provider, cfg.Upstream.RateLimitRPS, cfg.Upstream.RateLimitRPS, cfg.Upstream.RateLimitBurst)
		logger.Debug("applied rate limiting", "provider", provider.Name(), "rps", cfg.Upstream.RateLimitRPS, "burst", cfg.Upstream.RateLimitBurst)
	}

	var geocoder datasource.Geocoder = provider
	var forecasts datasource.ForecastSource = provider
	if cfg.Cache.TTL > 0 {
		cachedGeocoder := cache.NewCachedGeocoder(provider, cfg.Cache.TTL, logger)
		cachedForecasts := cache.NewCachedForecastSource(provider, cfg.Cache.TTL, logger)
		geocoder, forecasts = cachedGeocoder, cachedForecasts

		defer func() {
			gh, gm := cachedGeocoder.CacheStats()
			fh, fm := cachedForecasts.CacheStats()
			logger.Debug("cache statistics",
				"geocode_hits", gh, "geocode_misses", gm,
				"forecast_hits", fh, "forecast_misses", fm)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pipe := lookup.New(geocoder, forecasts, slot,
		lookup.WithLogger(logger),
		lookup.WithMetrics(lookup.NewMetrics(reg)),
		lookup.WithObserver(func(s lookup.State) {
			frame := view.Frame{
				Query:   s.Query,
				Loading: s.Loading,
				Label:   s.Label,
				Days:    view.Summaries(s.Forecast),
			}
			if err := view.Render(os.Stdout, frame); err != nil {
				logger.Warn("failed to render", "error", err)
			}
		}),
	)
	defer pipe.Close()

	if initialQuery != "" {
		pipe.SetQuery(initialQuery)
	} else if err := pipe.Restore(ctx); err != nil {
		logger.Warn("starting without a saved location", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return feedInput(gctx, os.Stdin, pipe, cfg.HTTP.Addr == "", stop)
	})

	if cfg.HTTP.Addr != "" {
		srv := api.NewServer(pipe, reg, cfg.HTTP.Addr, logger)
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Debug("shutting down", "breaker", client.BreakerState())
	return err
}

// queryTarget is what feedInput drives
type queryTarget interface {
	SetQuery(query string)
	Wait()
}

// feedInput hands every line of src to target. At end of input it waits for
// the last query to settle and, when stopOnEOF is set, calls stop. With the
// control API serving, stdin closing leaves the process running.
func feedInput(ctx context.Context, src io.Reader, target queryTarget, stopOnEOF bool, stop context.CancelFunc) error {
	err := input.Pump(ctx, input.NewLineReader(src), target.SetQuery)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	settled := make(chan struct{})
	go func() {
		target.Wait()
		close(settled)
	}()
	select {
	case <-settled:
	case <-ctx.Done():
		return nil
	}

	if stopOnEOF {
		stop()
	}
	return nil
}
