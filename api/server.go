package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"classy-weather/lookup"
	"classy-weather/models"
	"classy-weather/view"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes caps the PUT /api/location request body
const maxBodyBytes = 4 << 10

// Widget is the part of the lookup pipeline the API drives
type Widget interface {
	SetQuery(query string)
	State() lookup.State
}

// WeatherResponse is the body of GET /api/weather
type WeatherResponse struct {
	Title     string            `json:"title"`
	Query     string            `json:"query"`
	Loading   bool              `json:"loading"`
	Label     string            `json:"label,omitempty"`
	Place     *models.Place     `json:"place,omitempty"`
	Days      []view.DaySummary `json:"days"`
	UpdatedAt *time.Time        `json:"updatedAt,omitempty"`
}

// LocationRequest is the body of PUT /api/location
type LocationRequest struct {
	Location string `json:"location"`
}

// Server represents the control API server
type Server struct {
	widget Widget
	logger *slog.Logger
	server *http.Server
}

// NewServer creates a control API server listening on addr. Metrics are
// served from gatherer.
func NewServer(widget Widget, gatherer prometheus.Gatherer, addr string, logger *slog.Logger) *Server {
	s := &Server{
		widget: widget,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealthCheck)
		r.Get("/weather", s.handleGetWeather)
		r.Put("/location", s.handleSetLocation)
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.server = &http.Server{
		Addr:              addr,
		Handler:           gzhttp.GzipHandler(r),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins the API server and blocks until it stops. A server stopped by
// Shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleGetWeather(w http.ResponseWriter, r *http.Request) {
	state := s.widget.State()

	resp := WeatherResponse{
		Title:   view.Title,
		Query:   state.Query,
		Loading: state.Loading,
		Label:   state.Label,
		Place:   state.Place,
		Days:    view.Summaries(state.Forecast),
	}
	if !state.UpdatedAt.IsZero() {
		resp.UpdatedAt = &state.UpdatedAt
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetLocation(w http.ResponseWriter, r *http.Request) {
	var req LocationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid request body: " + err.Error(),
		})
		return
	}

	s.logger.Debug("location set via API", "location", req.Location, "remote", r.RemoteAddr)
	s.widget.SetQuery(req.Location)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"location": req.Location,
	})
}

// handleHealthCheck provides a simple health check endpoint
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
