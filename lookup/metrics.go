package lookup

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts settled query chains by outcome
type Metrics struct {
	outcomes *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates the pipeline collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classy_weather_queries_total",
				Help: "Settled query chains by outcome.",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "classy_weather_query_duration_seconds",
			Help:    "Time from trigger to settle of a query chain.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.outcomes, m.duration)
	return m
}

func (m *Metrics) observe(o Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(string(o)).Inc()
	m.duration.Observe(elapsed.Seconds())
}
