package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide HTTP metrics.
type Metrics struct {
	EndpointLatency  *prometheus.HistogramVec
	LoginAttempts    *prometheus.CounterVec
	ResidentsCreated prometheus.Counter
}

// New creates and registers the metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EndpointLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hostelgate_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route pattern and status",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hostelgate_login_attempts_total",
			Help: "Login attempts by role and outcome",
		}, []string{"role", "outcome"}),
		ResidentsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "hostelgate_residents_created_total",
			Help: "Total number of residents registered",
		}),
	}
}

// ObserveEndpointLatency records one request.
func (m *Metrics) ObserveEndpointLatency(method, route string, status int, start time.Time) {
	m.EndpointLatency.WithLabelValues(method, route, statusClass(status)).Observe(time.Since(start).Seconds())
}

// IncrementLoginAttempt counts a login by role and outcome ("success" or "failure").
func (m *Metrics) IncrementLoginAttempt(role, outcome string) {
	m.LoginAttempts.WithLabelValues(role, outcome).Inc()
}

// IncrementResidentsCreated counts a successful registration.
func (m *Metrics) IncrementResidentsCreated() {
	m.ResidentsCreated.Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
