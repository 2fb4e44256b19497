package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP-level Prometheus metrics for the application.
type Metrics struct {
	RequestDuration       *prometheus.HistogramVec
	OnboardingTransitions *prometheus.CounterVec
}

// New creates and registers the metrics on reg. Pass prometheus.DefaultRegisterer in main
// and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "empresaflow_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route pattern and status class",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route", "status"}),
		OnboardingTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "empresaflow_onboarding_transitions_total",
			Help: "Onboarding status transitions by target status",
		}, []string{"status"}),
	}
}

// ObserveRequest records the duration of a request.
func (m *Metrics) ObserveRequest(route, status string, start time.Time) {
	m.RequestDuration.WithLabelValues(route, status).Observe(time.Since(start).Seconds())
}

// IncrementOnboardingTransition counts a successful onboarding status change.
func (m *Metrics) IncrementOnboardingTransition(status string) {
	m.OnboardingTransitions.WithLabelValues(status).Inc()
}
