package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	OutcomeSubmitted      = "submitted"
	OutcomeValidation     = "validation_error"
	OutcomeConflict       = "conflict"
	OutcomePartialFailure = "partial_failure"
	OutcomeTimeout        = "timeout"
	OutcomeError          = "error"
)

type Metrics struct {
	Submissions     *prometheus.CounterVec
	PartialFailures prometheus.Counter
	SubmitDuration  prometheus.Histogram
	DraftOperations *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "empresaflow_wizard_submissions_total",
			Help: "Company wizard submissions by outcome",
		}, []string{"outcome"}),
		PartialFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "empresaflow_wizard_partial_failures_total",
			Help: "Submissions whose company insert succeeded but onboarding insert failed",
		}),
		SubmitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "empresaflow_wizard_submit_duration_seconds",
			Help:    "Duration of the submission transaction",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		DraftOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "empresaflow_wizard_draft_operations_total",
			Help: "Draft slot operations by kind and result",
		}, []string{"op", "result"}),
	}
}

func (m *Metrics) IncrementSubmission(outcome string) {
	m.Submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementPartialFailure() {
	m.PartialFailures.Inc()
}

func (m *Metrics) ObserveSubmitDuration(start time.Time) {
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}

// IncrementDraftOperation counts a save, load or discard; result is "ok",
// "miss" or "error".
func (m *Metrics) IncrementDraftOperation(op, result string) {
	m.DraftOperations.WithLabelValues(op, result).Inc()
}
