package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// UnknownAction is the action label for actions a case kind does not declare.
const UnknownAction = "unknown"

// Metrics counts lifecycle transitions, guard decisions and lost claim races.
// A nil *Metrics records nothing.
type Metrics struct {
	Transitions    *prometheus.CounterVec
	GuardDecisions *prometheus.CounterVec
	ClaimConflicts prometheus.Counter
	ActionDuration prometheus.Histogram
}

// New registers every portal metric on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "caseportal_transitions_total",
			Help: "Lifecycle action attempts by kind, action and result",
		}, []string{"kind", "action", "result"}),
		GuardDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "caseportal_guard_decisions_total",
			Help: "Navigation guard decisions by outcome",
		}, []string{"outcome"}),
		ClaimConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "caseportal_claim_conflicts_total",
			Help: "Claims that lost a concurrent race",
		}),
		ActionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "caseportal_action_duration_seconds",
			Help:    "Duration of ApplyAction including persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) ObserveTransition(kind, action, result string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(kind, action, result).Inc()
}

func (m *Metrics) ObserveGuard(outcome string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementClaimConflict() {
	if m == nil {
		return
	}
	m.ClaimConflicts.Inc()
}

// ObserveAction records the duration of an ApplyAction call started at start.
func (m *Metrics) ObserveAction(start time.Time) {
	if m == nil {
		return
	}
	m.ActionDuration.Observe(time.Since(start).Seconds())
}
