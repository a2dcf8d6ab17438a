// Package metrics provides Prometheus metrics for the identity gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cram_gateway"

// Metrics groups the gateway collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	GuardDecisions     *prometheus.CounterVec
	SessionResolutions *prometheus.CounterVec
	ProvisionOutcomes  *prometheus.CounterVec
	IdPRetries         *prometheus.CounterVec
	IdPDuration        *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GuardDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "guard_decisions_total",
				Help:      "Route guard decisions by kind and reason",
			},
			[]string{"decision", "reason"},
		),
		SessionResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_resolutions_total",
				Help:      "Session resolutions by result",
			},
			[]string{"result"},
		),
		ProvisionOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provision_outcomes_total",
				Help:      "Provisioning saga outcomes by flow",
			},
			[]string{"flow", "outcome"},
		),
		IdPRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "idp_retries_total",
				Help:      "Identity provider calls retried after a timeout",
			},
			[]string{"operation"},
		),
		IdPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "idp_call_duration_seconds",
				Help:      "Duration of identity provider calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (m *Metrics) GuardDecision(decision, reason string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(decision, reason).Inc()
}

func (m *Metrics) SessionResolution(result string) {
	if m == nil {
		return
	}
	m.SessionResolutions.WithLabelValues(result).Inc()
}

func (m *Metrics) ProvisionOutcome(flow, outcome string) {
	if m == nil {
		return
	}
	m.ProvisionOutcomes.WithLabelValues(flow, outcome).Inc()
}

func (m *Metrics) IdPRetry(operation string) {
	if m == nil {
		return
	}
	m.IdPRetries.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveIdP(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.IdPDuration.WithLabelValues(operation).Observe(seconds)
}
