package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cashelan"

// Metrics holds the collectors of the payment workflow.
type Metrics struct {
	registry *prometheus.Registry

	Transitions        *prometheus.CounterVec
	IllegalTransitions *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	HandoffFailures    *prometheus.CounterVec
	Confirmations      *prometheus.CounterVec
	ConfirmSeconds     prometheus.Histogram

	HTTPRequests *prometheus.CounterVec
	HTTPSeconds  *prometheus.HistogramVec

	Reminders *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_transitions_total",
			Help:      "Workflow state transitions by source and target state.",
		}, []string{"from", "to"}),
		IllegalTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_illegal_transitions_total",
			Help:      "Rejected transition attempts by current state and action.",
		}, []string{"state", "action"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draft_validation_failures_total",
			Help:      "Draft validation failures by error kind and field.",
		}, []string{"kind", "field"}),
		HandoffFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handoff_failures_total",
			Help:      "Rejected step handoffs by transition and error kind.",
		}, []string{"transition", "kind"}),
		Confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmations_total",
			Help:      "Confirmation attempts by outcome.",
		}, []string{"outcome"}),
		ConfirmSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confirmation_duration_seconds",
			Help:      "Time spent in the confirmation collaborator.",
			Buckets:   prometheus.DefBuckets,
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_reminders_total",
			Help:      "Scheduled bill reminder attempts by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.Transitions,
		m.IllegalTransitions,
		m.ValidationFailures,
		m.HandoffFailures,
		m.Confirmations,
		m.ConfirmSeconds,
		m.HTTPRequests,
		m.HTTPSeconds,
		m.Reminders,
	)
	return m
}

// Registry exposes the registry for extra collectors and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome labels for Confirmations.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeRetry   = "retry"
)
