package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Webhook outcomes.
const (
	OutcomeProcessed  = "processed"
	OutcomeIgnored    = "ignored"
	OutcomeDuplicate  = "duplicate"
	OutcomeRejected   = "rejected"
	OutcomeFailed     = "failed"
	OutcomeSucceeded  = "succeeded"
	OutcomeSkipped    = "skipped"
)

// Metrics owns the service's Prometheus collectors.
type Metrics struct {
	registry       *prometheus.Registry
	WebhookEvents  *prometheus.CounterVec
	MetadataWrites *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Identity provider webhook deliveries by event type and outcome.",
		}, []string{"type", "outcome"}),
		MetadataWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clerk_metadata_writes_total",
			Help: "Public metadata write-backs to the identity provider by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.WebhookEvents,
		m.MetadataWrites,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Webhook counts one delivery.
func (m *Metrics) Webhook(eventType, outcome string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.WebhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// MetadataWrite counts one write-back attempt.
func (m *Metrics) MetadataWrite(outcome string) {
	if m == nil {
		return
	}
	m.MetadataWrites.WithLabelValues(outcome).Inc()
}
