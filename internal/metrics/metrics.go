// Package metrics exposes dispatch counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "campaign_mailer"

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	EmailsSent       prometheus.Counter
	EmailsFailed     prometheus.Counter
	EmailsSkipped    *prometheus.CounterVec
	DispatchDuration prometheus.Histogram
	DispatchInFlight prometheus.Gauge
	HTTPRequests     *prometheus.CounterVec
}

// New registers all collectors on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		EmailsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Emails accepted by the mail transport.",
		}),
		EmailsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_failed_total",
			Help:      "Emails the mail transport rejected.",
		}),
		EmailsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_skipped_total",
			Help:      "Recipients skipped before any send attempt.",
		}, []string{"reason"}),
		DispatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Wall time of one campaign dispatch.",
			Buckets:   []float64{1, 5, 15, 30, 60, 300, 900, 3600},
		}),
		DispatchInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatches_in_flight",
			Help:      "Campaign dispatches currently running.",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
	}

	reg.MustRegister(collectors.NewGoCollector())
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Sent() {
	if m != nil {
		m.EmailsSent.Inc()
	}
}

func (m *Metrics) Failed() {
	if m != nil {
		m.EmailsFailed.Inc()
	}
}

func (m *Metrics) Skipped(reason string) {
	if m != nil {
		m.EmailsSkipped.WithLabelValues(reason).Inc()
	}
}

// DispatchStarted marks a dispatch as running and returns the function that ends it.
func (m *Metrics) DispatchStarted() func() {
	if m == nil {
		return func() {}
	}
	m.DispatchInFlight.Inc()
	timer := prometheus.NewTimer(m.DispatchDuration)
	return func() {
		timer.ObserveDuration()
		m.DispatchInFlight.Dec()
	}
}
