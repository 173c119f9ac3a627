// Package metrics exposes Prometheus collectors for authentication,
// session expiry, inventory changes and request latency.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can create as many instances as
// they like.  All recording methods are safe on a nil receiver.
type Metrics struct {
	registry        *prometheus.Registry
	loginAttempts   *prometheus.CounterVec
	sessionsExpired prometheus.Counter
	productChanges  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kasirku",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome (success, invalid, error).",
		}, []string{"outcome"}),
		sessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kasirku",
			Name:      "sessions_expired_total",
			Help:      "Sessions rejected by the inactivity timeout.",
		}),
		productChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kasirku",
			Name:      "product_changes_total",
			Help:      "Product mutations by action (created, updated, deleted).",
		}, []string{"action"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kasirku",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status class.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.loginAttempts,
		m.sessionsExpired,
		m.productChanges,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SessionExpired() {
	if m == nil {
		return
	}
	m.sessionsExpired.Inc()
}

func (m *Metrics) ProductChanged(action string) {
	if m == nil {
		return
	}
	m.productChanges.WithLabelValues(action).Inc()
}

func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
