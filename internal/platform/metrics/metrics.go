// Package metrics exposes Prometheus instrumentation for the API process.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	transitions  *prometheus.CounterVec
}

func New(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "ardhi",
			Name:        "http_requests_total",
			Help:        "HTTP requests by route pattern and status code.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "ardhi",
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency by route pattern.",
			ConstLabels: prometheus.Labels{"service": serviceName},
			Buckets:     prometheus.DefBuckets,
		}, []string{"route", "method"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "ardhi",
			Name:        "application_transitions_total",
			Help:        "Search application status transitions.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"to_status"}),
	}
	registry.MustRegister(m.httpRequests, m.httpDuration, m.transitions)
	return m
}

// Handler serves the scrape endpoint for this process's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveTransition(toStatus string) {
	m.transitions.WithLabelValues(toStatus).Inc()
}

// Middleware records request counts and latency. The route pattern label is
// the registered mux pattern, not the raw URL, so cardinality stays bounded.
func (m *Metrics) Middleware(pattern string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)

		m.httpRequests.WithLabelValues(pattern, r.Method, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(pattern, r.Method).Observe(time.Since(started).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
