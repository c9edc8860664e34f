// Package metrics exposes Prometheus counters for the submission front
// door.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics captures request and submission counters.
type Metrics interface {
	ObserveRequest(method, route, status string, durationSeconds float64)
	IncSubmission(engine, outcome string)
}

// Noop implements Metrics without emitting anything.
type Noop struct{}

func (Noop) ObserveRequest(string, string, string, float64) {}
func (Noop) IncSubmission(string, string)                   {}

// Prom implements Metrics backed by Prometheus counters.
type Prom struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	submissions *prometheus.CounterVec
}

// NewProm constructs a Prom registering its collectors under the given
// namespace.
func NewProm(namespace string) *Prom {
	p := &Prom{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method/route/status",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method/route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Workflow submissions by engine and outcome",
		}, []string{"engine", "outcome"}),
	}
	prometheus.MustRegister(p.requests, p.latency, p.submissions)
	return p
}

func (p *Prom) ObserveRequest(method, route, status string, durationSeconds float64) {
	p.requests.WithLabelValues(method, route, status).Inc()
	p.latency.WithLabelValues(method, route).Observe(durationSeconds)
}

func (p *Prom) IncSubmission(engine, outcome string) {
	p.submissions.WithLabelValues(engine, outcome).Inc()
}

// Handler returns an HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
