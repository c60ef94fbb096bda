package telemetry

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus owns the registry scraped on /metrics.
type Prometheus struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge
	rateLimited  *prometheus.CounterVec
}

// NewPrometheus creates a registry with Go runtime, process and HTTP metrics.
func NewPrometheus(namespace string) *Prometheus {
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   HTTPDurationBuckets,
		}, []string{"method", "route"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by a rate limiter.",
		}, []string{"limiter"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.httpRequests,
		p.httpDuration,
		p.httpInFlight,
		p.rateLimited,
	)
	return p
}

// Registry exposes the registry for extra collectors
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus text format
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// ObserveHTTP records one finished request
func (p *Prometheus) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// InFlight returns the gauge of requests being served
func (p *Prometheus) InFlight() prometheus.Gauge {
	return p.httpInFlight
}

// RateLimited counts a rejection by the named limiter
func (p *Prometheus) RateLimited(limiter string) {
	p.rateLimited.WithLabelValues(limiter).Inc()
}

// RegisterDBStats exports database/sql pool statistics
func (p *Prometheus) RegisterDBStats(db *sql.DB, dbName string) error {
	return p.registry.Register(collectors.NewDBStatsCollector(db, dbName))
}

// RegisterCounterFunc exports a monotonically increasing value read on scrape
func (p *Prometheus) RegisterCounterFunc(namespace, name, help string, labels prometheus.Labels, fn func() float64) error {
	return p.registry.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        name,
		Help:        help,
		ConstLabels: labels,
	}, fn))
}
