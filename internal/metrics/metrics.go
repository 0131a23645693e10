// Package metrics exposes Prometheus instrumentation for the catalog: HTTP
// request counters and repository operation timings.
package metrics

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	registry *prometheus.Registry

	repoOps         *prometheus.CounterVec
	repoDuration    *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	rateLimitDenied prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg uses a
// fresh private registry, which keeps tests independent.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: reg,
		repoOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "videocatalog",
			Name:      "repository_operations_total",
			Help:      "Repository operations by repository, operation and result.",
		}, []string{"repository", "operation", "result"}),
		repoDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "videocatalog",
			Name:      "repository_operation_duration_seconds",
			Help:      "Latency of repository operations.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"repository", "operation"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "videocatalog",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "videocatalog",
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimitDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "videocatalog",
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}

	var err error
	if m.repoOps, err = register(reg, m.repoOps); err != nil {
		return nil, err
	}
	if m.repoDuration, err = register(reg, m.repoDuration); err != nil {
		return nil, err
	}
	if m.httpRequests, err = register(reg, m.httpRequests); err != nil {
		return nil, err
	}
	if m.httpDuration, err = register(reg, m.httpDuration); err != nil {
		return nil, err
	}
	if m.rateLimitDenied, err = register(reg, m.rateLimitDenied); err != nil {
		return nil, err
	}
	if _, err = register(reg, collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if _, err = register(reg, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	return m, nil
}

// RegisterDB exports connection pool statistics for db under dbName.
func (m *Metrics) RegisterDB(db *sql.DB, dbName string) error {
	_, err := register(m.registry, collectors.NewDBStatsCollector(db, dbName))
	return err
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRepository records one repository call.
func (m *Metrics) ObserveRepository(repository, operation string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.repoOps.WithLabelValues(repository, operation, result).Inc()
	m.repoDuration.WithLabelValues(repository, operation).Observe(time.Since(start).Seconds())
}

// ObserveHTTP records one HTTP request. route is the matched mux pattern,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, start time.Time) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

// RateLimited records a request rejected by the rate limiter.
func (m *Metrics) RateLimited() {
	m.rateLimitDenied.Inc()
}

// register adds c to reg. When an equal collector is already registered the
// existing one is returned so repeated construction shares the same series.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
