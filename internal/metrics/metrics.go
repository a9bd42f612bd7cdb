// Package metrics owns the Prometheus collectors of the wallet process.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	Registry *prometheus.Registry

	ingestOutcomes *prometheus.CounterVec
	storeDuration  *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	seenCache      *prometheus.CounterVec
}

// New registers every collector in a private registry so repeated calls in
// tests never collide.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		ingestOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_ingest_messages_total",
				Help: "Inbound messages by ingestion outcome.",
			},
			[]string{"outcome"},
		),
		storeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wallet_store_operation_duration_seconds",
				Help:    "Duration of state store operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "status"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_http_requests_total",
				Help: "API requests by method, route and status code.",
			},
			[]string{"method", "route", "code"},
		),
		seenCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_seen_cache_lookups_total",
				Help: "Seen-message cache lookups by result.",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) IncIngest(outcome string) {
	if m == nil {
		return
	}
	m.ingestOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveStore records how long a store operation took and whether it failed.
func (m *Metrics) ObserveStore(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.storeDuration.WithLabelValues(operation, status).Observe(time.Since(started).Seconds())
}

func (m *Metrics) IncHTTPRequest(method, route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

func (m *Metrics) IncSeenCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.seenCache.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
