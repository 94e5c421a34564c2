// Package metrics exposes the node's Prometheus instrumentation: RPC call
// counts/latency by method, and block production counts by mode.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the node registers.
type Metrics struct {
	registry *prometheus.Registry

	rpcRequestsTotal   *prometheus.CounterVec
	rpcRequestDuration *prometheus.HistogramVec
	blocksMinedTotal   *prometheus.CounterVec
	transactionsTotal  prometheus.Counter
}

// New constructs a Metrics with a fresh registry and every collector
// registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		rpcRequestsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Namespace: "eratestnode",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Total JSON-RPC requests handled, labeled by method and outcome.",
		}, []string{"method", "outcome"}),
		rpcRequestDuration: promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "eratestnode",
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "JSON-RPC request handling latency, labeled by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		blocksMinedTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Namespace: "eratestnode",
			Subsystem: "chain",
			Name:      "blocks_mined_total",
			Help:      "Total blocks produced, labeled by trigger (auto, manual, reset).",
		}, []string{"trigger"}),
		transactionsTotal: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Namespace: "eratestnode",
			Subsystem: "chain",
			Name:      "transactions_total",
			Help:      "Total transactions executed.",
		}),
	}
	return m
}

// ObserveRPCRequest records one JSON-RPC call's outcome and latency.
func (m *Metrics) ObserveRPCRequest(method, outcome string, elapsed time.Duration) {
	m.rpcRequestsTotal.WithLabelValues(method, outcome).Inc()
	m.rpcRequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveBlockMined records one block's production, labeled by what
// triggered it.
func (m *Metrics) ObserveBlockMined(trigger string) {
	m.blocksMinedTotal.WithLabelValues(trigger).Inc()
}

// ObserveTransaction records one executed transaction.
func (m *Metrics) ObserveTransaction() {
	m.transactionsTotal.Inc()
}

// Handler returns the HTTP handler serving this Metrics' registry in the
// Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
