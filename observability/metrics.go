package observability

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "raritystake"

// RPCMetrics tracks JSON-RPC calls served by the ledger daemon.
type RPCMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	throttle *prometheus.CounterVec
	replays  *prometheus.CounterVec
}

// LedgerMetrics tracks committed ledger events.
type LedgerMetrics struct {
	events    *prometheus.CounterVec
	transfers *prometheus.CounterVec
}

var (
	registerOnce sync.Once
	rpcMetrics   *RPCMetrics
	ledger       *LedgerMetrics
)

func register() {
	registerOnce.Do(func() {
		rpcMetrics = &RPCMetrics{
			calls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "calls_total",
				Help:      "JSON-RPC calls by method and HTTP status.",
			}, []string{"method", "status"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "call_duration_seconds",
				Help:      "JSON-RPC handler latency by method.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			}, []string{"method"}),
			throttle: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "throttled_total",
				Help:      "Requests rejected before dispatch, by reason.",
			}, []string{"reason"}),
			replays: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "idempotent_replays_total",
				Help:      "Responses served from the idempotency cache, by method.",
			}, []string{"method"}),
		}
		ledger = &LedgerMetrics{
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "events_total",
				Help:      "Committed ledger events by type.",
			}, []string{"type"}),
			transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "transfers_total",
				Help:      "Committed token and NFT transfers by asset.",
			}, []string{"asset"}),
		}
		prometheus.MustRegister(
			rpcMetrics.calls,
			rpcMetrics.duration,
			rpcMetrics.throttle,
			rpcMetrics.replays,
			ledger.events,
			ledger.transfers,
		)
	})
}

// RPC returns the process-wide RPC metrics, registering them on first use.
func RPC() *RPCMetrics {
	register()
	return rpcMetrics
}

// Ledger returns the process-wide ledger metrics, registering them on first use.
func Ledger() *LedgerMetrics {
	register()
	return ledger
}

func label(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}

// Observe records one dispatched call with the status finally written.
func (m *RPCMetrics) Observe(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	method = label(method, "unknown")
	m.calls.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Throttled counts a request rejected before dispatch.
func (m *RPCMetrics) Throttled(reason string) {
	if m == nil {
		return
	}
	m.throttle.WithLabelValues(label(reason, "unspecified")).Inc()
}

// Replayed counts a response served from the idempotency cache.
func (m *RPCMetrics) Replayed(method string) {
	if m == nil {
		return
	}
	m.replays.WithLabelValues(label(method, "unknown")).Inc()
}

// Event counts a committed event of eventType.
func (m *LedgerMetrics) Event(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(label(eventType, "unknown")).Inc()
}

// Transfer counts a committed transfer of asset. Symbols are upper-cased.
func (m *LedgerMetrics) Transfer(asset string) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(strings.ToUpper(label(asset, "unknown"))).Inc()
}
