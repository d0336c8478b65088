package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chain access counters and histograms, partitioned by network.

var (
	// RPC transport
	RPCCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet",
		Subsystem: "rpc",
		Name:      "calls_total",
		Help:      "Total upstream calls by method and outcome",
	}, []string{"network", "method", "status"})

	RPCCallLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wallet",
		Subsystem: "rpc",
		Name:      "call_duration_seconds",
		Help:      "Upstream call duration",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"network", "method"})

	RPCRateLimitWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet",
		Subsystem: "rpc",
		Name:      "rate_limit_waits_total",
		Help:      "Total times upstream calls waited for rate limiter",
	}, []string{"network"})

	// Failover
	FailoverRotations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet",
		Subsystem: "failover",
		Name:      "rotations_total",
		Help:      "Total endpoint rotations after a failed attempt",
	}, []string{"network"})

	FailoverExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet",
		Subsystem: "failover",
		Name:      "exhausted_total",
		Help:      "Total calls that failed on every endpoint",
	}, []string{"network"})

	FailoverConnected = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "wallet",
		Subsystem: "failover",
		Name:      "connected",
		Help:      "1 when the last call succeeded, 0 after exhaustion",
	}, []string{"network"})

	EndpointBreakerOpen = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "wallet",
		Subsystem: "failover",
		Name:      "breaker_open",
		Help:      "1 when the endpoint circuit breaker is open",
	}, []string{"network", "endpoint"})

	// Batch aggregation
	BatchChunksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet",
		Subsystem: "batch",
		Name:      "chunks_total",
		Help:      "Total batch balance chunks by outcome",
	}, []string{"network", "status"})

	// Repository
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet",
		Subsystem: "repository",
		Name:      "operations_total",
		Help:      "Total repository operations by outcome",
	}, []string{"network", "operation", "status"})

	OperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wallet",
		Subsystem: "repository",
		Name:      "operation_duration_seconds",
		Help:      "Repository operation duration including failover",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"network", "operation"})

	TransactionsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet",
		Subsystem: "repository",
		Name:      "transactions_submitted_total",
		Help:      "Total transactions accepted by a node",
	}, []string{"network"})

	// Factory
	FactoryClientsCached = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wallet",
		Subsystem: "factory",
		Name:      "clients_cached",
		Help:      "Number of chain clients held by the factory",
	})

	// Event stream
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Total submission events published by outcome",
	}, []string{"status"})

	// Alerts
	AlertsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet",
		Subsystem: "alerts",
		Name:      "sent_total",
		Help:      "Total alerts delivered by channel and type",
	}, []string{"channel", "type"})

	AlertsCooldownSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet",
		Subsystem: "alerts",
		Name:      "cooldown_skipped_total",
		Help:      "Total alerts suppressed by the per-network cooldown",
	}, []string{"channel", "type"})

	// Caches
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Total cache lookups by result",
	}, []string{"cache", "result"})

	// HTTP API
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total API requests by route and status code",
	}, []string{"route", "code"})
)
