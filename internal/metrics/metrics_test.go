package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_AllVariablesNonNil(t *testing.T) {
	t.Parallel()

	vars := []struct {
		name string
		val  any
	}{
		{"RPCCallsTotal", RPCCallsTotal},
		{"RPCCallLatency", RPCCallLatency},
		{"RPCRateLimitWaits", RPCRateLimitWaits},
		{"FailoverRotations", FailoverRotations},
		{"FailoverExhausted", FailoverExhausted},
		{"FailoverConnected", FailoverConnected},
		{"EndpointBreakerOpen", EndpointBreakerOpen},
		{"BatchChunksTotal", BatchChunksTotal},
		{"OperationsTotal", OperationsTotal},
		{"OperationLatency", OperationLatency},
		{"TransactionsSubmitted", TransactionsSubmitted},
		{"FactoryClientsCached", FactoryClientsCached},
		{"EventsPublished", EventsPublished},
		{"AlertsSentTotal", AlertsSentTotal},
		{"AlertsCooldownSkipped", AlertsCooldownSkipped},
		{"CacheLookups", CacheLookups},
		{"HTTPRequestsTotal", HTTPRequestsTotal},
	}

	for _, v := range vars {
		assert.NotNilf(t, v.val, "%s should not be nil", v.name)
	}
}

func TestMetrics_CounterIncrementNoPanic(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { RPCCallsTotal.WithLabelValues("test-net", "eth_getBalance", "ok").Inc() })
	assert.NotPanics(t, func() { RPCRateLimitWaits.WithLabelValues("test-net").Inc() })
	assert.NotPanics(t, func() { FailoverRotations.WithLabelValues("test-net").Inc() })
	assert.NotPanics(t, func() { FailoverExhausted.WithLabelValues("test-net").Inc() })
	assert.NotPanics(t, func() { BatchChunksTotal.WithLabelValues("test-net", "ok").Inc() })
	assert.NotPanics(t, func() { OperationsTotal.WithLabelValues("test-net", "balance", "ok").Inc() })
	assert.NotPanics(t, func() { TransactionsSubmitted.WithLabelValues("test-net").Inc() })
	assert.NotPanics(t, func() { EventsPublished.WithLabelValues("ok").Inc() })
	assert.NotPanics(t, func() { AlertsSentTotal.WithLabelValues("slack", "UNHEALTHY").Inc() })
	assert.NotPanics(t, func() { CacheLookups.WithLabelValues("tron_params", "hit").Inc() })
	assert.NotPanics(t, func() { HTTPRequestsTotal.WithLabelValues("balance", "200").Inc() })
}

func TestMetrics_GaugeAndHistogramNoPanic(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { FailoverConnected.WithLabelValues("gauge-net").Set(1) })
	assert.NotPanics(t, func() { EndpointBreakerOpen.WithLabelValues("gauge-net", "0").Set(0) })
	assert.NotPanics(t, func() { FactoryClientsCached.Set(3) })
	assert.NotPanics(t, func() { RPCCallLatency.WithLabelValues("gauge-net", "eth_call").Observe(0.2) })
	assert.NotPanics(t, func() { OperationLatency.WithLabelValues("gauge-net", "history").Observe(1.5) })

	FailoverConnected.WithLabelValues("gauge-net-2").Set(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(FailoverConnected.WithLabelValues("gauge-net-2")))
}
