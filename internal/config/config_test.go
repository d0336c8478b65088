package config

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "configs/networks.yaml", cfg.Registry.Path)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, "wallet.tx.submitted", cfg.Redis.Stream)
	assert.Equal(t, 15*time.Second, cfg.Chain.RequestTimeout)
	assert.Equal(t, 5, cfg.Chain.BreakerFailures)
	assert.Equal(t, 3, cfg.Chain.EVMBatchChunkSize)
	assert.Equal(t, int64(10), cfg.Chain.BTCDefaultFeeRate)
	assert.Equal(t, 10*time.Minute, cfg.Chain.TronParamsTTL)
	assert.Equal(t, int64(100_000_000), cfg.Chain.TronFeeLimitSun)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Tracing.Insecure)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
	assert.Empty(t, cfg.Alert.SlackWebhookURL)
	assert.Equal(t, 5*time.Minute, cfg.Alert.Cooldown)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("NETWORKS_FILE", "/etc/walletd/networks.yaml")
	t.Setenv("REDIS_URL", "redis://localhost:6380")
	t.Setenv("RPC_TIMEOUT_SEC", "5")
	t.Setenv("RPC_RATE_LIMIT_RPS", "12.5")
	t.Setenv("RPC_RATE_LIMIT_BURST", "20")
	t.Setenv("EVM_PRIORITY_INCREMENT_GWEI", "2")
	t.Setenv("TRONGRID_API_KEY", "grid-key")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "false")
	t.Setenv("OTEL_TRACES_SAMPLER_RATIO", "0.2")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/etc/walletd/networks.yaml", cfg.Registry.Path)
	assert.Equal(t, "redis://localhost:6380", cfg.Redis.URL)
	assert.Equal(t, 5*time.Second, cfg.Chain.RequestTimeout)
	assert.Equal(t, 12.5, cfg.Chain.RateLimitRPS)
	assert.Equal(t, 20, cfg.Chain.RateLimitBurst)
	assert.Equal(t, "grid-key", cfg.Chain.TronAPIKey)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Tracing.Insecure)
	assert.Equal(t, 0.2, cfg.Tracing.SampleRatio)
	assert.Equal(t, "debug", cfg.Log.Level)

	settings := cfg.ChainSettings()
	assert.Equal(t, 0, settings.EVM.PriorityIncrement.Cmp(big.NewInt(2_000_000_000)))
	assert.Equal(t, 12.5, settings.EVM.Failover.RateLimitRPS)
	assert.Equal(t, 20, settings.Tron.Failover.RateLimitBurst)
	assert.Equal(t, "grid-key", settings.Tron.APIKey)
	assert.Equal(t, 5*time.Second, settings.BTC.RequestTimeout)
	assert.Equal(t, 5, settings.BTC.Failover.Breaker.FailureThreshold)

	tc := cfg.TracingSettings("walletd")
	assert.Equal(t, "walletd", tc.ServiceName)
	assert.Equal(t, 0.2, tc.SampleRatio)
}

func TestLoad_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("HTTP_PORT", "eighty")
	t.Setenv("RPC_RATE_LIMIT_RPS", "fast")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Zero(t, cfg.Chain.RateLimitRPS)
	assert.True(t, cfg.Tracing.Insecure)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "port out of range", env: map[string]string{"HTTP_PORT": "70000"}, want: "HTTP_PORT"},
		{name: "zero timeout", env: map[string]string{"RPC_TIMEOUT_SEC": "0"}, want: "RPC_TIMEOUT_SEC"},
		{name: "negative rps", env: map[string]string{"RPC_RATE_LIMIT_RPS": "-1"}, want: "RPC_RATE_LIMIT_RPS"},
		{name: "zero fee rate", env: map[string]string{"BTC_DEFAULT_FEE_RATE": "0"}, want: "BTC_DEFAULT_FEE_RATE"},
		{name: "sampler ratio", env: map[string]string{"OTEL_TRACES_SAMPLER_RATIO": "1.5"}, want: "OTEL_TRACES_SAMPLER_RATIO"},
		{name: "negative alert cooldown", env: map[string]string{"ALERT_COOLDOWN_SEC": "-1"}, want: "ALERT_COOLDOWN_SEC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
