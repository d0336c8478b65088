package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emperorhan/multichain-wallet/internal/chain/btc"
	"github.com/emperorhan/multichain-wallet/internal/chain/evm"
	"github.com/emperorhan/multichain-wallet/internal/chain/factory"
	"github.com/emperorhan/multichain-wallet/internal/chain/failover"
	"github.com/emperorhan/multichain-wallet/internal/chain/tron"
	"github.com/emperorhan/multichain-wallet/internal/tracing"
)

type Config struct {
	Registry RegistryConfig
	Redis    RedisConfig
	Chain    ChainConfig
	Server   ServerConfig
	Tracing  TracingConfig
	Alert    AlertConfig
	Log      LogConfig
}

type RegistryConfig struct {
	Path string
}

// RedisConfig enables the submission event stream. An empty URL keeps events
// in process.
type RedisConfig struct {
	URL    string
	Stream string
}

type ChainConfig struct {
	RequestTimeout      time.Duration
	RateLimitRPS        float64
	RateLimitBurst      int
	BreakerFailures     int
	BreakerOpenTimeout  time.Duration
	EVMBatchChunkSize   int
	EVMBatchConcurrency int
	EVMPriorityGwei     int
	EtherscanAPIKey     string
	BTCDefaultFeeRate   int64
	TronAPIKey          string
	TronParamsTTL       time.Duration
	TronFeeLimitSun     int64
	FanOutConcurrency   int
	WalletConcurrency   int
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type TracingConfig struct {
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

// AlertConfig routes endpoint outage alerts. With neither URL set alerts are
// dropped.
type AlertConfig struct {
	SlackWebhookURL string
	WebhookURL      string
	Cooldown        time.Duration
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Registry: RegistryConfig{
			Path: getEnv("NETWORKS_FILE", "configs/networks.yaml"),
		},
		Redis: RedisConfig{
			URL:    getEnv("REDIS_URL", ""),
			Stream: getEnv("EVENT_STREAM", "wallet.tx.submitted"),
		},
		Chain: ChainConfig{
			RequestTimeout:      time.Duration(getEnvInt("RPC_TIMEOUT_SEC", 15)) * time.Second,
			RateLimitRPS:        getEnvFloat("RPC_RATE_LIMIT_RPS", 0),
			RateLimitBurst:      getEnvInt("RPC_RATE_LIMIT_BURST", 0),
			BreakerFailures:     getEnvInt("BREAKER_FAILURE_THRESHOLD", 5),
			BreakerOpenTimeout:  time.Duration(getEnvInt("BREAKER_OPEN_TIMEOUT_SEC", 30)) * time.Second,
			EVMBatchChunkSize:   getEnvInt("EVM_BATCH_CHUNK_SIZE", 3),
			EVMBatchConcurrency: getEnvInt("EVM_BATCH_CONCURRENCY", 4),
			EVMPriorityGwei:     getEnvInt("EVM_PRIORITY_INCREMENT_GWEI", 1),
			EtherscanAPIKey:     getEnv("ETHERSCAN_API_KEY", ""),
			BTCDefaultFeeRate:   int64(getEnvInt("BTC_DEFAULT_FEE_RATE", 10)),
			TronAPIKey:          getEnv("TRONGRID_API_KEY", ""),
			TronParamsTTL:       time.Duration(getEnvInt("TRON_PARAMS_TTL_SEC", 600)) * time.Second,
			TronFeeLimitSun:     int64(getEnvInt("TRON_FEE_LIMIT_SUN", 100_000_000)),
			FanOutConcurrency:   getEnvInt("FANOUT_CONCURRENCY", 8),
			WalletConcurrency:   getEnvInt("WALLET_CONCURRENCY", 4),
		},
		Server: ServerConfig{
			Port:         getEnvInt("HTTP_PORT", 8080),
			ReadTimeout:  time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SEC", 10)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SEC", 60)) * time.Second,
		},
		Tracing: TracingConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			SampleRatio: getEnvFloat("OTEL_TRACES_SAMPLER_RATIO", 1),
		},
		Alert: AlertConfig{
			SlackWebhookURL: getEnv("ALERT_SLACK_WEBHOOK_URL", ""),
			WebhookURL:      getEnv("ALERT_WEBHOOK_URL", ""),
			Cooldown:        time.Duration(getEnvInt("ALERT_COOLDOWN_SEC", 300)) * time.Second,
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Registry.Path) == "" {
		return fmt.Errorf("NETWORKS_FILE is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT out of range: %d", c.Server.Port)
	}
	if c.Chain.RequestTimeout <= 0 {
		return fmt.Errorf("RPC_TIMEOUT_SEC must be positive")
	}
	if c.Chain.RateLimitRPS < 0 {
		return fmt.Errorf("RPC_RATE_LIMIT_RPS must not be negative")
	}
	if c.Chain.BTCDefaultFeeRate <= 0 {
		return fmt.Errorf("BTC_DEFAULT_FEE_RATE must be positive")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("OTEL_TRACES_SAMPLER_RATIO must be within [0,1]")
	}
	if c.Alert.Cooldown < 0 {
		return fmt.Errorf("ALERT_COOLDOWN_SEC must not be negative")
	}
	return nil
}

// ChainSettings derives the per-family client configuration.
func (c *Config) ChainSettings() factory.Settings {
	fo := failover.Settings{
		RateLimitRPS:   c.Chain.RateLimitRPS,
		RateLimitBurst: c.Chain.RateLimitBurst,
		Breaker: failover.BreakerConfig{
			FailureThreshold: c.Chain.BreakerFailures,
			OpenTimeout:      c.Chain.BreakerOpenTimeout,
		},
	}
	return factory.Settings{
		EVM: evm.Config{
			RequestTimeout:    c.Chain.RequestTimeout,
			BatchChunkSize:    c.Chain.EVMBatchChunkSize,
			BatchConcurrency:  c.Chain.EVMBatchConcurrency,
			PriorityIncrement: new(big.Int).Mul(big.NewInt(int64(c.Chain.EVMPriorityGwei)), big.NewInt(1_000_000_000)),
			ExplorerAPIKey:    c.Chain.EtherscanAPIKey,
			Failover:          fo,
		},
		BTC: btc.Config{
			RequestTimeout:    c.Chain.RequestTimeout,
			DefaultFeeRate:    c.Chain.BTCDefaultFeeRate,
			FanOutConcurrency: c.Chain.FanOutConcurrency,
			Failover:          fo,
		},
		Tron: tron.Config{
			RequestTimeout:    c.Chain.RequestTimeout,
			APIKey:            c.Chain.TronAPIKey,
			FanOutConcurrency: c.Chain.FanOutConcurrency,
			ParamsTTL:         c.Chain.TronParamsTTL,
			DefaultFeeLimit:   c.Chain.TronFeeLimitSun,
			Failover:          fo,
		},
	}
}

func (c *Config) TracingSettings(service string) tracing.Config {
	return tracing.Config{
		ServiceName: service,
		Endpoint:    c.Tracing.Endpoint,
		Insecure:    c.Tracing.Insecure,
		SampleRatio: c.Tracing.SampleRatio,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
