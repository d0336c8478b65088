package failover

import (
	"log/slog"

	"github.com/emperorhan/multichain-wallet/internal/chain/ratelimit"
)

// Settings are the failover knobs every protocol client accepts.
type Settings struct {
	RateLimitRPS   float64
	RateLimitBurst int
	Breaker        BreakerConfig
	OnStateChange  StateHook
}

// Options turns s into controller options for one network.
func (s Settings) Options(network string, logger *slog.Logger) []Option {
	opts := []Option{WithBreaker(s.Breaker)}
	if s.OnStateChange != nil {
		opts = append(opts, WithStateHook(s.OnStateChange))
	}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	if l := ratelimit.NewLimiter(s.RateLimitRPS, s.RateLimitBurst, network); l != nil {
		opts = append(opts, WithLimiter(l))
	}
	return opts
}
