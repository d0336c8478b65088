package failover

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrEndpointDown is returned when an endpoint's breaker is open.
var ErrEndpointDown = errors.New("endpoint marked down")

// HealthState is the breaker state of one endpoint.
type HealthState int

const (
	HealthUp       HealthState = iota // Normal operation
	HealthDown                        // Failing, attempts short-circuit
	HealthProbing                     // Cool-down elapsed, next attempt decides
)

func (s HealthState) String() string {
	switch s {
	case HealthUp:
		return "up"
	case HealthDown:
		return "down"
	case HealthProbing:
		return "probing"
	default:
		return "unknown"
	}
}

// BreakerConfig configures per-endpoint health tracking.
type BreakerConfig struct {
	FailureThreshold int           // consecutive failures before down (default: 5)
	SuccessThreshold int           // probe successes before up (default: 1)
	OpenTimeout      time.Duration // how long an endpoint stays down (default: 30s)
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 1
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	return c
}

// endpointHealth is a circuit breaker scoped to a single endpoint URL.
type endpointHealth struct {
	mu            sync.Mutex
	cfg           BreakerConfig
	state         HealthState
	failures      int
	probeSuccess  int
	downSince     time.Time
	lastCause     error
	nowFn         func() time.Time
	onStateChange func(from, to HealthState)
}

func newEndpointHealth(cfg BreakerConfig, onStateChange func(from, to HealthState)) *endpointHealth {
	return &endpointHealth{
		cfg:           cfg.withDefaults(),
		state:         HealthUp,
		nowFn:         time.Now,
		onStateChange: onStateChange,
	}
}

// allow reports whether an attempt may be sent to the endpoint. A refusal
// wraps the failure that tripped the breaker.
func (h *endpointHealth) allow() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refreshLocked()
	if h.state != HealthDown {
		return nil
	}
	if h.lastCause != nil {
		return fmt.Errorf("%w: %w", ErrEndpointDown, h.lastCause)
	}
	return ErrEndpointDown
}

func (h *endpointHealth) recordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures = 0
	h.lastCause = nil
	if h.state == HealthDown {
		// reached only when every endpoint was down and the call went through anyway
		h.setStateLocked(HealthUp)
		return
	}
	if h.state == HealthProbing {
		h.probeSuccess++
		if h.probeSuccess >= h.cfg.SuccessThreshold {
			h.setStateLocked(HealthUp)
		}
	}
}

func (h *endpointHealth) recordFailure(cause error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures++
	h.lastCause = cause
	h.probeSuccess = 0
	switch {
	case h.state == HealthProbing:
		h.downSince = h.nowFn()
		h.setStateLocked(HealthDown)
	case h.state == HealthUp && h.failures >= h.cfg.FailureThreshold:
		h.downSince = h.nowFn()
		h.setStateLocked(HealthDown)
	}
}

// down reports whether the breaker is open without changing it.
func (h *endpointHealth) down() bool {
	return h.current() == HealthDown
}

func (h *endpointHealth) current() HealthState {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refreshLocked()
	return h.state
}

func (h *endpointHealth) refreshLocked() {
	if h.state == HealthDown && h.nowFn().Sub(h.downSince) >= h.cfg.OpenTimeout {
		h.setStateLocked(HealthProbing)
	}
}

func (h *endpointHealth) setStateLocked(to HealthState) {
	from := h.state
	if from == to {
		return
	}
	h.state = to
	h.probeSuccess = 0
	if to == HealthUp {
		h.failures = 0
	}
	if h.onStateChange != nil {
		h.onStateChange(from, to)
	}
}
