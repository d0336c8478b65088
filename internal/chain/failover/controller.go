// Package failover rotates a protocol client across an ordered list of
// equivalent endpoints.
package failover

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/chain/ratelimit"
	"github.com/emperorhan/multichain-wallet/internal/chain/retry"
	"github.com/emperorhan/multichain-wallet/internal/metrics"
)

// ConnState reports whether the last call through the controller succeeded.
type ConnState int

const (
	Disconnected ConnState = iota
	Connected
)

func (s ConnState) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Dialer builds a client for one endpoint. It must not perform network I/O.
type Dialer[T any] func(endpoint string) (T, error)

// Option customizes a Controller.
type Option func(*options)

type options struct {
	breaker BreakerConfig
	limiter *ratelimit.Limiter
	logger  *slog.Logger
	hook    StateHook
}

// StateHook observes connection state transitions. It runs synchronously on
// the calling goroutine and must not block.
type StateHook func(network string, from, to ConnState)

// WithBreaker overrides the per-endpoint health thresholds.
func WithBreaker(cfg BreakerConfig) Option {
	return func(o *options) { o.breaker = cfg }
}

// WithLimiter throttles every attempt through l.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(o *options) { o.limiter = l }
}

// WithStateHook registers h for Connected/Disconnected transitions. The
// initial Disconnected state is not reported.
func WithStateHook(h StateHook) Option {
	return func(o *options) { o.hook = h }
}

// WithLogger sets the controller logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Controller holds the current endpoint index and the lazily built client for
// it. The mutex guards index, client and state; calls run outside it.
type Controller[T any] struct {
	network   string
	endpoints []string
	dial      Dialer[T]
	health    []*endpointHealth
	limiter   *ratelimit.Limiter
	logger    *slog.Logger
	hook      StateHook

	mu      sync.Mutex
	index   int
	client  T
	built   bool
	state   ConnState
	settled bool
}

// New returns a controller starting at the first endpoint. An empty endpoint
// list is a configuration error.
func New[T any](network string, endpoints []string, dial Dialer[T], opts ...Option) (*Controller[T], error) {
	if len(endpoints) == 0 {
		return nil, chain.ConfigError("failover.New", fmt.Errorf("network %s: no endpoints configured", network))
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Controller[T]{
		network:   network,
		endpoints: append([]string(nil), endpoints...),
		dial:      dial,
		limiter:   o.limiter,
		hook:      o.hook,
		logger:    o.logger.With("component", "failover", "network", network),
		state:     Disconnected,
	}
	c.health = make([]*endpointHealth, len(endpoints))
	for i := range endpoints {
		label := strconv.Itoa(i)
		c.health[i] = newEndpointHealth(o.breaker, func(from, to HealthState) {
			open := 0.0
			if to == HealthDown {
				open = 1
			}
			metrics.EndpointBreakerOpen.WithLabelValues(network, label).Set(open)
			c.logger.Warn("endpoint health changed", "endpoint", label, "from", from.String(), "to", to.String())
		})
	}
	return c, nil
}

// Network returns the label the controller reports under.
func (c *Controller[T]) Network() string {
	return c.network
}

// Len returns the number of configured endpoints.
func (c *Controller[T]) Len() int {
	return len(c.endpoints)
}

// State returns the connection state after the most recent call.
func (c *Controller[T]) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Index returns the position of the current endpoint.
func (c *Controller[T]) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// EndpointStatus is a point-in-time view of one endpoint.
type EndpointStatus struct {
	Index   int    `json:"index"`
	Current bool   `json:"current"`
	Health  string `json:"health"`
}

// Status reports the connection state and the health of every endpoint.
func (c *Controller[T]) Status() (ConnState, []EndpointStatus) {
	c.mu.Lock()
	current, state := c.index, c.state
	c.mu.Unlock()

	out := make([]EndpointStatus, len(c.endpoints))
	for i, h := range c.health {
		out[i] = EndpointStatus{Index: i, Current: i == current, Health: h.current().String()}
	}
	return state, out
}

// acquire returns the current index together with its client, building the
// client on first use after a rotation.
func (c *Controller[T]) acquire() (int, T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.built {
		client, err := c.dial(c.endpoints[c.index])
		if err != nil {
			var zero T
			return c.index, zero, fmt.Errorf("dial endpoint %d: %w", c.index, err)
		}
		c.client = client
		c.built = true
	}
	return c.index, c.client, nil
}

// rotate advances past idx only if no sibling call already did.
func (c *Controller[T]) rotate(idx int, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index != idx {
		return
	}
	c.index = (idx + 1) % len(c.endpoints)
	var zero T
	c.client = zero
	c.built = false
	metrics.FailoverRotations.WithLabelValues(c.network).Inc()
	c.logger.Warn("rotating endpoint", "from", idx, "to", c.index, "error", cause)
}

func (c *Controller[T]) setState(s ConnState) {
	c.mu.Lock()
	prev, settled := c.state, c.settled
	c.state = s
	c.settled = true
	c.mu.Unlock()
	if c.hook != nil && settled && prev != s {
		c.hook(c.network, prev, s)
	}
	v := 0.0
	if s == Connected {
		v = 1
	}
	metrics.FailoverConnected.WithLabelValues(c.network).Set(v)
}

// Call runs fn against the current client, rotating on failure for at most
// one attempt per endpoint. Terminal errors return immediately. When every
// attempt fails the result is a transient chain.Error wrapping the last cause.
func Call[T, R any](ctx context.Context, c *Controller[T], op string, fn func(context.Context, T) (R, error)) (R, error) {
	var zero R
	var lastErr error
	attempts := len(c.endpoints)

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("%s(%s): %w", op, c.network, err)
		}

		idx, client, err := c.acquire()
		if err == nil {
			err = c.health[idx].allow()
			if err != nil && c.allDown() {
				c.logger.Debug("every endpoint down, attempting anyway", "op", op, "endpoint", idx)
				err = nil
			}
		}
		if err == nil {
			if werr := c.limiter.Wait(ctx); werr != nil {
				return zero, fmt.Errorf("%s(%s): %w", op, c.network, werr)
			}
			var result R
			result, err = fn(ctx, client)
			if err == nil {
				c.health[idx].recordSuccess()
				c.setState(Connected)
				return result, nil
			}
			if decision := retry.Classify(err); !decision.IsTransient() {
				c.logger.Debug("terminal error, not rotating", "op", op, "reason", decision.Reason, "error", err)
				if ctx.Err() != nil {
					return zero, err
				}
				return zero, chain.NewError(chain.KindRemote, op, c.network, err)
			}
			c.health[idx].recordFailure(err)
		}

		lastErr = err
		c.logger.Debug("attempt failed", "op", op, "attempt", attempt+1, "endpoint", idx, "error", err)
		c.rotate(idx, err)
	}

	c.setState(Disconnected)
	metrics.FailoverExhausted.WithLabelValues(c.network).Inc()
	return zero, &chain.Error{
		Kind:    chain.KindTransient,
		Op:      op,
		Network: c.network,
		Err:     fmt.Errorf("%w after %d attempts: %w", chain.ErrEndpointsExhausted, attempts, lastErr),
	}
}

// allDown reports whether every endpoint's breaker is open. The breaker then
// stops short-circuiting so a fully failed network keeps surfacing real errors.
func (c *Controller[T]) allDown() bool {
	for _, h := range c.health {
		if !h.down() {
			return false
		}
	}
	return true
}

// Do is Call for operations without a result value.
func Do[T any](ctx context.Context, c *Controller[T], op string, fn func(context.Context, T) error) error {
	_, err := Call(ctx, c, op, func(ctx context.Context, client T) (struct{}, error) {
		return struct{}{}, fn(ctx, client)
	})
	return err
}
