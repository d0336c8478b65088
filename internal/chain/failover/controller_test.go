package failover

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/chain/retry"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClient struct {
	endpoint string
}

func fakeDialer(dials *atomic.Int32) Dialer[*fakeClient] {
	return func(endpoint string) (*fakeClient, error) {
		if dials != nil {
			dials.Add(1)
		}
		return &fakeClient{endpoint: endpoint}, nil
	}
}

func newTestController(t *testing.T, endpoints []string, opts ...Option) *Controller[*fakeClient] {
	t.Helper()
	opts = append([]Option{WithLogger(newTestLogger())}, opts...)
	c, err := New("testnet", endpoints, fakeDialer(nil), opts...)
	require.NoError(t, err)
	return c
}

// ---------------------------------------------------------------------------
// construction
// ---------------------------------------------------------------------------

func TestNew_EmptyEndpointsIsConfigError(t *testing.T) {
	_, err := New[*fakeClient]("testnet", nil, fakeDialer(nil))
	require.Error(t, err)
	assert.Equal(t, chain.KindConfig, chain.KindOf(err))
}

func TestNew_StartsDisconnectedAtFirstEndpoint(t *testing.T) {
	c := newTestController(t, []string{"a", "b"})
	assert.Equal(t, Disconnected, c.State())
	assert.Equal(t, 0, c.Index())
	assert.Equal(t, 2, c.Len())
}

// ---------------------------------------------------------------------------
// Call
// ---------------------------------------------------------------------------

func TestCall_SucceedsAfterKMinusOneFailures(t *testing.T) {
	endpoints := []string{"a", "b", "c", "d"}
	c := newTestController(t, endpoints)

	var attempts int
	got, err := Call(context.Background(), c, "getBalance", func(_ context.Context, fc *fakeClient) (string, error) {
		attempts++
		if fc.endpoint != "d" {
			return "", fmt.Errorf("endpoint %s: connection refused", fc.endpoint)
		}
		return "ok-from-" + fc.endpoint, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok-from-d", got)
	assert.Equal(t, len(endpoints), attempts)
	assert.Equal(t, Connected, c.State())
	assert.Equal(t, 3, c.Index())
}

func TestCall_AllFailReturnsLastCause(t *testing.T) {
	endpoints := []string{"a", "b", "c"}
	c := newTestController(t, endpoints)

	causes := map[string]error{
		"a": errors.New("a: timeout"),
		"b": errors.New("b: http status 502"),
		"c": errors.New("c: connection reset"),
	}
	var attempts int
	_, err := Call(context.Background(), c, "getBalance", func(_ context.Context, fc *fakeClient) (int, error) {
		attempts++
		return 0, causes[fc.endpoint]
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.ErrorIs(t, err, causes["c"])
	assert.NotErrorIs(t, err, causes["a"])
	assert.ErrorIs(t, err, chain.ErrEndpointsExhausted)
	assert.Equal(t, chain.KindTransient, chain.KindOf(err))
	assert.Equal(t, Disconnected, c.State())
	// wrapped all the way round
	assert.Equal(t, 0, c.Index())
}

func TestCall_RotationPersistsAcrossCalls(t *testing.T) {
	var dials atomic.Int32
	c, err := New("testnet", []string{"a", "b"}, fakeDialer(&dials), WithLogger(newTestLogger()))
	require.NoError(t, err)

	_, err = Call(context.Background(), c, "first", func(_ context.Context, fc *fakeClient) (string, error) {
		if fc.endpoint == "a" {
			return "", errors.New("timeout")
		}
		return fc.endpoint, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Index())

	var seen []string
	for i := 0; i < 3; i++ {
		got, err := Call(context.Background(), c, "next", func(_ context.Context, fc *fakeClient) (string, error) {
			return fc.endpoint, nil
		})
		require.NoError(t, err)
		seen = append(seen, got)
	}
	assert.Equal(t, []string{"b", "b", "b"}, seen)
	// one dial for a, one for b; the b client is reused
	assert.Equal(t, int32(2), dials.Load())
}

func TestCall_TerminalErrorStopsWithoutRotating(t *testing.T) {
	c := newTestController(t, []string{"a", "b", "c"})

	invalid := chain.ValidationError("send", "testnet", chain.ErrInvalidParams)
	var attempts int
	_, err := Call(context.Background(), c, "send", func(_ context.Context, _ *fakeClient) (string, error) {
		attempts++
		return "", invalid
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, chain.ErrInvalidParams)
	assert.Equal(t, 0, c.Index())
}

func TestCall_ExplicitTerminalMarker(t *testing.T) {
	c := newTestController(t, []string{"a", "b"})

	var attempts int
	_, err := Call(context.Background(), c, "send", func(_ context.Context, _ *fakeClient) (string, error) {
		attempts++
		return "", retry.Terminal(errors.New("nonce conflict"))
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, chain.KindRemote, chain.KindOf(err))
}

func TestCall_CanceledContext(t *testing.T) {
	c := newTestController(t, []string{"a", "b"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var attempts int
	_, err := Call(ctx, c, "balance", func(_ context.Context, _ *fakeClient) (string, error) {
		attempts++
		return "x", nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, attempts)
}

func TestCall_DialFailureCountsAsAttempt(t *testing.T) {
	dial := func(endpoint string) (*fakeClient, error) {
		if endpoint == "bad" {
			return nil, errors.New("parse url")
		}
		return &fakeClient{endpoint: endpoint}, nil
	}
	c, err := New("testnet", []string{"bad", "good"}, dial, WithLogger(newTestLogger()))
	require.NoError(t, err)

	got, err := Call(context.Background(), c, "balance", func(_ context.Context, fc *fakeClient) (string, error) {
		return fc.endpoint, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "good", got)
}

func TestDo(t *testing.T) {
	c := newTestController(t, []string{"a", "b"})
	var hits []string
	err := Do(context.Background(), c, "broadcast", func(_ context.Context, fc *fakeClient) error {
		hits = append(hits, fc.endpoint)
		if fc.endpoint == "a" {
			return errors.New("http status 503")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, hits)
}

func TestCall_StateHookReportsTransitions(t *testing.T) {
	type transition struct{ from, to ConnState }
	var got []transition
	c := newTestController(t, []string{"a", "b"}, WithStateHook(func(network string, from, to ConnState) {
		assert.Equal(t, "testnet", network)
		got = append(got, transition{from, to})
	}))

	fail := true
	call := func() {
		_, _ = Call(context.Background(), c, "getBalance", func(context.Context, *fakeClient) (int, error) {
			if fail {
				return 0, errors.New("timeout")
			}
			return 1, nil
		})
	}

	// the first settle from the initial state is silent
	call()
	assert.Empty(t, got)
	call()
	assert.Empty(t, got)

	fail = false
	call()
	call()
	require.Len(t, got, 1)
	assert.Equal(t, transition{Disconnected, Connected}, got[0])

	fail = true
	call()
	require.Len(t, got, 2)
	assert.Equal(t, transition{Connected, Disconnected}, got[1])
}

func TestCall_ConcurrentFailuresRotateOnce(t *testing.T) {
	c := newTestController(t, []string{"a", "b", "c"})

	// every call on "a" blocks until all goroutines have arrived, then fails
	const callers = 5
	var arrived sync.WaitGroup
	arrived.Add(callers)
	release := make(chan struct{})
	go func() {
		arrived.Wait()
		close(release)
	}()

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Call(context.Background(), c, "balance", func(_ context.Context, fc *fakeClient) (string, error) {
				if fc.endpoint == "a" {
					arrived.Done()
					<-release
					return "", errors.New("timeout")
				}
				return fc.endpoint, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// five sibling failures on endpoint 0 advance the cursor exactly once
	assert.Equal(t, 1, c.Index())
}

// ---------------------------------------------------------------------------
// endpoint health
// ---------------------------------------------------------------------------

func TestCall_DownEndpointIsShortCircuited(t *testing.T) {
	c := newTestController(t, []string{"a", "b"}, WithBreaker(BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Hour}))

	calls := map[string]int{}
	fn := func(_ context.Context, fc *fakeClient) (string, error) {
		calls[fc.endpoint]++
		if fc.endpoint == "a" {
			return "", errors.New("timeout")
		}
		return fc.endpoint, nil
	}

	_, err := Call(context.Background(), c, "balance", fn)
	require.NoError(t, err)

	// put the cursor back on a while b is still up
	c.mu.Lock()
	c.index = 0
	c.built = false
	c.mu.Unlock()

	got, err := Call(context.Background(), c, "balance", fn)
	require.NoError(t, err)
	assert.Equal(t, "b", got)
	assert.Equal(t, 1, calls["a"], "down endpoint must not be contacted")
	assert.Equal(t, 2, calls["b"])

	state, statuses := c.Status()
	assert.Equal(t, Connected, state)
	require.Len(t, statuses, 2)
	assert.Equal(t, "down", statuses[0].Health)
	assert.Equal(t, "up", statuses[1].Health)
}

func TestCall_AllEndpointsDownStillAttempted(t *testing.T) {
	c := newTestController(t, []string{"a", "b"}, WithBreaker(BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Hour}))

	calls := map[string]int{}
	fn := func(_ context.Context, fc *fakeClient) (string, error) {
		calls[fc.endpoint]++
		return "", errors.New("http status 500")
	}

	_, err := Call(context.Background(), c, "balance", fn)
	require.Error(t, err)

	_, statuses := c.Status()
	assert.Equal(t, "down", statuses[0].Health)
	assert.Equal(t, "down", statuses[1].Health)

	_, err = Call(context.Background(), c, "balance", fn)
	require.Error(t, err)
	assert.ErrorIs(t, err, chain.ErrEndpointsExhausted)
	assert.NotErrorIs(t, err, ErrEndpointDown)
	assert.ErrorContains(t, err, "http status 500")
	assert.Equal(t, 2, calls["a"])
	assert.Equal(t, 2, calls["b"])
}

func TestCall_SingleEndpointRecoversWithoutCooldown(t *testing.T) {
	c := newTestController(t, []string{"a"}, WithBreaker(BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Hour}))

	fail := true
	fn := func(_ context.Context, fc *fakeClient) (string, error) {
		if fail {
			return "", errors.New("connection refused")
		}
		return fc.endpoint, nil
	}

	_, err := Call(context.Background(), c, "balance", fn)
	require.Error(t, err)
	_, statuses := c.Status()
	assert.Equal(t, "down", statuses[0].Health)

	fail = false
	got, err := Call(context.Background(), c, "balance", fn)
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	state, statuses := c.Status()
	assert.Equal(t, Connected, state)
	assert.Equal(t, "up", statuses[0].Health)
}

func TestEndpointHealth_Transitions(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var changes []string
	h := newEndpointHealth(BreakerConfig{FailureThreshold: 2, OpenTimeout: 10 * time.Second}, func(from, to HealthState) {
		changes = append(changes, from.String()+"->"+to.String())
	})
	h.nowFn = func() time.Time { return now }

	require.NoError(t, h.allow())
	h.recordFailure(errors.New("timeout"))
	require.NoError(t, h.allow())
	h.recordFailure(errors.New("http status 502"))
	err := h.allow()
	assert.ErrorIs(t, err, ErrEndpointDown)
	assert.ErrorContains(t, err, "http status 502")

	now = now.Add(11 * time.Second)
	assert.Equal(t, HealthProbing, h.current())
	require.NoError(t, h.allow())

	h.recordSuccess()
	assert.Equal(t, HealthUp, h.current())
	assert.Equal(t, []string{"up->down", "down->probing", "probing->up"}, changes)
}

func TestEndpointHealth_FailureAfterCooldownReopens(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	h := newEndpointHealth(BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second}, nil)
	h.nowFn = func() time.Time { return now }

	h.recordFailure(errors.New("timeout"))
	now = now.Add(2 * time.Second)
	assert.Equal(t, HealthProbing, h.current())

	h.recordFailure(errors.New("timeout"))
	assert.Equal(t, HealthDown, h.current())
}

func TestBreakerConfig_Defaults(t *testing.T) {
	cfg := BreakerConfig{}.withDefaults()
	assert.Equal(t, 5, cfg.FailureThreshold)
	assert.Equal(t, 1, cfg.SuccessThreshold)
	assert.Equal(t, 30*time.Second, cfg.OpenTimeout)
}
