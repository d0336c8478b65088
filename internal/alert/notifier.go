package alert

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/emperorhan/multichain-wallet/internal/chain/failover"
)

const defaultSendTimeout = 15 * time.Second

// FailoverNotifier turns failover state transitions into alerts. Observe
// matches failover.StateHook and never blocks the caller.
type FailoverNotifier struct {
	alerter Alerter
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

func NewFailoverNotifier(a Alerter, logger *slog.Logger) *FailoverNotifier {
	return &FailoverNotifier{
		alerter: a,
		timeout: defaultSendTimeout,
		logger:  logger.With("component", "failover_notifier"),
	}
}

// Observe reports Connected -> Disconnected as UNHEALTHY and the reverse as
// RECOVERY.
func (n *FailoverNotifier) Observe(network string, from, to failover.ConnState) {
	a := Alert{
		Network: network,
		Fields:  map[string]string{"from": from.String(), "to": to.String()},
	}
	switch to {
	case failover.Disconnected:
		a.Type = TypeUnhealthy
		a.Title = "All endpoints failing"
		a.Message = "every configured endpoint failed the last call"
	case failover.Connected:
		a.Type = TypeRecovery
		a.Title = "Endpoint reachable again"
		a.Message = "calls are succeeding after an outage"
	default:
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := n.alerter.Send(ctx, a); err != nil {
			n.logger.Warn("failover alert not delivered", "network", network, "type", a.Type, "error", err)
		}
	}()
}

// Wait blocks until in-flight alerts have been sent.
func (n *FailoverNotifier) Wait() {
	n.wg.Wait()
}
