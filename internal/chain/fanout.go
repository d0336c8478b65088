package chain

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

const defaultFanOutLimit = 4

// FanOutBalances resolves assets per address on a bounded pool for families
// without native request batching. A failing address is left out of the
// result; only an all-failed run returns an error (the last one observed).
func FanOutBalances(
	ctx context.Context,
	addresses []string,
	limit int,
	fetch func(ctx context.Context, address string) ([]model.Asset, error),
) (map[string][]model.Asset, error) {
	result := make(map[string][]model.Asset, len(addresses))
	if len(addresses) == 0 {
		return result, nil
	}
	if limit <= 0 {
		limit = defaultFanOutLimit
	}

	var (
		mu      sync.Mutex
		lastErr error
	)
	g := new(errgroup.Group)
	g.SetLimit(limit)
	for _, address := range addresses {
		g.Go(func() error {
			assets, err := fetch(ctx, address)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				lastErr = err
				return nil
			}
			result[address] = assets
			return nil
		})
	}
	_ = g.Wait()

	if len(result) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return result, nil
}
