package wallet

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

// NetworkBalances is the outcome of one network's batched lookup. Err is set
// when the network failed as a whole; Balances then holds nothing.
type NetworkBalances struct {
	Network  string
	ChainID  int64
	Balances map[string][]model.Asset
	// Owners maps each address to the wallets holding it.
	Owners map[string][]string
	Err    error
}

// GetWalletBalances resolves every stored wallet's assets, one batched call
// per network. A failing network never hides the others.
func (r *Repository) GetWalletBalances(ctx context.Context) (out []NetworkBalances, err error) {
	ctx, span, done := r.begin(ctx, "get_wallet_balances", "all")
	defer func() { done(err) }()

	if r.wallets == nil {
		return nil, chain.ConfigError("wallet balances", fmt.Errorf("no wallet store configured"))
	}
	wallets, err := r.wallets.Wallets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}

	groups := groupByNetwork(wallets)
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	span.SetAttributes(attribute.Int("wallet.networks", len(names)))

	out = make([]NetworkBalances, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, name := range names {
		grp := groups[name]
		out[i] = NetworkBalances{Network: name, Owners: grp.owners}
		g.Go(func() error {
			desc, ds, err := r.resolve(name)
			out[i].ChainID = desc.ChainID
			if err != nil {
				out[i].Err = err
				return nil
			}
			balances, err := ds.GetBalancesForMultipleAddresses(gctx, grp.addresses)
			if err != nil {
				r.logger.Warn("wallet balances failed", "network", name, "error", err)
				out[i].Err = err
				return nil
			}
			out[i].Balances = balances
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

type addressGroup struct {
	addresses []string
	owners    map[string][]string
}

// groupByNetwork dedupes addresses per network while keeping first-seen order.
func groupByNetwork(wallets []model.Wallet) map[string]*addressGroup {
	groups := make(map[string]*addressGroup)
	for _, w := range wallets {
		networks := make([]string, 0, len(w.Addresses))
		for n := range w.Addresses {
			networks = append(networks, n)
		}
		sort.Strings(networks)
		for _, network := range networks {
			addr := w.Addresses[network]
			if addr == "" {
				continue
			}
			grp, ok := groups[network]
			if !ok {
				grp = &addressGroup{owners: make(map[string][]string)}
				groups[network] = grp
			}
			if _, seen := grp.owners[addr]; !seen {
				grp.addresses = append(grp.addresses, addr)
			}
			grp.owners[addr] = append(grp.owners[addr], w.Name)
		}
	}
	return groups
}
