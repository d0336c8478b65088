package evm

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/chain/evm/rpc"
	"github.com/emperorhan/multichain-wallet/internal/chain/failover"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
	"github.com/emperorhan/multichain-wallet/internal/metrics"
)

// balanceQuery is one cell of the address × asset expansion.
type balanceQuery struct {
	address  string
	assetIdx int
	item     rpc.BatchItem
}

type resolvedAsset struct {
	assetIdx int
	asset    model.Asset
}

func (c *Client) GetAssetBalances(ctx context.Context, address string) ([]model.Asset, error) {
	byAddress, err := c.GetBalancesForMultipleAddresses(ctx, []string{address})
	if err != nil {
		return nil, err
	}
	assets, ok := byAddress[address]
	if !ok {
		return nil, chain.NewError(chain.KindRemote, "get asset balances", c.network.Name,
			fmt.Errorf("no balance resolved for %s", address))
	}
	return assets, nil
}

// GetBalancesForMultipleAddresses expands addresses × assets into individual
// sub-requests, sends them in fixed-size JSON-RPC batches concurrently and
// keeps whatever resolved. It fails only when every batch failed.
func (c *Client) GetBalancesForMultipleAddresses(ctx context.Context, addresses []string) (map[string][]model.Asset, error) {
	addresses = dedupe(addresses)
	for _, address := range addresses {
		if err := ValidateAddress(address); err != nil {
			return nil, chain.InvalidAddress(c.network.Name, address, err)
		}
	}
	if len(addresses) == 0 {
		return map[string][]model.Asset{}, nil
	}

	descriptors := append([]model.AssetDescriptor{c.network.NativeAsset()}, c.assets...)
	queries, err := c.expand(addresses, descriptors)
	if err != nil {
		return nil, err
	}
	chunks := chunkQueries(queries, c.cfg.BatchChunkSize)

	var (
		mu        sync.Mutex
		resolved  = make(map[string][]resolvedAsset, len(addresses))
		succeeded int
		lastErr   error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.BatchConcurrency)
	for _, chunk := range chunks {
		g.Go(func() error {
			items := make([]rpc.BatchItem, len(chunk))
			for i, q := range chunk {
				items[i] = q.item
			}
			results, err := failover.Call(gctx, c.rpc, "batchBalances", func(ctx context.Context, cl rpc.RPCClient) ([]rpc.BatchResult, error) {
				return cl.Batch(ctx, items)
			})
			if err != nil {
				metrics.BatchChunksTotal.WithLabelValues(c.network.Name, "failed").Inc()
				c.logger.Warn("balance chunk failed", "size", len(chunk), "error", err)
				mu.Lock()
				lastErr = err
				mu.Unlock()
				return nil
			}
			metrics.BatchChunksTotal.WithLabelValues(c.network.Name, "ok").Inc()

			mu.Lock()
			defer mu.Unlock()
			succeeded++
			for i, res := range results {
				q := chunk[i]
				balance, err := decodeBalance(res, descriptors[q.assetIdx])
				if err != nil {
					c.logger.Debug("balance sub-request skipped", "address", q.address,
						"asset", descriptors[q.assetIdx].Symbol, "error", err)
					continue
				}
				resolved[q.address] = append(resolved[q.address], resolvedAsset{
					assetIdx: q.assetIdx,
					asset:    model.Asset{AssetDescriptor: descriptors[q.assetIdx], Balance: balance},
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	if succeeded == 0 {
		return nil, fmt.Errorf("batch balances(%d addresses): %w", len(addresses), lastErr)
	}

	out := make(map[string][]model.Asset, len(resolved))
	for address, entries := range resolved {
		sort.Slice(entries, func(i, j int) bool { return entries[i].assetIdx < entries[j].assetIdx })
		assets := make([]model.Asset, len(entries))
		for i, e := range entries {
			assets[i] = e.asset
		}
		out[address] = assets
	}
	return out, nil
}

func (c *Client) expand(addresses []string, descriptors []model.AssetDescriptor) ([]balanceQuery, error) {
	queries := make([]balanceQuery, 0, len(addresses)*len(descriptors))
	for _, address := range addresses {
		for idx, asset := range descriptors {
			if asset.IsNative() {
				queries = append(queries, balanceQuery{address: address, assetIdx: idx, item: rpc.BalanceItem(address)})
				continue
			}
			data, err := EncodeBalanceOf(address)
			if err != nil {
				return nil, chain.InvalidAddress(c.network.Name, address, err)
			}
			queries = append(queries, balanceQuery{
				address:  address,
				assetIdx: idx,
				item:     rpc.CallItem(rpc.CallMsg{To: asset.ContractAddress, Data: hexData(data)}),
			})
		}
	}
	return queries, nil
}

func decodeBalance(res rpc.BatchResult, asset model.AssetDescriptor) (*big.Int, error) {
	if res.Error != nil {
		return nil, res.Error
	}
	if asset.IsNative() {
		return rpc.ParseResultQuantity(res.Result)
	}
	data, err := rpc.ParseResultData(res.Result)
	if err != nil {
		return nil, err
	}
	return DecodeUint256(data)
}

func chunkQueries(queries []balanceQuery, size int) [][]balanceQuery {
	if size <= 0 {
		size = defaultChunkSize
	}
	chunks := make([][]balanceQuery, 0, (len(queries)+size-1)/size)
	for start := 0; start < len(queries); start += size {
		end := min(start+size, len(queries))
		chunks = append(chunks, queries[start:end])
	}
	return chunks
}

func dedupe(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
