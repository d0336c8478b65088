// Package evm implements chain.DataSource for EVM-compatible networks over
// JSON-RPC, with history from Etherscan-compatible explorers.
package evm

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/chain/evm/rpc"
	"github.com/emperorhan/multichain-wallet/internal/chain/failover"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

const (
	defaultChunkSize        = 3
	defaultBatchConcurrency = 4
	nativeTransferGas       = 21000
	tokenTransferGas        = 65000
)

var oneGwei = big.NewInt(1_000_000_000)

// Config tunes an EVM client. Zero values select the defaults.
type Config struct {
	RequestTimeout    time.Duration
	BatchChunkSize    int
	BatchConcurrency  int
	PriorityIncrement *big.Int
	ExplorerAPIKey    string
	Failover          failover.Settings
}

func (c Config) withDefaults() Config {
	if c.BatchChunkSize <= 0 {
		c.BatchChunkSize = defaultChunkSize
	}
	if c.BatchConcurrency <= 0 {
		c.BatchConcurrency = defaultBatchConcurrency
	}
	if c.PriorityIncrement == nil || c.PriorityIncrement.Sign() <= 0 {
		c.PriorityIncrement = new(big.Int).Set(oneGwei)
	}
	return c
}

type Client struct {
	network  model.NetworkDescriptor
	assets   []model.AssetDescriptor
	cfg      Config
	rpc      *failover.Controller[rpc.RPCClient]
	explorer *failover.Controller[*Explorer]
	logger   *slog.Logger

	// verified is the last dialed RPC client whose eth_chainId matched.
	verifyMu sync.Mutex
	verified rpc.RPCClient
}

var _ chain.DataSource = (*Client)(nil)

// NewClient builds a client over the network's RPC and explorer endpoints.
// Clients are constructed without network I/O.
func NewClient(network model.NetworkDescriptor, assets []model.AssetDescriptor, cfg Config, logger *slog.Logger) (*Client, error) {
	cfg = cfg.withDefaults()
	logger = logger.With("chain", "evm", "network", network.Name)

	rpcCtl, err := failover.New(network.Name, network.RPCURLs, func(endpoint string) (rpc.RPCClient, error) {
		return rpc.NewClient(endpoint, network.Name, cfg.RequestTimeout, logger), nil
	}, cfg.Failover.Options(network.Name, logger)...)
	if err != nil {
		return nil, err
	}

	c := &Client{
		network: network,
		assets:  tokenAssets(assets),
		cfg:     cfg,
		rpc:     rpcCtl,
		logger:  logger,
	}

	if len(network.ExplorerURLs) > 0 {
		c.explorer, err = failover.New(network.Name+"-explorer", network.ExplorerURLs, func(endpoint string) (*Explorer, error) {
			return NewExplorer(endpoint, cfg.ExplorerAPIKey, network.Name, cfg.RequestTimeout, logger), nil
		}, cfg.Failover.Options(network.Name+"-explorer", logger)...)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Client) Network() model.NetworkDescriptor {
	return c.network
}

// Endpoints reports the failover state of the RPC endpoints.
func (c *Client) Endpoints() (failover.ConnState, []failover.EndpointStatus) {
	return c.rpc.Status()
}

func (c *Client) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, chain.InvalidAddress(c.network.Name, address, err)
	}
	balance, err := failover.Call(ctx, c.rpc, "getBalance", func(ctx context.Context, cl rpc.RPCClient) (*big.Int, error) {
		return cl.GetBalance(ctx, address)
	})
	if err != nil {
		return nil, fmt.Errorf("get balance(%s): %w", address, err)
	}
	return balance, nil
}

// tokenAssets keeps the configured descriptors that name a contract.
func tokenAssets(assets []model.AssetDescriptor) []model.AssetDescriptor {
	out := make([]model.AssetDescriptor, 0, len(assets))
	for _, a := range assets {
		if !a.IsNative() {
			out = append(out, a)
		}
	}
	return out
}

func (c *Client) chainID() *big.Int {
	return big.NewInt(c.network.ChainID)
}
