// Package tron implements chain.DataSource for Tron. Balances and history
// come from TronGrid, contract calls, fee inputs and broadcasts from full
// nodes.
package tron

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/emperorhan/multichain-wallet/internal/cache"
	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/chain/failover"
	"github.com/emperorhan/multichain-wallet/internal/chain/tron/api"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

const (
	defaultParamsTTL = 10 * time.Minute
	// 100 TRX
	defaultFeeLimit = 100_000_000
)

type Config struct {
	RequestTimeout    time.Duration
	APIKey            string
	FanOutConcurrency int
	// ParamsTTL bounds how long chain parameters are reused across quotes.
	ParamsTTL time.Duration
	// DefaultFeeLimit is the fee_limit in sun of token transfers that do not
	// set one.
	DefaultFeeLimit int64
	Failover        failover.Settings
}

func (c Config) withDefaults() Config {
	if c.ParamsTTL <= 0 {
		c.ParamsTTL = defaultParamsTTL
	}
	if c.DefaultFeeLimit <= 0 {
		c.DefaultFeeLimit = defaultFeeLimit
	}
	return c
}

type Client struct {
	network model.NetworkDescriptor
	assets  []model.AssetDescriptor
	cfg     Config
	node    *failover.Controller[api.API]
	grid    *failover.Controller[api.API]
	params  *cache.LRU[string, chainParams]
	logger  *slog.Logger
}

var _ chain.DataSource = (*Client)(nil)

// NewClient builds a client over the network's full nodes (RPC URLs) and
// TronGrid hosts (explorer URLs). Without explorer URLs the nodes are
// expected to serve the /v1 API as well.
func NewClient(network model.NetworkDescriptor, assets []model.AssetDescriptor, cfg Config, logger *slog.Logger) (*Client, error) {
	cfg = cfg.withDefaults()
	logger = logger.With("chain", "tron", "network", network.Name)

	dial := func(endpoint string) (api.API, error) {
		return api.NewClient(endpoint, cfg.APIKey, network.Name, cfg.RequestTimeout, logger), nil
	}

	node, err := failover.New(network.Name, network.RPCURLs, dial, cfg.Failover.Options(network.Name, logger)...)
	if err != nil {
		return nil, err
	}
	c := &Client{
		network: network,
		cfg:     cfg,
		node:    node,
		grid:    node,
		params:  cache.NewLRU[string, chainParams]("tron_chain_params", 16, cfg.ParamsTTL),
		logger:  logger,
	}
	if len(network.ExplorerURLs) > 0 {
		c.grid, err = failover.New(network.Name+"-grid", network.ExplorerURLs, dial, cfg.Failover.Options(network.Name+"-grid", logger)...)
		if err != nil {
			return nil, err
		}
	}

	for _, asset := range assets {
		if asset.IsNative() {
			continue
		}
		if err := ValidateAddress(asset.ContractAddress); err != nil {
			return nil, chain.ConfigError("tron client", fmt.Errorf("token %s contract %q: %w", asset.Symbol, asset.ContractAddress, err))
		}
		c.assets = append(c.assets, asset)
	}
	return c, nil
}

func (c *Client) Network() model.NetworkDescriptor {
	return c.network
}

// Endpoints reports the failover state of the full nodes.
func (c *Client) Endpoints() (failover.ConnState, []failover.EndpointStatus) {
	return c.node.Status()
}

func (c *Client) validate(address string) error {
	if err := ValidateAddress(address); err != nil {
		return chain.InvalidAddress(c.network.Name, address, err)
	}
	return nil
}

func (c *Client) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	if err := c.validate(address); err != nil {
		return nil, err
	}
	account, err := failover.Call(ctx, c.grid, "account", func(ctx context.Context, cl api.API) (*api.GridAccount, error) {
		return cl.Account(ctx, address)
	})
	if err != nil {
		return nil, fmt.Errorf("get balance(%s): %w", address, err)
	}
	return big.NewInt(account.Balance), nil
}
