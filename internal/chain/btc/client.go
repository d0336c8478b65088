// Package btc implements chain.DataSource for Bitcoin-style UTXO networks on
// top of Esplora explorers, with an optional bitcoind node as fallback.
package btc

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/chain/btc/esplora"
	"github.com/emperorhan/multichain-wallet/internal/chain/btc/rpc"
	"github.com/emperorhan/multichain-wallet/internal/chain/failover"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

const defaultFeeRate = 10 // sat/byte

type Config struct {
	RequestTimeout time.Duration
	// DefaultFeeRate backs the placeholder tier when no estimator answers.
	DefaultFeeRate    int64
	FanOutConcurrency int
	Failover          failover.Settings
}

type Client struct {
	network  model.NetworkDescriptor
	params   AddressParams
	cfg      Config
	explorer *failover.Controller[esplora.API]
	node     *failover.Controller[rpc.RPCClient]
	logger   *slog.Logger
}

var _ chain.DataSource = (*Client)(nil)

// NewClient builds a client over the network's Esplora explorers. When the
// network also lists explorer URLs, its RPC URLs point at bitcoind nodes used
// for fee estimation and broadcast fallback; otherwise the RPC URLs are the
// Esplora endpoints themselves.
func NewClient(network model.NetworkDescriptor, assets []model.AssetDescriptor, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.DefaultFeeRate <= 0 {
		cfg.DefaultFeeRate = defaultFeeRate
	}
	logger = logger.With("chain", "btc", "network", network.Name)
	for _, asset := range assets {
		if !asset.IsNative() {
			logger.Debug("ignoring token on utxo network", "symbol", asset.Symbol, "contract", asset.ContractAddress)
		}
	}

	explorerURLs, nodeURLs := network.ExplorerURLs, network.RPCURLs
	if len(explorerURLs) == 0 {
		explorerURLs, nodeURLs = network.RPCURLs, nil
	}

	explorer, err := failover.New(network.Name+"-esplora", explorerURLs, func(endpoint string) (esplora.API, error) {
		return esplora.NewClient(endpoint, network.Name, cfg.RequestTimeout, logger), nil
	}, cfg.Failover.Options(network.Name+"-esplora", logger)...)
	if err != nil {
		return nil, err
	}

	c := &Client{
		network:  network,
		params:   ParamsFor(network),
		cfg:      cfg,
		explorer: explorer,
		logger:   logger,
	}
	if len(nodeURLs) > 0 {
		c.node, err = failover.New(network.Name+"-node", nodeURLs, func(endpoint string) (rpc.RPCClient, error) {
			return rpc.NewClient(endpoint, network.Name, cfg.RequestTimeout, logger), nil
		}, cfg.Failover.Options(network.Name+"-node", logger)...)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ParamsFor picks the address encoding of a network. Testnets are flagged
// explicitly or by a negative registry id.
func ParamsFor(network model.NetworkDescriptor) AddressParams {
	if network.Testnet || network.ChainID < 0 {
		return TestNetParams
	}
	return MainNetParams
}

func (c *Client) Network() model.NetworkDescriptor {
	return c.network
}

// Endpoints reports the failover state of the explorers.
func (c *Client) Endpoints() (failover.ConnState, []failover.EndpointStatus) {
	return c.explorer.Status()
}

func (c *Client) validate(address string) error {
	if _, err := PayToAddrScript(address, c.params); err != nil {
		return chain.InvalidAddress(c.network.Name, address, err)
	}
	return nil
}

func (c *Client) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	if err := c.validate(address); err != nil {
		return nil, err
	}
	info, err := failover.Call(ctx, c.explorer, "address", func(ctx context.Context, api esplora.API) (*esplora.AddressInfo, error) {
		return api.Address(ctx, address)
	})
	if err != nil {
		return nil, fmt.Errorf("get balance(%s): %w", address, err)
	}
	return big.NewInt(info.BalanceSat()), nil
}

// GetAssetBalances returns the native coin only; UTXO networks carry no tokens.
func (c *Client) GetAssetBalances(ctx context.Context, address string) ([]model.Asset, error) {
	balance, err := c.GetBalance(ctx, address)
	if err != nil {
		return nil, err
	}
	return []model.Asset{{AssetDescriptor: c.network.NativeAsset(), Balance: balance}}, nil
}

// GetBalancesForMultipleAddresses fans out one lookup per address.
func (c *Client) GetBalancesForMultipleAddresses(ctx context.Context, addresses []string) (map[string][]model.Asset, error) {
	for _, address := range addresses {
		if err := c.validate(address); err != nil {
			return nil, err
		}
	}
	return chain.FanOutBalances(ctx, addresses, c.cfg.FanOutConcurrency, c.GetAssetBalances)
}
