// Package factory resolves a chain id to its protocol client and keeps one
// client per chain for the life of the process.
package factory

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/chain/btc"
	"github.com/emperorhan/multichain-wallet/internal/chain/evm"
	"github.com/emperorhan/multichain-wallet/internal/chain/failover"
	"github.com/emperorhan/multichain-wallet/internal/chain/tron"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
	"github.com/emperorhan/multichain-wallet/internal/metrics"
)

// Constructor builds the client of one protocol family. It must not perform
// network I/O.
type Constructor func(network model.NetworkDescriptor, assets []model.AssetDescriptor) (chain.DataSource, error)

// Settings carries the per-family client configuration.
type Settings struct {
	EVM  evm.Config
	BTC  btc.Config
	Tron tron.Config
}

// WithStateHook returns a copy of s whose clients report failover state
// transitions to h.
func (s Settings) WithStateHook(h failover.StateHook) Settings {
	s.EVM.Failover.OnStateChange = h
	s.BTC.Failover.OnStateChange = h
	s.Tron.Failover.OnStateChange = h
	return s
}

type Option func(*Factory)

// WithConstructor replaces the constructor of family.
func WithConstructor(family model.ProtocolFamily, ctor Constructor) Option {
	return func(f *Factory) {
		f.constructors[family] = ctor
	}
}

type Factory struct {
	registry     chain.NetworkRegistry
	constructors map[model.ProtocolFamily]Constructor
	logger       *slog.Logger

	mu      sync.Mutex
	clients map[int64]chain.DataSource
}

// New builds the family constructor table once; it does not change afterwards.
func New(registry chain.NetworkRegistry, settings Settings, logger *slog.Logger, opts ...Option) *Factory {
	logger = logger.With("component", "chain_factory")
	f := &Factory{
		registry: registry,
		logger:   logger,
		clients:  make(map[int64]chain.DataSource),
		constructors: map[model.ProtocolFamily]Constructor{
			model.FamilyEVM: func(n model.NetworkDescriptor, a []model.AssetDescriptor) (chain.DataSource, error) {
				return evm.NewClient(n, a, settings.EVM, logger)
			},
			model.FamilyUTXO: func(n model.NetworkDescriptor, a []model.AssetDescriptor) (chain.DataSource, error) {
				return btc.NewClient(n, a, settings.BTC, logger)
			},
			model.FamilyTron: func(n model.NetworkDescriptor, a []model.AssetDescriptor) (chain.DataSource, error) {
				return tron.NewClient(n, a, settings.Tron, logger)
			},
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the client of chainID, building it on first use. Every
// later call returns the same instance.
func (f *Factory) Create(chainID int64) (chain.DataSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ds, ok := f.clients[chainID]; ok {
		return ds, nil
	}

	network, ok := f.registry.NetworkByChainID(chainID)
	if !ok {
		return nil, chain.ConfigError("create client", fmt.Errorf("%w: %d", chain.ErrUnknownChain, chainID))
	}
	ctor, ok := f.constructors[network.Family]
	if !ok {
		return nil, chain.ConfigError("create client", fmt.Errorf("%w: %q for %s", chain.ErrUnsupportedFamily, network.Family, network.Name))
	}

	ds, err := ctor(network, f.registry.AssetsForNetwork(chainID))
	if err != nil {
		return nil, chain.ConfigError("create client", fmt.Errorf("%s: %w", network.Name, err))
	}

	f.clients[chainID] = ds
	metrics.FactoryClientsCached.Set(float64(len(f.clients)))
	f.logger.Info("chain client created", "network", network.Name, "chain_id", chainID, "family", network.Family)
	return ds, nil
}

// CreateByName resolves a network name to its chain id and calls Create.
func (f *Factory) CreateByName(name string) (chain.DataSource, error) {
	network, ok := f.registry.NetworkByName(name)
	if !ok {
		return nil, chain.ConfigError("create client", fmt.Errorf("%w: %q", chain.ErrUnknownNetwork, name))
	}
	return f.Create(network.ChainID)
}

// Clients returns the clients built so far ordered by network name.
func (f *Factory) Clients() []chain.DataSource {
	f.mu.Lock()
	out := make([]chain.DataSource, 0, len(f.clients))
	for _, ds := range f.clients {
		out = append(out, ds)
	}
	f.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Network().Name < out[j].Network().Name
	})
	return out
}
