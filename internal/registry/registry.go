// Package registry loads networks, their tokens and the locally stored
// wallets from a YAML file.
package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

type assetEntry struct {
	Symbol   string `yaml:"symbol"`
	Name     string `yaml:"name"`
	Decimals int    `yaml:"decimals"`
	Contract string `yaml:"contract"`
}

type networkEntry struct {
	Name           string       `yaml:"name"`
	Family         string       `yaml:"family"`
	ChainID        int64        `yaml:"chain_id"`
	RPCURLs        []string     `yaml:"rpc_urls"`
	ExplorerURLs   []string     `yaml:"explorer_urls"`
	WebsocketURL   string       `yaml:"websocket_url"`
	NativeSymbol   string       `yaml:"native_symbol"`
	NativeDecimals int          `yaml:"native_decimals"`
	Testnet        bool         `yaml:"testnet"`
	Assets         []assetEntry `yaml:"assets"`
}

type walletEntry struct {
	Name      string            `yaml:"name"`
	Addresses map[string]string `yaml:"addresses"`
}

type file struct {
	Networks []networkEntry `yaml:"networks"`
	Wallets  []walletEntry  `yaml:"wallets"`
}

// Registry is immutable after Load.
type Registry struct {
	byID    map[int64]model.NetworkDescriptor
	byName  map[string]int64
	assets  map[int64][]model.AssetDescriptor
	wallets []model.Wallet
}

var (
	_ chain.NetworkRegistry = (*Registry)(nil)

	errNoNetworks = errors.New("no networks configured")
)

func Load(path string) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates a registry document. Errors are configuration
// errors naming the offending entry.
func Parse(b []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, chain.ConfigError("parse registry", fmt.Errorf("parse yaml: %w", err))
	}
	if len(f.Networks) == 0 {
		return nil, chain.ConfigError("parse registry", errNoNetworks)
	}

	r := &Registry{
		byID:   make(map[int64]model.NetworkDescriptor, len(f.Networks)),
		byName: make(map[string]int64, len(f.Networks)),
		assets: make(map[int64][]model.AssetDescriptor, len(f.Networks)),
	}
	for i, n := range f.Networks {
		desc, err := n.descriptor()
		if err != nil {
			return nil, chain.ConfigError("parse registry", fmt.Errorf("networks[%d]: %w", i, err))
		}
		if _, dup := r.byID[desc.ChainID]; dup {
			return nil, chain.ConfigError("parse registry", fmt.Errorf("networks[%d]: duplicate chain_id %d", i, desc.ChainID))
		}
		if _, dup := r.byName[desc.Name]; dup {
			return nil, chain.ConfigError("parse registry", fmt.Errorf("networks[%d]: duplicate name %q", i, desc.Name))
		}
		assets, err := n.assetDescriptors()
		if err != nil {
			return nil, chain.ConfigError("parse registry", fmt.Errorf("network %s: %w", desc.Name, err))
		}
		r.byID[desc.ChainID] = desc
		r.byName[desc.Name] = desc.ChainID
		r.assets[desc.ChainID] = assets
	}

	for i, w := range f.Wallets {
		if strings.TrimSpace(w.Name) == "" {
			return nil, chain.ConfigError("parse registry", fmt.Errorf("wallets[%d]: name is required", i))
		}
		addrs := make(map[string]string, len(w.Addresses))
		for network, addr := range w.Addresses {
			if _, ok := r.byName[network]; !ok {
				return nil, chain.ConfigError("parse registry", fmt.Errorf("wallet %s: %w: %q", w.Name, chain.ErrUnknownNetwork, network))
			}
			addrs[network] = strings.TrimSpace(addr)
		}
		r.wallets = append(r.wallets, model.Wallet{Name: w.Name, Addresses: addrs})
	}
	return r, nil
}

func (n networkEntry) descriptor() (model.NetworkDescriptor, error) {
	name := strings.TrimSpace(n.Name)
	if name == "" {
		return model.NetworkDescriptor{}, errors.New("name is required")
	}
	family, err := model.ParseProtocolFamily(n.Family)
	if err != nil {
		return model.NetworkDescriptor{}, fmt.Errorf("%s: %w", name, err)
	}
	if len(n.RPCURLs) == 0 && len(n.ExplorerURLs) == 0 {
		return model.NetworkDescriptor{}, fmt.Errorf("%s: at least one rpc or explorer url is required", name)
	}
	if n.NativeSymbol == "" {
		return model.NetworkDescriptor{}, fmt.Errorf("%s: native_symbol is required", name)
	}
	if n.NativeDecimals < 0 {
		return model.NetworkDescriptor{}, fmt.Errorf("%s: native_decimals must not be negative", name)
	}
	decimals := n.NativeDecimals
	if decimals == 0 {
		decimals = defaultDecimals(family)
	}
	return model.NetworkDescriptor{
		Name:           name,
		Family:         family,
		ChainID:        n.ChainID,
		RPCURLs:        trimAll(n.RPCURLs),
		ExplorerURLs:   trimAll(n.ExplorerURLs),
		WebsocketURL:   strings.TrimSpace(n.WebsocketURL),
		NativeSymbol:   n.NativeSymbol,
		NativeDecimals: decimals,
		Testnet:        n.Testnet || (family == model.FamilyUTXO && n.ChainID < 0),
	}, nil
}

func (n networkEntry) assetDescriptors() ([]model.AssetDescriptor, error) {
	out := make([]model.AssetDescriptor, 0, len(n.Assets))
	seen := make(map[string]bool, len(n.Assets))
	for _, a := range n.Assets {
		if a.Symbol == "" || a.Contract == "" {
			return nil, fmt.Errorf("asset %q: symbol and contract are required", a.Symbol)
		}
		key := strings.ToLower(a.Contract)
		if seen[key] {
			return nil, fmt.Errorf("asset %s: duplicate contract %s", a.Symbol, a.Contract)
		}
		seen[key] = true
		name := a.Name
		if name == "" {
			name = a.Symbol
		}
		out = append(out, model.AssetDescriptor{
			Symbol:          a.Symbol,
			Name:            name,
			Decimals:        a.Decimals,
			ContractAddress: strings.TrimSpace(a.Contract),
		})
	}
	return out, nil
}

func defaultDecimals(f model.ProtocolFamily) int {
	switch f {
	case model.FamilyUTXO:
		return 8
	case model.FamilyTron:
		return 6
	default:
		return 18
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (r *Registry) NetworkByChainID(chainID int64) (model.NetworkDescriptor, bool) {
	n, ok := r.byID[chainID]
	return n, ok
}

func (r *Registry) NetworkByName(name string) (model.NetworkDescriptor, bool) {
	id, ok := r.byName[name]
	if !ok {
		return model.NetworkDescriptor{}, false
	}
	return r.byID[id], true
}

// AssetsForNetwork returns a copy of the configured tokens of chainID.
func (r *Registry) AssetsForNetwork(chainID int64) []model.AssetDescriptor {
	return append([]model.AssetDescriptor(nil), r.assets[chainID]...)
}

// Networks returns every descriptor ordered by name.
func (r *Registry) Networks() []model.NetworkDescriptor {
	out := make([]model.NetworkDescriptor, 0, len(r.byID))
	for _, n := range r.byID {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Wallets returns the stored wallets in file order.
func (r *Registry) Wallets(context.Context) ([]model.Wallet, error) {
	out := make([]model.Wallet, len(r.wallets))
	copy(out, r.wallets)
	return out, nil
}
