// Package credential holds the signing keys the daemon was started with.
package credential

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

// EnvPrefix prefixes the per-network key variables, e.g. WALLET_KEY_TRON_NILE.
const EnvPrefix = "WALLET_KEY_"

// Static maps chain ids to in-memory private keys.
type Static struct {
	mu   sync.RWMutex
	keys map[int64]*btcec.PrivateKey
}

var _ chain.CredentialProvider = (*Static)(nil)

func NewStatic() *Static {
	return &Static{keys: make(map[int64]*btcec.PrivateKey)}
}

// AddHex parses a 32-byte hex private key, with or without 0x, for chainID.
func (s *Static) AddHex(chainID int64, raw string) error {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	b, err := hex.DecodeString(raw)
	if err != nil {
		return fmt.Errorf("decode key for chain %d: %w", chainID, err)
	}
	if len(b) != btcec.PrivKeyBytesLen {
		return fmt.Errorf("key for chain %d: want %d bytes, got %d", chainID, btcec.PrivKeyBytesLen, len(b))
	}
	key, _ := btcec.PrivKeyFromBytes(b)
	s.Add(chainID, key)
	return nil
}

func (s *Static) Add(chainID int64, key *btcec.PrivateKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[chainID] = key
}

func (s *Static) SigningKey(chainID int64) (*btcec.PrivateKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[chainID]
	return key, ok
}

func (s *Static) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// EnvName is the variable holding the key of network.
func EnvName(network string) string {
	return EnvPrefix + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(network))
}

// FromEnv loads a key for every network whose variable is set. lookup is
// usually os.LookupEnv.
func FromEnv(networks []model.NetworkDescriptor, lookup func(string) (string, bool)) (*Static, error) {
	s := NewStatic()
	for _, n := range networks {
		raw, ok := lookup(EnvName(n.Name))
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		if err := s.AddHex(n.ChainID, raw); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvName(n.Name), err)
		}
	}
	return s, nil
}
