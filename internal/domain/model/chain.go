package model

import (
	"fmt"
	"strings"
)

// ProtocolFamily is the closed set of ledger models the access layer speaks.
type ProtocolFamily string

const (
	FamilyEVM  ProtocolFamily = "evm"
	FamilyUTXO ProtocolFamily = "utxo"
	FamilyTron ProtocolFamily = "tron"
)

func (f ProtocolFamily) String() string {
	return string(f)
}

// ParseProtocolFamily normalizes a configured family name.
func ParseProtocolFamily(raw string) (ProtocolFamily, error) {
	switch ProtocolFamily(strings.ToLower(strings.TrimSpace(raw))) {
	case FamilyEVM:
		return FamilyEVM, nil
	case FamilyUTXO:
		return FamilyUTXO, nil
	case FamilyTron:
		return FamilyTron, nil
	default:
		return "", fmt.Errorf("unsupported protocol family %q", raw)
	}
}

// NetworkDescriptor is the static per-chain configuration loaded once at startup.
// UTXO networks carry a registry-assigned id; a negative id marks a testnet.
type NetworkDescriptor struct {
	Name           string
	Family         ProtocolFamily
	ChainID        int64
	RPCURLs        []string
	ExplorerURLs   []string
	WebsocketURL   string
	NativeSymbol   string
	NativeDecimals int
	Testnet        bool
}

// NativeAsset returns the descriptor of the chain's native coin.
func (n NetworkDescriptor) NativeAsset() AssetDescriptor {
	return AssetDescriptor{
		Symbol:   n.NativeSymbol,
		Name:     n.NativeSymbol,
		Decimals: n.NativeDecimals,
	}
}

type TxStatus string

const (
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusPending   TxStatus = "pending"
	TxStatusFailed    TxStatus = "failed"
)

type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
	DirectionSelf     Direction = "self"
)

// DirectionFor classifies a transfer relative to the queried address.
func DirectionFor(address string, from, to []string) Direction {
	sent := containsAddress(from, address)
	received := containsAddress(to, address)
	switch {
	case sent && received:
		return DirectionSelf
	case sent:
		return DirectionOutgoing
	default:
		return DirectionIncoming
	}
}

func containsAddress(list []string, address string) bool {
	for _, candidate := range list {
		if strings.EqualFold(candidate, address) {
			return true
		}
	}
	return false
}
