package chain

//go:generate mockgen -source=source.go -destination=mocks/mock_source.go -package=mocks

import (
	"context"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

// DataSource abstracts protocol-family logic so wallet orchestration operates chain-agnostically.
type DataSource interface {
	// Network returns the descriptor the client was built for.
	Network() model.NetworkDescriptor

	// GetBalance returns the native-coin balance in the smallest unit.
	GetBalance(ctx context.Context, address string) (*big.Int, error)

	// GetAssetBalances returns the native coin plus every configured token.
	GetAssetBalances(ctx context.Context, address string) ([]model.Asset, error)

	// GetBalancesForMultipleAddresses resolves assets for many addresses at once.
	// Addresses whose lookups all failed are absent from the result.
	GetBalancesForMultipleAddresses(ctx context.Context, addresses []string) (map[string][]model.Asset, error)

	// GetTransactionHistory returns normalized records, newest first.
	GetTransactionHistory(ctx context.Context, address string) ([]model.TransactionRecord, error)

	// GetFeeOptions returns one or more advisory fee tiers.
	GetFeeOptions(ctx context.Context, req model.FeeRequest) ([]model.FeeQuote, error)

	// SendTransaction builds, signs locally and broadcasts a transaction.
	// The key is used for this call only and never retained.
	SendTransaction(ctx context.Context, params model.TransactionParams, key *btcec.PrivateKey) (string, error)
}

// NetworkRegistry supplies static per-chain configuration.
type NetworkRegistry interface {
	NetworkByChainID(chainID int64) (model.NetworkDescriptor, bool)
	NetworkByName(name string) (model.NetworkDescriptor, bool)
	AssetsForNetwork(chainID int64) []model.AssetDescriptor
}

// CredentialProvider returns the signing key for a chain. It reports false,
// rather than failing, when no wallet is loaded for that chain.
type CredentialProvider interface {
	SigningKey(chainID int64) (*btcec.PrivateKey, bool)
}
