package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// AssetDescriptor describes a coin or token configured for a network.
// An empty ContractAddress means the chain's native coin.
type AssetDescriptor struct {
	Symbol          string
	Name            string
	Decimals        int
	ContractAddress string
}

func (a AssetDescriptor) IsNative() bool {
	return a.ContractAddress == ""
}

// Asset is a measured balance in the asset's smallest unit.
type Asset struct {
	AssetDescriptor
	Balance *big.Int
}

// Formatted renders the balance as a fixed-point decimal in whole units.
func (a Asset) Formatted() string {
	return FormatUnits(a.Balance, a.Decimals)
}

// FormatUnits renders an integer amount of smallest units with the given precision.
func FormatUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

// ParseUnits converts a whole-unit decimal string into smallest units.
// Fractional digits beyond the asset precision are rejected.
func ParseUnits(value string, decimals int) (*big.Int, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, err
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, errTooPrecise
	}
	return scaled.BigInt(), nil
}
