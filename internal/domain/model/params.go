package model

import (
	"errors"
	"math/big"
)

var errTooPrecise = errors.New("amount has more fractional digits than the asset precision")

// TransactionParams is the per-family send request. The set of variants is closed.
type TransactionParams interface {
	Destination() string
	isTransactionParams()
}

// AccountParams drives account-based sends (EVM and Tron).
// Token, when set, makes the client encode a token transfer of Amount to To.
// On Tron GasLimit is the fee limit in sun.
type AccountParams struct {
	To       string
	Amount   *big.Int
	Token    string
	Data     []byte
	GasPrice *big.Int
	GasLimit uint64
}

func (p AccountParams) Destination() string { return p.To }
func (AccountParams) isTransactionParams()  {}

// UTXOParams drives Bitcoin-style sends.
type UTXOParams struct {
	To                string
	AmountSat         int64
	FeeRateSatPerByte int64
}

func (p UTXOParams) Destination() string { return p.To }
func (UTXOParams) isTransactionParams()  {}
