package model

import (
	"math/big"
	"time"
)

type FeeLevel string

const (
	FeeLevelNormal FeeLevel = "normal"
	FeeLevelFast   FeeLevel = "fast"
	FeeLevelUrgent FeeLevel = "urgent"
)

// FeeRequest carries the optional context a family may use to refine a quote.
type FeeRequest struct {
	From   string
	To     string
	Asset  *AssetDescriptor
	Amount *big.Int
}

// FeeQuote is one advisory fee tier. Fee is in the native coin's smallest unit.
type FeeQuote struct {
	Level         FeeLevel
	Fee           *big.Int
	GasPrice      *big.Int
	GasLimit      uint64
	FeeRate       int64
	Tron          *TronFeeDetail
	EstimatedTime time.Duration
}

// TronFeeDetail breaks a Tron quote into its resource components (all in sun).
type TronFeeDetail struct {
	Energy        int64
	EnergyFee     *big.Int
	Bandwidth     int64
	BandwidthFee  *big.Int
	ActivationFee *big.Int
}
