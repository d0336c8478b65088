package model

import (
	"math/big"
	"sort"
	"time"
)

// TransactionRecord is the normalized history entry shared by every family.
// Amount and Fee are always in the smallest unit of the transferred asset
// (Fee in the native coin).
type TransactionRecord struct {
	Hash            string
	Timestamp       time.Time
	BlockNumber     int64
	Fee             *big.Int
	Status          TxStatus
	From            []string
	To              []string
	Amount          *big.Int
	ContractAddress string
	Symbol          string
	Direction       Direction
}

// IsTokenTransfer reports whether the record describes a token movement.
func (r TransactionRecord) IsTokenTransfer() bool {
	return r.ContractAddress != ""
}

// SortByTimestampDesc orders records newest first; ties keep hash order stable.
// A zero Timestamp marks an unconfirmed record and sorts ahead of every
// confirmed one.
func SortByTimestampDesc(records []TransactionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if pi, pj := records[i].Timestamp.IsZero(), records[j].Timestamp.IsZero(); pi != pj {
			return pi
		}
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		if records[i].Hash != records[j].Hash {
			return records[i].Hash < records[j].Hash
		}
		return records[i].ContractAddress < records[j].ContractAddress
	})
}
