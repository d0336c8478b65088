package esplora

import (
	"encoding/json"
	"fmt"
)

type TxoStats struct {
	FundedTxoCount int64 `json:"funded_txo_count"`
	FundedTxoSum   int64 `json:"funded_txo_sum"`
	SpentTxoCount  int64 `json:"spent_txo_count"`
	SpentTxoSum    int64 `json:"spent_txo_sum"`
	TxCount        int64 `json:"tx_count"`
}

// AddressInfo is the answer of /address/{address}.
type AddressInfo struct {
	Address      string   `json:"address"`
	ChainStats   TxoStats `json:"chain_stats"`
	MempoolStats TxoStats `json:"mempool_stats"`
}

// BalanceSat is confirmed plus unconfirmed funded minus spent.
func (a AddressInfo) BalanceSat() int64 {
	return a.ChainStats.FundedTxoSum - a.ChainStats.SpentTxoSum +
		a.MempoolStats.FundedTxoSum - a.MempoolStats.SpentTxoSum
}

type TxStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight int64  `json:"block_height"`
	BlockHash   string `json:"block_hash"`
	BlockTime   int64  `json:"block_time"`
}

type UTXO struct {
	TxID   string   `json:"txid"`
	Vout   uint32   `json:"vout"`
	Value  int64    `json:"value"`
	Status TxStatus `json:"status"`
}

type Prevout struct {
	ScriptPubKey        string `json:"scriptpubkey"`
	ScriptPubKeyType    string `json:"scriptpubkey_type"`
	ScriptPubKeyAddress string `json:"scriptpubkey_address"`
	Value               int64  `json:"value"`
}

type Vin struct {
	TxID       string   `json:"txid"`
	Vout       uint32   `json:"vout"`
	Prevout    *Prevout `json:"prevout"`
	IsCoinbase bool     `json:"is_coinbase"`
}

type Vout struct {
	ScriptPubKey        string `json:"scriptpubkey"`
	ScriptPubKeyType    string `json:"scriptpubkey_type"`
	ScriptPubKeyAddress string `json:"scriptpubkey_address"`
	Value               int64  `json:"value"`
}

type Transaction struct {
	TxID   string   `json:"txid"`
	Vin    []Vin    `json:"vin"`
	Vout   []Vout   `json:"vout"`
	Size   int64    `json:"size"`
	Weight int64    `json:"weight"`
	Fee    int64    `json:"fee"`
	Status TxStatus `json:"status"`
}

// FeeEstimates maps a confirmation target in blocks to sat/vB. Values stay
// json.Number so callers never round-trip through float64.
type FeeEstimates map[string]json.Number

// StatusError is a non-2xx answer. Esplora puts node rejections for POST /tx
// in the body.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("esplora http status %d: %s", e.StatusCode, e.Body)
}
