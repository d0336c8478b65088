package httpapi

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/chain/failover"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
	"github.com/emperorhan/multichain-wallet/internal/wallet"
)

type assetResponse struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Decimals  int    `json:"decimals"`
	Contract  string `json:"contract,omitempty"`
	Balance   string `json:"balance"`
	Formatted string `json:"formatted"`
}

func newAssetResponse(a model.Asset) assetResponse {
	return assetResponse{
		Symbol:    a.Symbol,
		Name:      a.Name,
		Decimals:  a.Decimals,
		Contract:  a.ContractAddress,
		Balance:   intString(a.Balance),
		Formatted: a.Formatted(),
	}
}

func newAssetsResponse(assets []model.Asset) []assetResponse {
	out := make([]assetResponse, len(assets))
	for i, a := range assets {
		out[i] = newAssetResponse(a)
	}
	return out
}

type recordResponse struct {
	Hash        string     `json:"hash"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	BlockNumber int64      `json:"block_number,omitempty"`
	Fee         string     `json:"fee"`
	Status      string     `json:"status"`
	From        []string   `json:"from"`
	To          []string   `json:"to"`
	Amount      string     `json:"amount"`
	Contract    string     `json:"contract,omitempty"`
	Symbol      string     `json:"symbol,omitempty"`
	Direction   string     `json:"direction"`
}

func newRecordResponse(r model.TransactionRecord) recordResponse {
	resp := recordResponse{
		Hash:        r.Hash,
		BlockNumber: r.BlockNumber,
		Fee:         intString(r.Fee),
		Status:      string(r.Status),
		From:        nonNil(r.From),
		To:          nonNil(r.To),
		Amount:      intString(r.Amount),
		Contract:    r.ContractAddress,
		Symbol:      r.Symbol,
		Direction:   string(r.Direction),
	}
	// pending transactions carry no timestamp
	if !r.Timestamp.IsZero() {
		ts := r.Timestamp.UTC()
		resp.Timestamp = &ts
	}
	return resp
}

type tronFeeResponse struct {
	Energy        int64  `json:"energy"`
	EnergyFee     string `json:"energy_fee"`
	Bandwidth     int64  `json:"bandwidth"`
	BandwidthFee  string `json:"bandwidth_fee"`
	ActivationFee string `json:"activation_fee"`
}

type quoteResponse struct {
	Level                string           `json:"level"`
	Fee                  string           `json:"fee"`
	GasPrice             string           `json:"gas_price,omitempty"`
	GasLimit             uint64           `json:"gas_limit,omitempty"`
	FeeRate              int64            `json:"fee_rate,omitempty"`
	EstimatedTimeSeconds int64            `json:"estimated_time_seconds,omitempty"`
	Tron                 *tronFeeResponse `json:"tron,omitempty"`
}

func newQuoteResponse(q model.FeeQuote) quoteResponse {
	resp := quoteResponse{
		Level:                string(q.Level),
		Fee:                  intString(q.Fee),
		GasLimit:             q.GasLimit,
		FeeRate:              q.FeeRate,
		EstimatedTimeSeconds: int64(q.EstimatedTime / time.Second),
	}
	if q.GasPrice != nil {
		resp.GasPrice = q.GasPrice.String()
	}
	if t := q.Tron; t != nil {
		resp.Tron = &tronFeeResponse{
			Energy:        t.Energy,
			EnergyFee:     intString(t.EnergyFee),
			Bandwidth:     t.Bandwidth,
			BandwidthFee:  intString(t.BandwidthFee),
			ActivationFee: intString(t.ActivationFee),
		}
	}
	return resp
}

// sendRequest is the body of a transaction submission. Amount is in whole
// units of the asset; GasPrice is in the smallest native unit.
type sendRequest struct {
	To       string `json:"to"`
	Amount   string `json:"amount"`
	Token    string `json:"token,omitempty"`
	Data     string `json:"data,omitempty"`
	GasPrice string `json:"gas_price,omitempty"`
	GasLimit uint64 `json:"gas_limit,omitempty"`
	FeeRate  int64  `json:"fee_rate,omitempty"`
}

var errUnsupportedField = errors.New("field not supported by this network")

func (req sendRequest) params(desc model.NetworkDescriptor, asset model.AssetDescriptor) (model.TransactionParams, error) {
	amount, err := model.ParseUnits(req.Amount, asset.Decimals)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	if desc.Family == model.FamilyUTXO {
		if req.Token != "" || req.Data != "" || req.GasPrice != "" || req.GasLimit != 0 {
			return nil, fmt.Errorf("%w: only to, amount and fee_rate apply", errUnsupportedField)
		}
		if !amount.IsInt64() {
			return nil, fmt.Errorf("amount out of range")
		}
		return model.UTXOParams{To: req.To, AmountSat: amount.Int64(), FeeRateSatPerByte: req.FeeRate}, nil
	}

	if req.FeeRate != 0 {
		return nil, fmt.Errorf("%w: fee_rate", errUnsupportedField)
	}
	p := model.AccountParams{To: req.To, Amount: amount, Token: asset.ContractAddress, GasLimit: req.GasLimit}
	if req.Data != "" {
		data, err := hex.DecodeString(strings.TrimPrefix(req.Data, "0x"))
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		p.Data = data
	}
	if req.GasPrice != "" {
		gp, ok := new(big.Int).SetString(req.GasPrice, 10)
		if !ok || gp.Sign() < 0 {
			return nil, fmt.Errorf("gas_price: invalid integer %q", req.GasPrice)
		}
		p.GasPrice = gp
	}
	return p, nil
}

type sendResponse struct {
	Network string `json:"network"`
	TxID    string `json:"tx_id"`
}

type networkBalancesResponse struct {
	Network  string                     `json:"network"`
	ChainID  int64                      `json:"chain_id"`
	Balances map[string][]assetResponse `json:"balances,omitempty"`
	Owners   map[string][]string        `json:"owners,omitempty"`
	Error    string                     `json:"error,omitempty"`
	Kind     string                     `json:"kind,omitempty"`
}

func newNetworkBalancesResponse(nb wallet.NetworkBalances) networkBalancesResponse {
	resp := networkBalancesResponse{Network: nb.Network, ChainID: nb.ChainID, Owners: nb.Owners}
	if nb.Err != nil {
		resp.Error = nb.Err.Error()
		resp.Kind = string(chain.KindOf(nb.Err))
		return resp
	}
	resp.Balances = make(map[string][]assetResponse, len(nb.Balances))
	for addr, assets := range nb.Balances {
		resp.Balances[addr] = newAssetsResponse(assets)
	}
	return resp
}

type clientHealth struct {
	Network   string                    `json:"network"`
	ChainID   int64                     `json:"chain_id"`
	State     string                    `json:"state,omitempty"`
	Endpoints []failover.EndpointStatus `json:"endpoints,omitempty"`
}

type healthResponse struct {
	Status   string         `json:"status"`
	Networks []clientHealth `json:"networks,omitempty"`
}

// endpointReporter is implemented by the protocol clients.
type endpointReporter interface {
	Endpoints() (failover.ConnState, []failover.EndpointStatus)
}

func newClientHealth(ds chain.DataSource) clientHealth {
	n := ds.Network()
	h := clientHealth{Network: n.Name, ChainID: n.ChainID}
	if rep, ok := ds.(endpointReporter); ok {
		state, endpoints := rep.Endpoints()
		h.State = state.String()
		h.Endpoints = endpoints
	}
	return h
}

func equalContract(family model.ProtocolFamily, a, b string) bool {
	if family == model.FamilyEVM {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func intString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
