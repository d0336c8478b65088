package api

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Error is a failure reported by a Tron node or TronGrid: a non-2xx answer,
// a top-level "Error" field, or a result object with result=false.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.StatusCode != 0:
		return fmt.Sprintf("tron http status %d: %s: %s", e.StatusCode, e.Code, e.Message)
	case e.Code != "":
		return fmt.Sprintf("tron error %s: %s", e.Code, e.Message)
	default:
		return fmt.Sprintf("tron http status %d: %s", e.StatusCode, e.Message)
	}
}

// decodeMessage undoes the hex encoding nodes apply to result messages.
func decodeMessage(msg string) string {
	if raw, err := hex.DecodeString(msg); err == nil && len(raw) > 0 {
		return string(raw)
	}
	return msg
}

// Result is the {"result":bool,"code":...,"message":...} object nodes attach
// to contract calls and broadcasts.
type Result struct {
	Result  bool   `json:"result"`
	Code    string `json:"code"`
	Message string `json:"message"`
	TxID    string `json:"txid"`
}

func (r Result) err() error {
	if r.Result {
		return nil
	}
	code := r.Code
	if code == "" {
		code = "UNKNOWN"
	}
	return &Error{Code: code, Message: decodeMessage(r.Message)}
}

// Transaction is a node-built transaction. RawData is kept verbatim so a
// signed transaction is broadcast exactly as it was built.
type Transaction struct {
	Visible    bool            `json:"visible"`
	TxID       string          `json:"txID"`
	RawData    json.RawMessage `json:"raw_data"`
	RawDataHex string          `json:"raw_data_hex"`
	Signature  []string        `json:"signature,omitempty"`
}

// TransferRequest is the body of /wallet/createtransaction.
type TransferRequest struct {
	OwnerAddress string `json:"owner_address"`
	ToAddress    string `json:"to_address"`
	Amount       int64  `json:"amount"`
	Visible      bool   `json:"visible"`
}

// ContractCall is the body of /wallet/triggersmartcontract and
// /wallet/triggerconstantcontract. Parameter is the hex ABI encoding of the
// arguments, without selector.
type ContractCall struct {
	OwnerAddress     string `json:"owner_address"`
	ContractAddress  string `json:"contract_address"`
	FunctionSelector string `json:"function_selector"`
	Parameter        string `json:"parameter"`
	FeeLimit         int64  `json:"fee_limit,omitempty"`
	CallValue        int64  `json:"call_value,omitempty"`
	Visible          bool   `json:"visible"`
}

// ConstantResult is the answer of /wallet/triggerconstantcontract.
type ConstantResult struct {
	Result         Result       `json:"result"`
	EnergyUsed     int64        `json:"energy_used"`
	ConstantResult []string     `json:"constant_result"`
	Transaction    *Transaction `json:"transaction"`
}

type triggerResult struct {
	Result      Result       `json:"result"`
	Transaction *Transaction `json:"transaction"`
}

// ChainParameter is one entry of /wallet/getchainparameters.
type ChainParameter struct {
	Key   string `json:"key"`
	Value int64  `json:"value"`
}

// Account is the answer of /wallet/getaccount. An empty Address means the
// account does not exist on chain.
type Account struct {
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

func (a Account) Exists() bool {
	return a.Address != ""
}

// GridAccount is one entry of TronGrid /v1/accounts/{address}.
type GridAccount struct {
	Address string              `json:"address"`
	Balance int64               `json:"balance"`
	TRC20   []map[string]string `json:"trc20"`
}

type gridResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// GridTransaction is one entry of TronGrid /v1/accounts/{address}/transactions.
type GridTransaction struct {
	TxID           string        `json:"txID"`
	BlockNumber    int64         `json:"blockNumber"`
	BlockTimestamp int64         `json:"block_timestamp"`
	NetFee         int64         `json:"net_fee"`
	EnergyFee      int64         `json:"energy_fee"`
	Ret            []ContractRet `json:"ret"`
	RawData        struct {
		Contract []Contract `json:"contract"`
	} `json:"raw_data"`
}

type ContractRet struct {
	ContractRet string `json:"contractRet"`
	Fee         int64  `json:"fee"`
}

// Contract is one contract of a transaction. Addresses in Value are hex
// (41-prefixed).
type Contract struct {
	Type      string `json:"type"`
	Parameter struct {
		Value struct {
			Amount          int64  `json:"amount"`
			OwnerAddress    string `json:"owner_address"`
			ToAddress       string `json:"to_address"`
			ContractAddress string `json:"contract_address"`
			CallValue       int64  `json:"call_value"`
		} `json:"value"`
	} `json:"parameter"`
}

// TRC20Transfer is one entry of TronGrid
// /v1/accounts/{address}/transactions/trc20. Addresses are base58.
type TRC20Transfer struct {
	TransactionID  string    `json:"transaction_id"`
	BlockTimestamp int64     `json:"block_timestamp"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	Type           string    `json:"type"`
	Value          string    `json:"value"`
	TokenInfo      TokenInfo `json:"token_info"`
}

type TokenInfo struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
	Name     string `json:"name"`
}
