package rpc

import (
	"encoding/json"
	"fmt"
)

type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error object of a JSON-RPC response. Nodes report it with
// HTTP 200, so it has to be checked on every response.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// RPCCode exposes the code to error classification.
func (e *RPCError) RPCCode() int {
	return e.Code
}

// CallMsg is the transaction-call object of eth_call and eth_estimateGas.
type CallMsg struct {
	From  string `json:"from,omitempty"`
	To    string `json:"to"`
	Data  string `json:"data,omitempty"`
	Value string `json:"value,omitempty"`
}

// BatchItem is one sub-request of a batch.
type BatchItem struct {
	Method string
	Params []interface{}
}

// BatchResult carries the raw result or the per-item error of one sub-request.
type BatchResult struct {
	Result json.RawMessage
	Error  *RPCError
}
