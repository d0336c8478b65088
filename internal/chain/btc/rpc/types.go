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

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("bitcoind error %d: %s", e.Code, e.Message)
}

// RPCCode exposes the code to error classification.
func (e *RPCError) RPCCode() int {
	return e.Code
}

// SmartFee is the answer of estimatesmartfee. FeeRate is BTC per kvB and is
// absent when the node has too little data.
type SmartFee struct {
	FeeRate json.Number `json:"feerate"`
	Errors  []string    `json:"errors"`
	Blocks  int64       `json:"blocks"`
}
