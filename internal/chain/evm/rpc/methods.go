package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

const latest = "latest"

func (c *Client) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	result, err := c.call(ctx, "eth_getBalance", []interface{}{address, latest})
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance(%s): %w", address, err)
	}
	return decodeQuantityResult(result)
}

func (c *Client) Call(ctx context.Context, msg CallMsg) ([]byte, error) {
	result, err := c.call(ctx, "eth_call", []interface{}{msg, latest})
	if err != nil {
		return nil, fmt.Errorf("eth_call(%s): %w", msg.To, err)
	}
	return decodeDataResult(result)
}

func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	result, err := c.call(ctx, "eth_gasPrice", nil)
	if err != nil {
		return nil, fmt.Errorf("eth_gasPrice: %w", err)
	}
	return decodeQuantityResult(result)
}

func (c *Client) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	result, err := c.call(ctx, "eth_estimateGas", []interface{}{msg})
	if err != nil {
		return 0, fmt.Errorf("eth_estimateGas(%s): %w", msg.To, err)
	}
	gas, err := decodeQuantityResult(result)
	if err != nil {
		return 0, err
	}
	if !gas.IsUint64() {
		return 0, fmt.Errorf("gas estimate overflows uint64: %s", gas)
	}
	return gas.Uint64(), nil
}

func (c *Client) GetTransactionCount(ctx context.Context, address, tag string) (uint64, error) {
	result, err := c.call(ctx, "eth_getTransactionCount", []interface{}{address, tag})
	if err != nil {
		return 0, fmt.Errorf("eth_getTransactionCount(%s): %w", address, err)
	}
	nonce, err := decodeQuantityResult(result)
	if err != nil {
		return 0, err
	}
	if !nonce.IsUint64() {
		return 0, fmt.Errorf("nonce overflows uint64: %s", nonce)
	}
	return nonce.Uint64(), nil
}

func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (string, error) {
	result, err := c.call(ctx, "eth_sendRawTransaction", []interface{}{"0x" + hex.EncodeToString(raw)})
	if err != nil {
		return "", fmt.Errorf("eth_sendRawTransaction: %w", err)
	}
	var hash string
	if err := json.Unmarshal(result, &hash); err != nil {
		return "", fmt.Errorf("unmarshal tx hash: %w", err)
	}
	if hash == "" {
		return "", fmt.Errorf("eth_sendRawTransaction: empty hash")
	}
	return hash, nil
}

func (c *Client) ChainID(ctx context.Context) (int64, error) {
	result, err := c.call(ctx, "eth_chainId", nil)
	if err != nil {
		return 0, fmt.Errorf("eth_chainId: %w", err)
	}
	id, err := decodeQuantityResult(result)
	if err != nil {
		return 0, err
	}
	if !id.IsInt64() {
		return 0, fmt.Errorf("chain id overflows int64: %s", id)
	}
	return id.Int64(), nil
}

// Batch sends items as one JSON-RPC batch. Results come back in input order;
// per-item errors are reported in the result, not as the call error.
func (c *Client) Batch(ctx context.Context, items []BatchItem) ([]BatchResult, error) {
	if len(items) == 0 {
		return []BatchResult{}, nil
	}

	requests := make([]Request, len(items))
	for i, item := range items {
		requests[i] = c.newRequest(item.Method, item.Params)
	}

	responses, err := c.callBatch(ctx, requests)
	if err != nil {
		return nil, fmt.Errorf("batch(%d): %w", len(items), err)
	}

	results := make([]BatchResult, len(responses))
	for i, resp := range responses {
		results[i] = BatchResult{Result: resp.Result, Error: resp.Error}
	}
	return results, nil
}

// BalanceItem builds the eth_getBalance sub-request for address.
func BalanceItem(address string) BatchItem {
	return BatchItem{Method: "eth_getBalance", Params: []interface{}{address, latest}}
}

// CallItem builds the eth_call sub-request for msg.
func CallItem(msg CallMsg) BatchItem {
	return BatchItem{Method: "eth_call", Params: []interface{}{msg, latest}}
}

func decodeQuantityResult(result json.RawMessage) (*big.Int, error) {
	var hexNum string
	if err := json.Unmarshal(result, &hexNum); err != nil {
		return nil, fmt.Errorf("unmarshal quantity: %w", err)
	}
	return ParseQuantity(hexNum)
}

func decodeDataResult(result json.RawMessage) ([]byte, error) {
	var hexData string
	if err := json.Unmarshal(result, &hexData); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	return DecodeHex(hexData)
}

// ParseQuantity decodes a hex quantity of at most 256 bits. Leading zeros
// are tolerated since some providers pad their answers.
func ParseQuantity(value string) (*big.Int, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return nil, fmt.Errorf("empty hex value")
	}
	raw = strings.TrimLeft(strings.TrimPrefix(strings.ToLower(raw), "0x"), "0")
	if raw == "" {
		return new(big.Int), nil
	}
	parsed, err := uint256.FromHex("0x" + raw)
	if err != nil {
		return nil, fmt.Errorf("parse hex %q: %w", value, err)
	}
	return parsed.ToBig(), nil
}

// ParseResultQuantity decodes a batch result holding a hex quantity.
func ParseResultQuantity(result json.RawMessage) (*big.Int, error) {
	return decodeQuantityResult(result)
}

// ParseResultData decodes a batch result holding hex data.
func ParseResultData(result json.RawMessage) ([]byte, error) {
	return decodeDataResult(result)
}

// DecodeHex decodes 0x-prefixed data; "0x" is empty data.
func DecodeHex(value string) ([]byte, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(value), "0x"), "0X")
	if len(raw)%2 == 1 {
		raw = "0" + raw
	}
	out, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode hex %q: %w", value, err)
	}
	return out, nil
}
