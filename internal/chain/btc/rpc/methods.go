package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

func (c *Client) EstimateSmartFee(ctx context.Context, target int) (*SmartFee, error) {
	result, err := c.call(ctx, "estimatesmartfee", []interface{}{target})
	if err != nil {
		return nil, fmt.Errorf("estimatesmartfee(%d): %w", target, err)
	}

	dec := json.NewDecoder(bytes.NewReader(result))
	dec.UseNumber()
	var fee SmartFee
	if err := dec.Decode(&fee); err != nil {
		return nil, fmt.Errorf("unmarshal smart fee: %w", err)
	}
	if fee.FeeRate == "" {
		return nil, fmt.Errorf("estimatesmartfee(%d): no estimate: %v", target, fee.Errors)
	}
	return &fee, nil
}

func (c *Client) SendRawTransaction(ctx context.Context, rawTxHex string) (string, error) {
	result, err := c.call(ctx, "sendrawtransaction", []interface{}{rawTxHex})
	if err != nil {
		return "", fmt.Errorf("sendrawtransaction: %w", err)
	}

	var txid string
	if err := json.Unmarshal(result, &txid); err != nil {
		return "", fmt.Errorf("unmarshal txid: %w", err)
	}
	return txid, nil
}
