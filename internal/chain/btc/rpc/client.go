// Package rpc is a minimal bitcoind JSON-RPC client used as a fee and
// broadcast fallback next to the Esplora explorers.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/emperorhan/multichain-wallet/internal/chain/ratelimit"
)

type RPCClient interface {
	EstimateSmartFee(ctx context.Context, target int) (*SmartFee, error)
	SendRawTransaction(ctx context.Context, rawTxHex string) (string, error)
}

var _ RPCClient = (*Client)(nil)

type Client struct {
	httpClient *http.Client
	rpcURL     string
	network    string
	requestID  atomic.Int64
	logger     *slog.Logger
}

// NewClient builds a client for rpcURL. Credentials in the URL userinfo are
// sent as basic auth.
func NewClient(rpcURL, network string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rpcURL:  rpcURL,
		network: network,
		logger:  logger,
	}
}

func (c *Client) call(ctx context.Context, method string, params []interface{}) (result json.RawMessage, err error) {
	started := time.Now()
	defer func() { ratelimit.RecordRPCCall(c.network, method, started, err) }()

	req := c.newRequest(method, params)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rpcResp Response
	decodeErr := json.Unmarshal(respBody, &rpcResp)
	// older bitcoind versions report RPC errors with HTTP 500
	if decodeErr == nil && rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, string(respBody))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("unmarshal response: %w", decodeErr)
	}

	return rpcResp.Result, nil
}

func (c *Client) newRequest(method string, params []interface{}) Request {
	id := int(c.requestID.Add(1))
	if params == nil {
		params = []interface{}{}
	}
	return Request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}
}
