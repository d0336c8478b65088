package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/emperorhan/multichain-wallet/internal/chain/ratelimit"
)

type RPCClient interface {
	GetBalance(ctx context.Context, address string) (*big.Int, error)
	Call(ctx context.Context, msg CallMsg) ([]byte, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg CallMsg) (uint64, error)
	GetTransactionCount(ctx context.Context, address, tag string) (uint64, error)
	SendRawTransaction(ctx context.Context, raw []byte) (string, error)
	ChainID(ctx context.Context) (int64, error)
	Batch(ctx context.Context, items []BatchItem) ([]BatchResult, error)
}

var _ RPCClient = (*Client)(nil)

type Client struct {
	httpClient *http.Client
	rpcURL     string
	network    string
	requestID  atomic.Int64
	logger     *slog.Logger
}

func NewClient(rpcURL, network string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		rpcURL:     rpcURL,
		network:    network,
		logger:     logger,
	}
}

func (c *Client) call(ctx context.Context, method string, params []interface{}) (result json.RawMessage, err error) {
	started := time.Now()
	defer func() { ratelimit.RecordRPCCall(c.network, method, started, err) }()

	req := c.newRequest(method, params)
	respBody, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}

	var rpcResp Response
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	return rpcResp.Result, nil
}

func (c *Client) callBatch(ctx context.Context, requests []Request) (ordered []Response, err error) {
	if len(requests) == 0 {
		return []Response{}, nil
	}
	started := time.Now()
	defer func() { ratelimit.RecordRPCCall(c.network, "batch", started, err) }()

	respBody, err := c.post(ctx, requests)
	if err != nil {
		return nil, err
	}

	var rpcResps []Response
	if err := json.Unmarshal(respBody, &rpcResps); err != nil {
		// some providers answer a rejected batch with a single error object
		var single Response
		if json.Unmarshal(respBody, &single) == nil && single.Error != nil {
			return nil, single.Error
		}
		return nil, fmt.Errorf("unmarshal batch response: %w", err)
	}

	responseByID := make(map[int]Response, len(rpcResps))
	for _, rpcResp := range rpcResps {
		responseByID[rpcResp.ID] = rpcResp
	}

	ordered = make([]Response, len(requests))
	for i, req := range requests {
		rpcResp, ok := responseByID[req.ID]
		if !ok {
			return nil, fmt.Errorf("missing batch response id=%d method=%s", req.ID, req.Method)
		}
		ordered[i] = rpcResp
	}

	return ordered, nil
}

func (c *Client) post(ctx context.Context, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
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

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, truncate(respBody, 256))
	}
	return respBody, nil
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

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
