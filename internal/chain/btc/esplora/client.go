// Package esplora is a client for the Esplora REST API (blockstream.info,
// mempool.space and self-hosted electrs).
package esplora

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emperorhan/multichain-wallet/internal/chain/ratelimit"
)

type API interface {
	Address(ctx context.Context, address string) (*AddressInfo, error)
	UTXOs(ctx context.Context, address string) ([]UTXO, error)
	Transactions(ctx context.Context, address string) ([]Transaction, error)
	FeeEstimates(ctx context.Context) (FeeEstimates, error)
	Broadcast(ctx context.Context, rawTxHex string) (string, error)
}

var _ API = (*Client)(nil)

type Client struct {
	httpClient *http.Client
	baseURL    string
	network    string
	logger     *slog.Logger
}

func NewClient(baseURL, network string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		network:    network,
		logger:     logger,
	}
}

func (c *Client) Address(ctx context.Context, address string) (*AddressInfo, error) {
	var info AddressInfo
	if err := c.getJSON(ctx, "address", "/address/"+url.PathEscape(address), &info); err != nil {
		return nil, fmt.Errorf("address(%s): %w", address, err)
	}
	return &info, nil
}

func (c *Client) UTXOs(ctx context.Context, address string) ([]UTXO, error) {
	var utxos []UTXO
	if err := c.getJSON(ctx, "utxo", "/address/"+url.PathEscape(address)+"/utxo", &utxos); err != nil {
		return nil, fmt.Errorf("utxo(%s): %w", address, err)
	}
	return utxos, nil
}

func (c *Client) Transactions(ctx context.Context, address string) ([]Transaction, error) {
	var txs []Transaction
	if err := c.getJSON(ctx, "txs", "/address/"+url.PathEscape(address)+"/txs", &txs); err != nil {
		return nil, fmt.Errorf("txs(%s): %w", address, err)
	}
	return txs, nil
}

func (c *Client) FeeEstimates(ctx context.Context) (FeeEstimates, error) {
	body, err := c.do(ctx, "fee_estimates", http.MethodGet, "/fee-estimates", nil)
	if err != nil {
		return nil, fmt.Errorf("fee-estimates: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var estimates FeeEstimates
	if err := dec.Decode(&estimates); err != nil {
		return nil, fmt.Errorf("unmarshal fee estimates: %w", err)
	}
	return estimates, nil
}

// Broadcast posts the hex-encoded transaction and returns the txid.
func (c *Client) Broadcast(ctx context.Context, rawTxHex string) (string, error) {
	body, err := c.do(ctx, "broadcast", http.MethodPost, "/tx", strings.NewReader(rawTxHex))
	if err != nil {
		return "", fmt.Errorf("broadcast: %w", err)
	}
	txid := strings.TrimSpace(string(body))
	if txid == "" {
		return "", fmt.Errorf("broadcast: empty txid")
	}
	return txid, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out interface{}) error {
	body, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", op, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload io.Reader) (body []byte, err error) {
	started := time.Now()
	defer func() { ratelimit.RecordRPCCall(c.network, "esplora_"+op, started, err) }()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "text/plain")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
