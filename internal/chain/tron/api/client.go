// Package api is a client for the Tron full-node HTTP API (/wallet/*) and the
// TronGrid v1 REST API (/v1/*). Requests use visible=true, so addresses go
// over the wire in base58.
package api

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

const historyPageSize = 50

type API interface {
	Account(ctx context.Context, address string) (*GridAccount, error)
	Transactions(ctx context.Context, address string) ([]GridTransaction, error)
	TRC20Transfers(ctx context.Context, address string) ([]TRC20Transfer, error)
	GetAccount(ctx context.Context, address string) (*Account, error)
	ChainParameters(ctx context.Context) ([]ChainParameter, error)
	TriggerConstantContract(ctx context.Context, call ContractCall) (*ConstantResult, error)
	TriggerSmartContract(ctx context.Context, call ContractCall) (*Transaction, error)
	CreateTransaction(ctx context.Context, req TransferRequest) (*Transaction, error)
	BroadcastTransaction(ctx context.Context, tx *Transaction) (*Result, error)
}

var _ API = (*Client)(nil)

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	network    string
	logger     *slog.Logger
}

func NewClient(baseURL, apiKey, network string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		network:    network,
		logger:     logger,
	}
}

// Account returns the TronGrid view of address. Accounts that were never
// activated come back with a zero balance.
func (c *Client) Account(ctx context.Context, address string) (*GridAccount, error) {
	var accounts []GridAccount
	if err := c.grid(ctx, "account", "/v1/accounts/"+url.PathEscape(address), &accounts); err != nil {
		return nil, fmt.Errorf("account(%s): %w", address, err)
	}
	if len(accounts) == 0 {
		return &GridAccount{Address: address}, nil
	}
	return &accounts[0], nil
}

func (c *Client) Transactions(ctx context.Context, address string) ([]GridTransaction, error) {
	var txs []GridTransaction
	path := fmt.Sprintf("/v1/accounts/%s/transactions?limit=%d", url.PathEscape(address), historyPageSize)
	if err := c.grid(ctx, "transactions", path, &txs); err != nil {
		return nil, fmt.Errorf("transactions(%s): %w", address, err)
	}
	return txs, nil
}

func (c *Client) TRC20Transfers(ctx context.Context, address string) ([]TRC20Transfer, error) {
	var transfers []TRC20Transfer
	path := fmt.Sprintf("/v1/accounts/%s/transactions/trc20?limit=%d", url.PathEscape(address), historyPageSize)
	if err := c.grid(ctx, "trc20", path, &transfers); err != nil {
		return nil, fmt.Errorf("trc20 transfers(%s): %w", address, err)
	}
	return transfers, nil
}

func (c *Client) GetAccount(ctx context.Context, address string) (*Account, error) {
	var account Account
	body := map[string]interface{}{"address": address, "visible": true}
	if err := c.wallet(ctx, "getaccount", body, &account); err != nil {
		return nil, fmt.Errorf("getaccount(%s): %w", address, err)
	}
	return &account, nil
}

func (c *Client) ChainParameters(ctx context.Context) ([]ChainParameter, error) {
	var resp struct {
		ChainParameter []ChainParameter `json:"chainParameter"`
	}
	if err := c.wallet(ctx, "getchainparameters", nil, &resp); err != nil {
		return nil, fmt.Errorf("getchainparameters: %w", err)
	}
	return resp.ChainParameter, nil
}

func (c *Client) TriggerConstantContract(ctx context.Context, call ContractCall) (*ConstantResult, error) {
	call.Visible = true
	var resp ConstantResult
	if err := c.wallet(ctx, "triggerconstantcontract", call, &resp); err != nil {
		return nil, fmt.Errorf("triggerconstantcontract(%s): %w", call.FunctionSelector, err)
	}
	if err := resp.Result.err(); err != nil {
		return nil, fmt.Errorf("triggerconstantcontract(%s): %w", call.FunctionSelector, err)
	}
	return &resp, nil
}

func (c *Client) TriggerSmartContract(ctx context.Context, call ContractCall) (*Transaction, error) {
	call.Visible = true
	var resp triggerResult
	if err := c.wallet(ctx, "triggersmartcontract", call, &resp); err != nil {
		return nil, fmt.Errorf("triggersmartcontract(%s): %w", call.FunctionSelector, err)
	}
	if err := resp.Result.err(); err != nil {
		return nil, fmt.Errorf("triggersmartcontract(%s): %w", call.FunctionSelector, err)
	}
	if resp.Transaction == nil || resp.Transaction.TxID == "" {
		return nil, fmt.Errorf("triggersmartcontract(%s): no transaction built", call.FunctionSelector)
	}
	return resp.Transaction, nil
}

func (c *Client) CreateTransaction(ctx context.Context, req TransferRequest) (*Transaction, error) {
	req.Visible = true
	var tx Transaction
	if err := c.wallet(ctx, "createtransaction", req, &tx); err != nil {
		return nil, fmt.Errorf("createtransaction: %w", err)
	}
	if tx.TxID == "" {
		return nil, fmt.Errorf("createtransaction: no transaction built")
	}
	return &tx, nil
}

// BroadcastTransaction submits a signed transaction. A rejection is returned
// as *Error carrying the node's code.
func (c *Client) BroadcastTransaction(ctx context.Context, tx *Transaction) (*Result, error) {
	var res Result
	if err := c.wallet(ctx, "broadcasttransaction", tx, &res); err != nil {
		return nil, fmt.Errorf("broadcasttransaction: %w", err)
	}
	if err := res.err(); err != nil {
		return nil, fmt.Errorf("broadcasttransaction: %w", err)
	}
	return &res, nil
}

// wallet POSTs to /wallet/{method}. Nodes report validation failures with a
// top-level "Error" string on HTTP 200.
func (c *Client) wallet(ctx context.Context, method string, payload, out interface{}) error {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	body, err := c.do(ctx, method, http.MethodPost, "/wallet/"+method, reqBody)
	if err != nil {
		return err
	}

	var envelope struct {
		Error string `json:"Error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return &Error{Code: "NODE_ERROR", Message: envelope.Error}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", method, err)
	}
	return nil
}

func (c *Client) grid(ctx context.Context, op, path string, out interface{}) error {
	body, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	var resp gridResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("unmarshal %s: %w", op, err)
	}
	if !resp.Success {
		return &Error{Code: "GRID_ERROR", Message: resp.Error}
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", op, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload io.Reader) (body []byte, err error) {
	started := time.Now()
	defer func() { ratelimit.RecordRPCCall(c.network, "tron_"+op, started, err) }()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("TRON-PRO-API-KEY", c.apiKey)
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
		return nil, &Error{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return body, nil
}
