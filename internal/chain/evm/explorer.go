package evm

import (
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

const noTransactionsFound = "No transactions found"

// ExplorerTx is one row of an Etherscan-compatible txlist or tokentx answer.
type ExplorerTx struct {
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	Gas             string `json:"gas"`
	GasPrice        string `json:"gasPrice"`
	GasUsed         string `json:"gasUsed"`
	IsError         string `json:"isError"`
	TxReceiptStatus string `json:"txreceipt_status"`
	ContractAddress string `json:"contractAddress"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
	Confirmations   string `json:"confirmations"`
}

type explorerResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// ExplorerError is an answer with status other than "1".
type ExplorerError struct {
	Message string
	Result  string
}

func (e *ExplorerError) Error() string {
	if e.Result != "" {
		return fmt.Sprintf("explorer error: %s: %s", e.Message, e.Result)
	}
	return "explorer error: " + e.Message
}

// Explorer queries the account module of an Etherscan-compatible API.
type Explorer struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	network    string
	logger     *slog.Logger
}

func NewExplorer(baseURL, apiKey, network string, timeout time.Duration, logger *slog.Logger) *Explorer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Explorer{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		network:    network,
		logger:     logger,
	}
}

// NativeTransfers returns action=txlist rows for address.
func (e *Explorer) NativeTransfers(ctx context.Context, address string) ([]ExplorerTx, error) {
	return e.accountAction(ctx, "txlist", address)
}

// TokenTransfers returns action=tokentx rows for address.
func (e *Explorer) TokenTransfers(ctx context.Context, address string) ([]ExplorerTx, error) {
	return e.accountAction(ctx, "tokentx", address)
}

func (e *Explorer) accountAction(ctx context.Context, action, address string) (rows []ExplorerTx, err error) {
	started := time.Now()
	defer func() { ratelimit.RecordRPCCall(e.network, "explorer_"+action, started, err) }()

	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", action)
	q.Set("address", address)
	q.Set("startblock", "0")
	q.Set("endblock", "99999999")
	q.Set("sort", "desc")
	if e.apiKey != "" {
		q.Set("apikey", e.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s(%s): %w", action, address, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s(%s): http status %d", action, address, resp.StatusCode)
	}

	var parsed explorerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal %s response: %w", action, err)
	}

	if parsed.Status != "1" {
		if strings.EqualFold(parsed.Message, noTransactionsFound) {
			return []ExplorerTx{}, nil
		}
		var detail string
		_ = json.Unmarshal(parsed.Result, &detail)
		return nil, &ExplorerError{Message: parsed.Message, Result: detail}
	}

	if err := json.Unmarshal(parsed.Result, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal %s rows: %w", action, err)
	}
	return rows, nil
}
