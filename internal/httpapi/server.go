// Package httpapi exposes the wallet repository as a JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
	"github.com/emperorhan/multichain-wallet/internal/metrics"
	"github.com/emperorhan/multichain-wallet/internal/wallet"
)

const maxRequestBodyBytes = 64 << 10

// WalletService is the subset of the wallet repository the API serves.
type WalletService interface {
	GetBalance(ctx context.Context, network, address string) (*big.Int, error)
	GetAssets(ctx context.Context, network, address string) ([]model.Asset, error)
	GetTransactionHistory(ctx context.Context, network, address string) ([]model.TransactionRecord, error)
	GetFeeOptions(ctx context.Context, network string, req model.FeeRequest) ([]model.FeeQuote, error)
	SendTransaction(ctx context.Context, network string, params model.TransactionParams) (string, error)
	GetWalletBalances(ctx context.Context) ([]wallet.NetworkBalances, error)
}

// ClientLister returns the chain clients built so far.
type ClientLister interface {
	Clients() []chain.DataSource
}

type Server struct {
	wallets  WalletService
	registry chain.NetworkRegistry
	clients  ClientLister
	logger   *slog.Logger
}

type ServerOption func(*Server)

// WithClientLister enables per-endpoint detail on /healthz.
func WithClientLister(l ClientLister) ServerOption {
	return func(s *Server) { s.clients = l }
}

func NewServer(wallets WalletService, registry chain.NetworkRegistry, logger *slog.Logger, opts ...ServerOption) *Server {
	s := &Server{
		wallets:  wallets,
		registry: registry,
		logger:   logger.With("component", "httpapi"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API with request metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/networks/{network}/balance", s.handleBalance)
	mux.HandleFunc("GET /v1/networks/{network}/assets", s.handleAssets)
	mux.HandleFunc("GET /v1/networks/{network}/history", s.handleHistory)
	mux.HandleFunc("GET /v1/networks/{network}/fees", s.handleFees)
	mux.HandleFunc("POST /v1/networks/{network}/transactions", s.handleSend)
	mux.HandleFunc("GET /v1/wallets/balances", s.handleWalletBalances)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return instrument(mux)
}

func instrument(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		mux.ServeHTTP(sw, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(sw.statusCode)).Inc()
	})
}

// writeJSON writes v as JSON with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// statusFor maps the chain error taxonomy onto HTTP. Errors outside the
// taxonomy are internal.
func statusFor(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	var chainErr *chain.Error
	if !errors.As(err, &chainErr) {
		return http.StatusInternalServerError
	}
	switch chainErr.Kind {
	case chain.KindValidation:
		return http.StatusBadRequest
	case chain.KindConfig:
		return http.StatusNotFound
	case chain.KindTransient, chain.KindRemote:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg, Kind: string(chain.KindOf(err))})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Kind: string(chain.KindValidation)})
}

// decodeJSONBody reads and decodes a JSON request body into v.
// Returns false (and writes an error response) if decoding fails.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		badRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func requireAddress(w http.ResponseWriter, r *http.Request) (string, bool) {
	addr := r.URL.Query().Get("address")
	if addr == "" {
		badRequest(w, "address query param required")
		return "", false
	}
	return addr, true
}

// network resolves the {network} path value.
func (s *Server) network(w http.ResponseWriter, r *http.Request) (model.NetworkDescriptor, bool) {
	name := r.PathValue("network")
	desc, ok := s.registry.NetworkByName(name)
	if !ok {
		s.writeError(w, r, chain.ConfigError("resolve network", fmt.Errorf("%w: %q", chain.ErrUnknownNetwork, name)))
		return model.NetworkDescriptor{}, false
	}
	return desc, true
}

// asset finds the configured token with contract on network. An empty
// contract is the native coin.
func (s *Server) asset(desc model.NetworkDescriptor, contract string) (model.AssetDescriptor, error) {
	if contract == "" {
		return desc.NativeAsset(), nil
	}
	for _, a := range s.registry.AssetsForNetwork(desc.ChainID) {
		if equalContract(desc.Family, a.ContractAddress, contract) {
			return a, nil
		}
	}
	return model.AssetDescriptor{}, chain.ValidationError("resolve asset", desc.Name, fmt.Errorf("token %s is not configured", contract))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	desc, ok := s.network(w, r)
	if !ok {
		return
	}
	addr, ok := requireAddress(w, r)
	if !ok {
		return
	}
	balance, err := s.wallets.GetBalance(r.Context(), desc.Name, addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAssetResponse(model.Asset{AssetDescriptor: desc.NativeAsset(), Balance: balance}))
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	desc, ok := s.network(w, r)
	if !ok {
		return
	}
	addr, ok := requireAddress(w, r)
	if !ok {
		return
	}
	assets, err := s.wallets.GetAssets(r.Context(), desc.Name, addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAssetsResponse(assets))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	desc, ok := s.network(w, r)
	if !ok {
		return
	}
	addr, ok := requireAddress(w, r)
	if !ok {
		return
	}
	records, err := s.wallets.GetTransactionHistory(r.Context(), desc.Name, addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := make([]recordResponse, len(records))
	for i, rec := range records {
		resp[i] = newRecordResponse(rec)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFees(w http.ResponseWriter, r *http.Request) {
	desc, ok := s.network(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	req := model.FeeRequest{From: q.Get("from"), To: q.Get("to")}

	asset, err := s.asset(desc, q.Get("token"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !asset.IsNative() {
		req.Asset = &asset
	}
	if raw := q.Get("amount"); raw != "" {
		amount, err := model.ParseUnits(raw, asset.Decimals)
		if err != nil {
			badRequest(w, "invalid amount: "+err.Error())
			return
		}
		req.Amount = amount
	}

	quotes, err := s.wallets.GetFeeOptions(r.Context(), desc.Name, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := make([]quoteResponse, len(quotes))
	for i, fq := range quotes {
		resp[i] = newQuoteResponse(fq)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	desc, ok := s.network(w, r)
	if !ok {
		return
	}
	var req sendRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.To == "" || req.Amount == "" {
		badRequest(w, "to and amount are required")
		return
	}

	asset, err := s.asset(desc, req.Token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	params, err := req.params(desc, asset)
	if err != nil {
		s.writeError(w, r, chain.ValidationError("decode transaction", desc.Name, err))
		return
	}

	txID, err := s.wallets.SendTransaction(r.Context(), desc.Name, params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, sendResponse{Network: desc.Name, TxID: txID})
}

func (s *Server) handleWalletBalances(w http.ResponseWriter, r *http.Request) {
	results, err := s.wallets.GetWalletBalances(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := make([]networkBalancesResponse, len(results))
	for i, nb := range results {
		resp[i] = newNetworkBalancesResponse(nb)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.clients != nil {
		for _, ds := range s.clients.Clients() {
			resp.Networks = append(resp.Networks, newClientHealth(ds))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
