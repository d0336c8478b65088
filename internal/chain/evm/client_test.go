package evm

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/chain/evm/rpc"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

// ---------------------------------------------------------------------------
// fake node
// ---------------------------------------------------------------------------

type rpcHandler func(params []json.RawMessage) (interface{}, *rpc.RPCError)

type wireRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      int               `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type fakeNode struct {
	mu       sync.Mutex
	handlers map[string]rpcHandler
	// rejectBatch fails the whole HTTP request when it returns true
	rejectBatch func(reqs []wireRequest) bool
	calls       map[string]int
}

func newFakeNode(handlers map[string]rpcHandler) *fakeNode {
	return &fakeNode{handlers: handlers, calls: map[string]int{}}
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	trimmed := strings.TrimSpace(string(body))

	var reqs []wireRequest
	batch := strings.HasPrefix(trimmed, "[")
	if batch {
		if err := json.Unmarshal(body, &reqs); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		var req wireRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		reqs = []wireRequest{req}
	}

	if batch && n.rejectBatch != nil && n.rejectBatch(reqs) {
		http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
		return
	}

	resps := make([]map[string]interface{}, 0, len(reqs))
	for _, req := range reqs {
		n.mu.Lock()
		n.calls[req.Method]++
		handler, ok := n.handlers[req.Method]
		n.mu.Unlock()

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if !ok {
			resp["error"] = &rpc.RPCError{Code: -32601, Message: "method not found"}
		} else if result, rpcErr := handler(req.Params); rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		resps = append(resps, resp)
	}

	w.Header().Set("Content-Type", "application/json")
	if batch {
		_ = json.NewEncoder(w).Encode(resps)
		return
	}
	_ = json.NewEncoder(w).Encode(resps[0])
}

func (n *fakeNode) callCount(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func quantity(v *big.Int) string {
	return "0x" + v.Text(16)
}

func word(v int64) string {
	return fmt.Sprintf("0x%064x", v)
}

func callParams(t *testing.T, params []json.RawMessage) rpc.CallMsg {
	t.Helper()
	var msg rpc.CallMsg
	require.NoError(t, json.Unmarshal(params[0], &msg))
	return msg
}

func stringParam(t *testing.T, params []json.RawMessage, i int) string {
	t.Helper()
	var s string
	require.NoError(t, json.Unmarshal(params[i], &s))
	return s
}

const (
	addrA  = "0x1111111111111111111111111111111111111111"
	addrB  = "0x2222222222222222222222222222222222222222"
	tokenX = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	tokenY = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func sepolia(rpcURLs ...string) model.NetworkDescriptor {
	return model.NetworkDescriptor{
		Name:           "sepolia",
		Family:         model.FamilyEVM,
		ChainID:        11155111,
		RPCURLs:        rpcURLs,
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
		Testnet:        true,
	}
}

func testTokens() []model.AssetDescriptor {
	return []model.AssetDescriptor{
		{Symbol: "ETH", Decimals: 18}, // native entries in the token list are ignored
		{Symbol: "XT", Name: "X Token", Decimals: 6, ContractAddress: tokenX},
		{Symbol: "YT", Name: "Y Token", Decimals: 18, ContractAddress: tokenY},
	}
}

func chainIDHandler(id int64) rpcHandler {
	return func([]json.RawMessage) (interface{}, *rpc.RPCError) {
		return quantity(big.NewInt(id)), nil
	}
}

func newTestClient(t *testing.T, network model.NetworkDescriptor, assets []model.AssetDescriptor, cfg Config) *Client {
	t.Helper()
	c, err := NewClient(network, assets, cfg, newTestLogger())
	require.NoError(t, err)
	return c
}

// ---------------------------------------------------------------------------
// construction and balance
// ---------------------------------------------------------------------------

func TestNewClient_NoEndpoints(t *testing.T) {
	_, err := NewClient(sepolia(), nil, Config{}, newTestLogger())
	require.Error(t, err)
	assert.Equal(t, chain.KindConfig, chain.KindOf(err))
}

func TestGetBalance_FailsOverAfterTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	healthy := httptest.NewServer(newFakeNode(map[string]rpcHandler{
		"eth_getBalance": func(params []json.RawMessage) (interface{}, *rpc.RPCError) {
			return "0xde0b6b3a7640000", nil
		},
	}))
	defer healthy.Close()

	c := newTestClient(t, sepolia(slow.URL, healthy.URL), nil, Config{RequestTimeout: 100 * time.Millisecond})

	balance, err := c.GetBalance(context.Background(), addrA)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", balance.String())
	assert.Equal(t, 1, c.rpc.Index())
}

func TestGetBalance_InvalidAddress(t *testing.T) {
	c := newTestClient(t, sepolia("http://127.0.0.1:1"), nil, Config{})
	_, err := c.GetBalance(context.Background(), "not-an-address")
	require.Error(t, err)
	assert.ErrorIs(t, err, chain.ErrInvalidAddress)
	assert.Equal(t, chain.KindValidation, chain.KindOf(err))
}

// ---------------------------------------------------------------------------
// batch balances
// ---------------------------------------------------------------------------

func balanceNode(t *testing.T) *fakeNode {
	native := map[string]int64{addrA: 100, addrB: 200}
	tokens := map[string]int64{tokenX: 7, tokenY: 9}
	return newFakeNode(map[string]rpcHandler{
		"eth_getBalance": func(params []json.RawMessage) (interface{}, *rpc.RPCError) {
			return quantity(big.NewInt(native[stringParam(t, params, 0)])), nil
		},
		"eth_call": func(params []json.RawMessage) (interface{}, *rpc.RPCError) {
			msg := callParams(t, params)
			return word(tokens[msg.To]), nil
		},
	})
}

func TestGetBalancesForMultipleAddresses_AllChunksSucceed(t *testing.T) {
	node := balanceNode(t)
	srv := httptest.NewServer(node)
	defer srv.Close()

	c := newTestClient(t, sepolia(srv.URL), testTokens(), Config{})

	got, err := c.GetBalancesForMultipleAddresses(context.Background(), []string{addrA, addrB})
	require.NoError(t, err)
	require.Len(t, got, 2)

	for _, addr := range []string{addrA, addrB} {
		assets := got[addr]
		require.Len(t, assets, 3)
		assert.Equal(t, "ETH", assets[0].Symbol)
		assert.Equal(t, "XT", assets[1].Symbol)
		assert.Equal(t, "YT", assets[2].Symbol)
		assert.Equal(t, int64(7), assets[1].Balance.Int64())
		assert.Equal(t, int64(9), assets[2].Balance.Int64())
	}
	assert.Equal(t, int64(100), got[addrA][0].Balance.Int64())
	assert.Equal(t, int64(200), got[addrB][0].Balance.Int64())
}

func TestGetBalancesForMultipleAddresses_FailedChunkIsOmitted(t *testing.T) {
	node := balanceNode(t)
	// chunks of 2 over [A.eth A.x | A.y B.eth | B.x B.y]; reject the middle one
	node.rejectBatch = func(reqs []wireRequest) bool {
		for _, r := range reqs {
			if r.Method == "eth_getBalance" && strings.Contains(string(r.Params[0]), addrB) {
				return true
			}
		}
		return false
	}
	srv := httptest.NewServer(node)
	defer srv.Close()

	c := newTestClient(t, sepolia(srv.URL), testTokens(), Config{BatchChunkSize: 2})

	got, err := c.GetBalancesForMultipleAddresses(context.Background(), []string{addrA, addrB})
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Len(t, got[addrA], 2)
	assert.Equal(t, "ETH", got[addrA][0].Symbol)
	assert.Equal(t, "XT", got[addrA][1].Symbol)

	require.Len(t, got[addrB], 2)
	assert.Equal(t, "XT", got[addrB][0].Symbol)
	assert.Equal(t, "YT", got[addrB][1].Symbol)
}

func TestGetBalancesForMultipleAddresses_AddressWithNoSucceededChunkIsAbsent(t *testing.T) {
	node := balanceNode(t)
	// chunks of 3 line up with addresses; reject everything touching B
	node.rejectBatch = func(reqs []wireRequest) bool {
		for _, r := range reqs {
			if strings.Contains(string(r.Params[0]), strings.TrimPrefix(addrB, "0x")) {
				return true
			}
		}
		return false
	}
	srv := httptest.NewServer(node)
	defer srv.Close()

	c := newTestClient(t, sepolia(srv.URL), testTokens(), Config{})

	got, err := c.GetBalancesForMultipleAddresses(context.Background(), []string{addrA, addrB})
	require.NoError(t, err)
	assert.Len(t, got[addrA], 3)
	_, present := got[addrB]
	assert.False(t, present)
}

func TestGetBalancesForMultipleAddresses_AllChunksFail(t *testing.T) {
	node := balanceNode(t)
	node.rejectBatch = func([]wireRequest) bool { return true }
	srv := httptest.NewServer(node)
	defer srv.Close()

	c := newTestClient(t, sepolia(srv.URL), testTokens(), Config{})

	_, err := c.GetBalancesForMultipleAddresses(context.Background(), []string{addrA, addrB})
	require.Error(t, err)
	assert.ErrorIs(t, err, chain.ErrEndpointsExhausted)
}

func TestGetBalancesForMultipleAddresses_FailedSubRequestSkipped(t *testing.T) {
	node := balanceNode(t)
	node.handlers["eth_call"] = func(params []json.RawMessage) (interface{}, *rpc.RPCError) {
		if callParams(t, params).To == tokenY {
			return nil, &rpc.RPCError{Code: 3, Message: "execution reverted"}
		}
		return word(5), nil
	}
	srv := httptest.NewServer(node)
	defer srv.Close()

	c := newTestClient(t, sepolia(srv.URL), testTokens(), Config{})

	assets, err := c.GetAssetBalances(context.Background(), addrA)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "ETH", assets[0].Symbol)
	assert.Equal(t, "XT", assets[1].Symbol)
	assert.Equal(t, "0.000005", assets[1].Formatted())
}

func TestGetBalancesForMultipleAddresses_Empty(t *testing.T) {
	c := newTestClient(t, sepolia("http://127.0.0.1:1"), nil, Config{})
	got, err := c.GetBalancesForMultipleAddresses(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestChunkQueries(t *testing.T) {
	queries := make([]balanceQuery, 7)
	chunks := chunkQueries(queries, 3)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 3)
	assert.Len(t, chunks[1], 3)
	assert.Len(t, chunks[2], 1)
}

// ---------------------------------------------------------------------------
// fees
// ---------------------------------------------------------------------------

func TestGetFeeOptions_NativeTiers(t *testing.T) {
	srv := httptest.NewServer(newFakeNode(map[string]rpcHandler{
		"eth_gasPrice": func([]json.RawMessage) (interface{}, *rpc.RPCError) {
			return "0x3b9aca00", nil // 1 gwei
		},
	}))
	defer srv.Close()

	c := newTestClient(t, sepolia(srv.URL), nil, Config{})
	quotes, err := c.GetFeeOptions(context.Background(), model.FeeRequest{})
	require.NoError(t, err)
	require.Len(t, quotes, 3)

	gwei := int64(1_000_000_000)
	for i, level := range []model.FeeLevel{model.FeeLevelNormal, model.FeeLevelFast, model.FeeLevelUrgent} {
		q := quotes[i]
		assert.Equal(t, level, q.Level)
		assert.Equal(t, uint64(21000), q.GasLimit)
		assert.Equal(t, big.NewInt(gwei*int64(i+2)), q.GasPrice)
		assert.Equal(t, big.NewInt(gwei*int64(i+2)*21000), q.Fee)
	}
}

func TestGetFeeOptions_TokenEstimate(t *testing.T) {
	node := newFakeNode(map[string]rpcHandler{
		"eth_gasPrice": func([]json.RawMessage) (interface{}, *rpc.RPCError) { return "0x1", nil },
		"eth_estimateGas": func(params []json.RawMessage) (interface{}, *rpc.RPCError) {
			msg := callParams(t, params)
			assert.Equal(t, tokenX, msg.To)
			assert.True(t, strings.HasPrefix(msg.Data, "0xa9059cbb"))
			return "0xc350", nil // 50000
		},
	})
	srv := httptest.NewServer(node)
	defer srv.Close()

	c := newTestClient(t, sepolia(srv.URL), testTokens(), Config{})
	token := testTokens()[1]
	quotes, err := c.GetFeeOptions(context.Background(), model.FeeRequest{From: addrA, To: addrB, Asset: &token, Amount: big.NewInt(1)})
	require.NoError(t, err)
	assert.Equal(t, uint64(50000), quotes[0].GasLimit)
}

func TestGetFeeOptions_TokenWithoutSenderUsesFallback(t *testing.T) {
	node := newFakeNode(map[string]rpcHandler{
		"eth_gasPrice": func([]json.RawMessage) (interface{}, *rpc.RPCError) { return "0x1", nil },
	})
	srv := httptest.NewServer(node)
	defer srv.Close()

	c := newTestClient(t, sepolia(srv.URL), testTokens(), Config{})
	token := testTokens()[2]
	quotes, err := c.GetFeeOptions(context.Background(), model.FeeRequest{Asset: &token})
	require.NoError(t, err)
	assert.Equal(t, uint64(65000), quotes[0].GasLimit)
	assert.Zero(t, node.callCount("eth_estimateGas"))
}

// ---------------------------------------------------------------------------
// send
// ---------------------------------------------------------------------------

func TestSendTransaction_SignsAndBroadcasts(t *testing.T) {
	var broadcast string
	node := newFakeNode(map[string]rpcHandler{
		"eth_chainId": chainIDHandler(1),
		"eth_getTransactionCount": func(params []json.RawMessage) (interface{}, *rpc.RPCError) {
			assert.Equal(t, "pending", stringParam(t, params, 1))
			return "0x9", nil
		},
		"eth_sendRawTransaction": func(params []json.RawMessage) (interface{}, *rpc.RPCError) {
			broadcast = stringParam(t, params, 0)
			raw, _ := hex.DecodeString(strings.TrimPrefix(broadcast, "0x"))
			return "0x" + hex.EncodeToString(Keccak256(raw)), nil
		},
	})
	srv := httptest.NewServer(node)
	defer srv.Close()

	network := sepolia(srv.URL)
	network.Name, network.ChainID = "mainnet", 1
	c := newTestClient(t, network, nil, Config{})

	key, _ := btcec.PrivKeyFromBytes(mustHex(t, eip155Key))
	hash, err := c.SendTransaction(context.Background(), model.AccountParams{
		To:       "0x3535353535353535353535353535353535353535",
		Amount:   new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil),
		GasPrice: big.NewInt(20_000_000_000),
		GasLimit: 21000,
	}, key)
	require.NoError(t, err)

	assert.Equal(t, "0x"+eip155SignedTx, broadcast)
	assert.Equal(t, "0x"+hex.EncodeToString(Keccak256(mustHex(t, eip155SignedTx))), hash)
	assert.Zero(t, node.callCount("eth_gasPrice"))
}

func TestSendTransaction_NonceFetchedEveryTime(t *testing.T) {
	node := newFakeNode(map[string]rpcHandler{
		"eth_chainId":             chainIDHandler(11155111),
		"eth_getTransactionCount": func([]json.RawMessage) (interface{}, *rpc.RPCError) { return "0x1", nil },
		"eth_gasPrice":            func([]json.RawMessage) (interface{}, *rpc.RPCError) { return "0x3b9aca00", nil },
		"eth_sendRawTransaction": func(params []json.RawMessage) (interface{}, *rpc.RPCError) {
			return "0x01", nil
		},
	})
	srv := httptest.NewServer(node)
	defer srv.Close()

	c := newTestClient(t, sepolia(srv.URL), nil, Config{})
	key, _ := btcec.PrivKeyFromBytes(mustHex(t, eip155Key))

	for i := 0; i < 2; i++ {
		_, err := c.SendTransaction(context.Background(), model.AccountParams{To: addrB, Amount: big.NewInt(1)}, key)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, node.callCount("eth_getTransactionCount"))
	// the endpoint's chain id is checked once per dialed client
	assert.Equal(t, 1, node.callCount("eth_chainId"))
}

func TestSendTransaction_SkipsEndpointOnOtherChain(t *testing.T) {
	mainnet := newFakeNode(map[string]rpcHandler{
		"eth_chainId":             chainIDHandler(1),
		"eth_getTransactionCount": func([]json.RawMessage) (interface{}, *rpc.RPCError) { return "0x0", nil },
		"eth_sendRawTransaction":  func([]json.RawMessage) (interface{}, *rpc.RPCError) { return "0x0bad", nil },
	})
	wrong := httptest.NewServer(mainnet)
	defer wrong.Close()
	node := newFakeNode(map[string]rpcHandler{
		"eth_chainId":             chainIDHandler(11155111),
		"eth_getTransactionCount": func([]json.RawMessage) (interface{}, *rpc.RPCError) { return "0x4", nil },
		"eth_sendRawTransaction":  func([]json.RawMessage) (interface{}, *rpc.RPCError) { return "0x03", nil },
	})
	right := httptest.NewServer(node)
	defer right.Close()

	c := newTestClient(t, sepolia(wrong.URL, right.URL), nil, Config{})
	key, _ := btcec.PrivKeyFromBytes(mustHex(t, eip155Key))

	hash, err := c.SendTransaction(context.Background(), model.AccountParams{
		To: addrB, Amount: big.NewInt(1), GasPrice: big.NewInt(1), GasLimit: 21000,
	}, key)
	require.NoError(t, err)
	assert.Equal(t, "0x03", hash)
	assert.Zero(t, mainnet.callCount("eth_getTransactionCount"))
	assert.Zero(t, mainnet.callCount("eth_sendRawTransaction"))
	assert.Equal(t, 1, node.callCount("eth_sendRawTransaction"))
}

func TestSendTransaction_AllEndpointsOnOtherChain(t *testing.T) {
	node := newFakeNode(map[string]rpcHandler{
		"eth_chainId":            chainIDHandler(1),
		"eth_sendRawTransaction": func([]json.RawMessage) (interface{}, *rpc.RPCError) { return "0x0bad", nil },
	})
	srv := httptest.NewServer(node)
	defer srv.Close()

	c := newTestClient(t, sepolia(srv.URL), nil, Config{})
	key, _ := btcec.PrivKeyFromBytes(mustHex(t, eip155Key))

	_, err := c.SendTransaction(context.Background(), model.AccountParams{
		To: addrB, Amount: big.NewInt(1), GasPrice: big.NewInt(1), GasLimit: 21000,
	}, key)
	require.Error(t, err)
	assert.ErrorIs(t, err, errChainIDMismatch)
	assert.Zero(t, node.callCount("eth_sendRawTransaction"))
}

func TestSendTransaction_TokenBalanceTooLow(t *testing.T) {
	var queried rpc.CallMsg
	node := newFakeNode(map[string]rpcHandler{
		"eth_call": func(params []json.RawMessage) (interface{}, *rpc.RPCError) {
			queried = callParams(t, params)
			return word(4), nil
		},
	})
	srv := httptest.NewServer(node)
	defer srv.Close()

	c := newTestClient(t, sepolia(srv.URL), testTokens(), Config{})
	key, _ := btcec.PrivKeyFromBytes(mustHex(t, eip155Key))

	_, err := c.SendTransaction(context.Background(), model.AccountParams{To: addrB, Amount: big.NewInt(5), Token: tokenX}, key)
	require.Error(t, err)
	assert.ErrorIs(t, err, chain.ErrInsufficientFunds)
	assert.Equal(t, chain.KindValidation, chain.KindOf(err))
	assert.Equal(t, tokenX, queried.To)
	assert.True(t, strings.HasPrefix(queried.Data, "0x70a08231"))
	assert.Zero(t, node.callCount("eth_getTransactionCount"))
	assert.Zero(t, node.callCount("eth_sendRawTransaction"))
}

func TestSendTransaction_TokenTransferTargetsContract(t *testing.T) {
	var estimated rpc.CallMsg
	node := newFakeNode(map[string]rpcHandler{
		"eth_chainId":             chainIDHandler(11155111),
		"eth_call":                func([]json.RawMessage) (interface{}, *rpc.RPCError) { return word(5), nil },
		"eth_getTransactionCount": func([]json.RawMessage) (interface{}, *rpc.RPCError) { return "0x0", nil },
		"eth_gasPrice":            func([]json.RawMessage) (interface{}, *rpc.RPCError) { return "0x1", nil },
		"eth_estimateGas": func(params []json.RawMessage) (interface{}, *rpc.RPCError) {
			estimated = callParams(t, params)
			return "0xea60", nil
		},
		"eth_sendRawTransaction": func([]json.RawMessage) (interface{}, *rpc.RPCError) { return "0x02", nil },
	})
	srv := httptest.NewServer(node)
	defer srv.Close()

	c := newTestClient(t, sepolia(srv.URL), testTokens(), Config{})
	key, _ := btcec.PrivKeyFromBytes(mustHex(t, eip155Key))

	hash, err := c.SendTransaction(context.Background(), model.AccountParams{To: addrB, Amount: big.NewInt(5), Token: tokenX}, key)
	require.NoError(t, err)
	assert.Equal(t, "0x02", hash)
	assert.Equal(t, tokenX, estimated.To)
	assert.Empty(t, estimated.Value)
	assert.True(t, strings.HasPrefix(estimated.Data, "0xa9059cbb"))
}

func TestSendTransaction_AlreadyKnownReturnsLocalHash(t *testing.T) {
	node := newFakeNode(map[string]rpcHandler{
		"eth_chainId":             chainIDHandler(11155111),
		"eth_getTransactionCount": func([]json.RawMessage) (interface{}, *rpc.RPCError) { return "0x0", nil },
		"eth_gasPrice":            func([]json.RawMessage) (interface{}, *rpc.RPCError) { return "0x1", nil },
		"eth_sendRawTransaction": func([]json.RawMessage) (interface{}, *rpc.RPCError) {
			return nil, &rpc.RPCError{Code: -32000, Message: "already known"}
		},
	})
	srv := httptest.NewServer(node)
	defer srv.Close()

	c := newTestClient(t, sepolia(srv.URL), nil, Config{})
	key, _ := btcec.PrivKeyFromBytes(mustHex(t, eip155Key))

	hash, err := c.SendTransaction(context.Background(), model.AccountParams{To: addrB, Amount: big.NewInt(1)}, key)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "0x"))
	assert.Len(t, hash, 66)
}

func TestSendTransaction_RejectsWrongParams(t *testing.T) {
	c := newTestClient(t, sepolia("http://127.0.0.1:1"), nil, Config{})
	key, _ := btcec.PrivKeyFromBytes(mustHex(t, eip155Key))

	_, err := c.SendTransaction(context.Background(), model.UTXOParams{To: addrB, AmountSat: 1}, key)
	assert.ErrorIs(t, err, chain.ErrInvalidParams)
	assert.Equal(t, chain.KindValidation, chain.KindOf(err))

	_, err = c.SendTransaction(context.Background(), model.AccountParams{To: "bad"}, key)
	assert.ErrorIs(t, err, chain.ErrInvalidAddress)

	_, err = c.SendTransaction(context.Background(), model.AccountParams{To: addrB, Amount: big.NewInt(-1)}, key)
	assert.ErrorIs(t, err, chain.ErrInvalidParams)

	_, err = c.SendTransaction(context.Background(), model.AccountParams{To: addrB}, nil)
	assert.ErrorIs(t, err, chain.ErrMissingCredential)
}
