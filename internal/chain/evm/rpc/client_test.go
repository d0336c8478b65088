package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(handler func(*http.Request) (*http.Response, error)) *Client {
	client := NewClient("http://rpc.local", "sepolia", 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	client.httpClient = &http.Client{
		Transport: roundTripFunc(handler),
	}
	return client
}

func jsonHTTPResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

// rpcResult answers a single request with result.
func rpcResult(t *testing.T, result string) func(*http.Request) (*http.Response, error) {
	return func(r *http.Request) (*http.Response, error) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := Response{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(result)}
		raw, err := json.Marshal(resp)
		require.NoError(t, err)
		return jsonHTTPResponse(http.StatusOK, string(raw)), nil
	}
}

func TestCall_Success(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, "2.0", req.JSONRPC)
		assert.Equal(t, "eth_testMethod", req.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, err := json.Marshal(Response{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`"0x2a"`)})
		require.NoError(t, err)
		return jsonHTTPResponse(http.StatusOK, string(raw)), nil
	})

	result, err := client.call(context.Background(), "eth_testMethod", []interface{}{"p1"})
	require.NoError(t, err)

	var value string
	require.NoError(t, json.Unmarshal(result, &value))
	assert.Equal(t, "0x2a", value)
}

func TestCall_RPCErrorOnHTTP200(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonHTTPResponse(http.StatusOK, `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"nonce too low"}}`), nil
	})

	_, err := client.call(context.Background(), "eth_sendRawTransaction", nil)
	require.Error(t, err)

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32000, rpcErr.RPCCode())
	assert.Contains(t, err.Error(), "nonce too low")
}

func TestCall_HTTPStatusError(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonHTTPResponse(http.StatusBadGateway, "bad gateway"), nil
	})

	_, err := client.call(context.Background(), "eth_blockNumber", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http status 502")
}

func TestCall_EmptyParamsSerializeAsArray(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"params":[]`)
		return jsonHTTPResponse(http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":"0x1"}`), nil
	})

	_, err := client.GasPrice(context.Background())
	require.NoError(t, err)
}

func TestCallBatch_OrdersResponsesByID(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		var reqs []Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqs))
		require.Len(t, reqs, 2)

		// reversed on purpose
		resps := []Response{
			{JSONRPC: "2.0", ID: reqs[1].ID, Result: json.RawMessage(`"0x2"`)},
			{JSONRPC: "2.0", ID: reqs[0].ID, Result: json.RawMessage(`"0x1"`)},
		}
		raw, err := json.Marshal(resps)
		require.NoError(t, err)
		return jsonHTTPResponse(http.StatusOK, string(raw)), nil
	})

	results, err := client.Batch(context.Background(), []BatchItem{
		BalanceItem("0x1111111111111111111111111111111111111111"),
		BalanceItem("0x2222222222222222222222222222222222222222"),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	first, err := ParseResultQuantity(results[0].Result)
	require.NoError(t, err)
	second, err := ParseResultQuantity(results[1].Result)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Int64())
	assert.Equal(t, int64(2), second.Int64())
}

func TestCallBatch_PerItemErrorIsReported(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		var reqs []Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqs))
		resps := []Response{
			{JSONRPC: "2.0", ID: reqs[0].ID, Result: json.RawMessage(`"0x5"`)},
			{JSONRPC: "2.0", ID: reqs[1].ID, Error: &RPCError{Code: 3, Message: "execution reverted"}},
		}
		raw, err := json.Marshal(resps)
		require.NoError(t, err)
		return jsonHTTPResponse(http.StatusOK, string(raw)), nil
	})

	results, err := client.Batch(context.Background(), []BatchItem{
		BalanceItem("0x1111111111111111111111111111111111111111"),
		CallItem(CallMsg{To: "0x3333333333333333333333333333333333333333", Data: "0x70a08231"}),
	})
	require.NoError(t, err)
	assert.Nil(t, results[0].Error)
	require.NotNil(t, results[1].Error)
	assert.Equal(t, 3, results[1].Error.Code)
}

func TestCallBatch_MissingResponse(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonHTTPResponse(http.StatusOK, `[{"jsonrpc":"2.0","id":999,"result":"0x1"}]`), nil
	})

	_, err := client.Batch(context.Background(), []BatchItem{BalanceItem("0x1111111111111111111111111111111111111111")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing batch response")
}

func TestCallBatch_SingleErrorObject(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonHTTPResponse(http.StatusOK, `{"jsonrpc":"2.0","id":null,"error":{"code":-32005,"message":"batch limit exceeded"}}`), nil
	})

	_, err := client.Batch(context.Background(), []BatchItem{BalanceItem("0x1111111111111111111111111111111111111111")})
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32005, rpcErr.Code)
}

func TestBatch_Empty(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	results, err := client.Batch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
