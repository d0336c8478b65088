package evm

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/chain/evm/rpc"
	"github.com/emperorhan/multichain-wallet/internal/chain/failover"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

// SendTransaction signs a legacy EIP-155 transaction locally and broadcasts
// it. The nonce is read fresh from the pending state on every call.
func (c *Client) SendTransaction(ctx context.Context, params model.TransactionParams, key *btcec.PrivateKey) (string, error) {
	p, ok := params.(model.AccountParams)
	if !ok {
		return "", chain.ValidationError("send transaction", c.network.Name,
			fmt.Errorf("%w: %T on an account chain", chain.ErrInvalidParams, params))
	}
	if key == nil {
		return "", chain.ValidationError("send transaction", c.network.Name, chain.ErrMissingCredential)
	}

	tx, err := c.buildTx(p)
	if err != nil {
		return "", err
	}
	from := AddressFromPublicKey(key.PubKey())

	if p.Token != "" {
		if err := c.checkTokenBalance(ctx, from, p.Token, p.Amount); err != nil {
			return "", err
		}
	}

	tx.Nonce, err = failover.Call(ctx, c.rpc, "getTransactionCount", func(ctx context.Context, cl rpc.RPCClient) (uint64, error) {
		if err := c.verifyChainID(ctx, cl); err != nil {
			return 0, err
		}
		return cl.GetTransactionCount(ctx, from, "pending")
	})
	if err != nil {
		return "", fmt.Errorf("nonce(%s): %w", from, err)
	}

	if tx.GasPrice == nil {
		base, err := c.gasPrice(ctx)
		if err != nil {
			return "", err
		}
		tx.GasPrice = tierPrice(base, c.cfg.PriorityIncrement, 1)
	}
	if tx.GasLimit == 0 {
		tx.GasLimit, err = c.sendGasLimit(ctx, from, p, tx)
		if err != nil {
			return "", err
		}
	}

	raw, hash, err := signLegacyTx(tx, c.chainID(), key)
	if err != nil {
		return "", chain.ValidationError("sign transaction", c.network.Name, err)
	}
	localHash := "0x" + hex.EncodeToString(hash)

	txHash, err := failover.Call(ctx, c.rpc, "sendRawTransaction", func(ctx context.Context, cl rpc.RPCClient) (string, error) {
		if err := c.verifyChainID(ctx, cl); err != nil {
			return "", err
		}
		return cl.SendRawTransaction(ctx, raw)
	})
	if err != nil {
		// a previous attempt reached a node before timing out
		if isAlreadyKnown(err) {
			c.logger.Info("transaction already in mempool", "hash", localHash)
			return localHash, nil
		}
		return "", fmt.Errorf("broadcast: %w", err)
	}
	if !strings.EqualFold(txHash, localHash) {
		c.logger.Warn("node returned unexpected tx hash", "node", txHash, "local", localHash)
	}
	c.logger.Info("transaction broadcast", "hash", txHash, "from", from, "nonce", tx.Nonce)
	return txHash, nil
}

// buildTx resolves the destination, value and calldata. Token transfers go to
// the token contract with zero value.
func (c *Client) buildTx(p model.AccountParams) (legacyTx, error) {
	if err := ValidateAddress(p.To); err != nil {
		return legacyTx{}, chain.InvalidAddress(c.network.Name, p.To, err)
	}
	amount := p.Amount
	if amount == nil {
		amount = new(big.Int)
	}
	if amount.Sign() < 0 {
		return legacyTx{}, chain.ValidationError("send transaction", c.network.Name,
			fmt.Errorf("%w: negative amount", chain.ErrInvalidParams))
	}

	tx := legacyTx{GasPrice: p.GasPrice, GasLimit: p.GasLimit}
	if p.Token == "" {
		to, _ := addressBytes(p.To)
		tx.To = to
		tx.Value = amount
		tx.Data = p.Data
		return tx, nil
	}

	if len(p.Data) > 0 {
		return legacyTx{}, chain.ValidationError("send transaction", c.network.Name,
			fmt.Errorf("%w: token transfer with custom data", chain.ErrInvalidParams))
	}
	contract, err := addressBytes(p.Token)
	if err != nil {
		return legacyTx{}, chain.InvalidAddress(c.network.Name, p.Token, err)
	}
	data, err := EncodeTransfer(p.To, amount)
	if err != nil {
		return legacyTx{}, chain.ValidationError("send transaction", c.network.Name,
			fmt.Errorf("%w: %v", chain.ErrInvalidParams, err))
	}
	tx.To = contract
	tx.Value = new(big.Int)
	tx.Data = data
	return tx, nil
}

func (c *Client) sendGasLimit(ctx context.Context, from string, p model.AccountParams, tx legacyTx) (uint64, error) {
	if len(tx.Data) == 0 {
		return nativeTransferGas, nil
	}
	msg := rpc.CallMsg{From: from, To: "0x" + hex.EncodeToString(tx.To), Data: hexData(tx.Data)}
	if tx.Value.Sign() > 0 {
		msg.Value = "0x" + tx.Value.Text(16)
	}
	gas, err := c.estimateGas(ctx, msg)
	if err == nil {
		return gas, nil
	}
	if p.Token != "" && errors.Is(err, chain.ErrEndpointsExhausted) {
		c.logger.Debug("token gas estimate failed, using fallback", "token", p.Token, "error", err)
		return tokenTransferGas, nil
	}
	return 0, fmt.Errorf("estimate gas: %w", err)
}

var errChainIDMismatch = errors.New("endpoint serves a different chain")

// verifyChainID asks a freshly dialed endpoint for eth_chainId once. A
// mismatch fails the attempt so the controller moves to the next endpoint.
func (c *Client) verifyChainID(ctx context.Context, cl rpc.RPCClient) error {
	c.verifyMu.Lock()
	done := c.verified == cl
	c.verifyMu.Unlock()
	if done {
		return nil
	}

	id, err := cl.ChainID(ctx)
	if err != nil {
		return err
	}
	if id != c.network.ChainID {
		c.logger.Error("rpc endpoint chain id mismatch", "reported", id, "configured", c.network.ChainID)
		return fmt.Errorf("%w: reported %d, configured %d", errChainIDMismatch, id, c.network.ChainID)
	}

	c.verifyMu.Lock()
	c.verified = cl
	c.verifyMu.Unlock()
	return nil
}

// checkTokenBalance refuses a token transfer the sender cannot cover; the
// transfer would revert on chain and still burn gas.
func (c *Client) checkTokenBalance(ctx context.Context, from, token string, amount *big.Int) error {
	data, err := EncodeBalanceOf(from)
	if err != nil {
		return chain.InvalidAddress(c.network.Name, from, err)
	}
	ret, err := failover.Call(ctx, c.rpc, "tokenBalance", func(ctx context.Context, cl rpc.RPCClient) ([]byte, error) {
		return cl.Call(ctx, rpc.CallMsg{To: token, Data: hexData(data)})
	})
	if err != nil {
		return fmt.Errorf("token balance(%s): %w", token, err)
	}
	balance, err := DecodeUint256(ret)
	if err != nil {
		return chain.NewError(chain.KindRemote, "token balance", c.network.Name, err)
	}
	if amount != nil && balance.Cmp(amount) < 0 {
		return chain.ValidationError("send transaction", c.network.Name,
			fmt.Errorf("%w: %s holds %s of %s, need %s", chain.ErrInsufficientFunds, from, balance, token, amount))
	}
	return nil
}

func isAlreadyKnown(err error) bool {
	var rpcErr *rpc.RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	msg := strings.ToLower(rpcErr.Message)
	return strings.Contains(msg, "already known") || strings.Contains(msg, "known transaction")
}

func hexData(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
