package btc

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/chain/btc/esplora"
	"github.com/emperorhan/multichain-wallet/internal/chain/btc/rpc"
	"github.com/emperorhan/multichain-wallet/internal/chain/failover"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

// SendTransaction spends the key's P2PKH outputs to params.To. Without an
// explicit fee rate the normal tier is used.
func (c *Client) SendTransaction(ctx context.Context, params model.TransactionParams, key *btcec.PrivateKey) (string, error) {
	p, ok := params.(model.UTXOParams)
	if !ok {
		return "", chain.ValidationError("send transaction", c.network.Name,
			fmt.Errorf("%w: %T on a UTXO chain", chain.ErrInvalidParams, params))
	}
	if key == nil {
		return "", chain.ValidationError("send transaction", c.network.Name, chain.ErrMissingCredential)
	}
	toScript, err := PayToAddrScript(p.To, c.params)
	if err != nil {
		return "", chain.InvalidAddress(c.network.Name, p.To, err)
	}
	if p.AmountSat <= dustThreshold {
		return "", chain.ValidationError("send transaction", c.network.Name,
			fmt.Errorf("%w: amount %d sat is dust", chain.ErrInvalidParams, p.AmountSat))
	}
	if p.FeeRateSatPerByte < 0 {
		return "", chain.ValidationError("send transaction", c.network.Name,
			fmt.Errorf("%w: negative fee rate", chain.ErrInvalidParams))
	}

	feeRate := p.FeeRateSatPerByte
	if feeRate == 0 {
		quotes, err := c.GetFeeOptions(ctx, model.FeeRequest{})
		if err != nil {
			return "", err
		}
		feeRate = quotes[0].FeeRate
	}

	from := P2PKHAddress(key.PubKey(), c.params)
	fromScript := p2pkhScript(Hash160(key.PubKey().SerializeCompressed()))

	utxos, err := failover.Call(ctx, c.explorer, "utxo", func(ctx context.Context, api esplora.API) ([]esplora.UTXO, error) {
		return api.UTXOs(ctx, from)
	})
	if err != nil {
		return "", fmt.Errorf("utxos(%s): %w", from, err)
	}

	sel, err := selectUTXOs(utxos, p.AmountSat, feeRate)
	if err != nil {
		return "", chain.ValidationError("select inputs", c.network.Name, err)
	}
	tx, err := buildSignedTx(sel, toScript, fromScript, key)
	if err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}
	rawHex := hex.EncodeToString(tx.serialize())
	localID := tx.txid()

	c.logger.Info("broadcasting transaction", "txid", localID, "inputs", len(sel.Inputs),
		"amount", sel.Amount, "fee", sel.Fee, "change", sel.Change)

	txid, err := c.broadcast(ctx, rawHex)
	if err != nil {
		return "", err
	}
	if txid != localID {
		c.logger.Warn("explorer returned unexpected txid", "explorer", txid, "local", localID)
	}
	return txid, nil
}

// broadcast pushes through the explorers and, when every explorer is down,
// through the node. A rejection by a reachable explorer is final.
func (c *Client) broadcast(ctx context.Context, rawHex string) (string, error) {
	txid, err := failover.Call(ctx, c.explorer, "broadcast", func(ctx context.Context, api esplora.API) (string, error) {
		return api.Broadcast(ctx, rawHex)
	})
	if err == nil {
		return txid, nil
	}
	if c.node == nil || !errors.Is(err, chain.ErrEndpointsExhausted) {
		return "", fmt.Errorf("broadcast: %w", err)
	}

	c.logger.Warn("explorers unavailable, broadcasting through node", "error", err)
	txid, nodeErr := failover.Call(ctx, c.node, "sendRawTransaction", func(ctx context.Context, cl rpc.RPCClient) (string, error) {
		return cl.SendRawTransaction(ctx, rawHex)
	})
	if nodeErr != nil {
		return "", fmt.Errorf("broadcast: %w", nodeErr)
	}
	return txid, nil
}
