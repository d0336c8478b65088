package tron

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/chain/failover"
	"github.com/emperorhan/multichain-wallet/internal/chain/tron/api"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

const codeDuplicate = "DUP_TRANSACTION_ERROR"

// SendTransaction has a node build the unsigned transfer, checks that the
// returned id matches raw_data, signs the id locally and broadcasts.
func (c *Client) SendTransaction(ctx context.Context, params model.TransactionParams, key *btcec.PrivateKey) (string, error) {
	p, ok := params.(model.AccountParams)
	if !ok {
		return "", chain.ValidationError("send transaction", c.network.Name,
			fmt.Errorf("%w: %T on a tron chain", chain.ErrInvalidParams, params))
	}
	if key == nil {
		return "", chain.ValidationError("send transaction", c.network.Name, chain.ErrMissingCredential)
	}
	if err := c.validate(p.To); err != nil {
		return "", err
	}
	if p.Token != "" {
		if err := c.validate(p.Token); err != nil {
			return "", err
		}
	}
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return "", chain.ValidationError("send transaction", c.network.Name,
			fmt.Errorf("%w: amount must be positive", chain.ErrInvalidParams))
	}
	if len(p.Data) > 0 {
		return "", chain.ValidationError("send transaction", c.network.Name,
			fmt.Errorf("%w: arbitrary call data is not supported", chain.ErrInvalidParams))
	}

	feeLimit := c.cfg.DefaultFeeLimit
	if p.GasLimit > 0 {
		feeLimit = int64(p.GasLimit)
	}

	from := AddressFromPublicKey(key.PubKey())
	tx, err := c.buildUnsigned(ctx, from, p.To, p.Token, p.Amount, feeLimit)
	if err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}

	digest, err := verifyTxID(tx)
	if err != nil {
		return "", chain.NewError(chain.KindRemote, "build transaction", c.network.Name, err)
	}
	sig, err := signDigest(digest, key)
	if err != nil {
		return "", err
	}
	tx.Signature = []string{hex.EncodeToString(sig)}

	c.logger.Info("broadcasting transaction", "txid", tx.TxID, "from", from, "to", p.To, "token", p.Token)

	_, err = failover.Call(ctx, c.node, "broadcasttransaction", func(ctx context.Context, cl api.API) (*api.Result, error) {
		return cl.BroadcastTransaction(ctx, tx)
	})
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Code == codeDuplicate {
			c.logger.Info("transaction already known", "txid", tx.TxID)
			return tx.TxID, nil
		}
		return "", fmt.Errorf("broadcast: %w", err)
	}
	return tx.TxID, nil
}

// verifyTxID checks txID == sha256(raw_data) and returns the digest.
func verifyTxID(tx *api.Transaction) ([]byte, error) {
	raw, err := hex.DecodeString(tx.RawDataHex)
	if err != nil || len(raw) == 0 {
		return nil, fmt.Errorf("invalid raw_data_hex")
	}
	sum := sha256.Sum256(raw)
	if got := hex.EncodeToString(sum[:]); got != strings.ToLower(tx.TxID) {
		return nil, fmt.Errorf("txid %s does not match raw data hash %s", tx.TxID, got)
	}
	return sum[:], nil
}

// signDigest returns the 65-byte r||s||v signature, v = 27 + recovery id.
func signDigest(digest []byte, key *btcec.PrivateKey) ([]byte, error) {
	compact, err := ecdsa.SignCompact(key, digest, false)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return append(compact[1:65:65], compact[0]), nil
}
