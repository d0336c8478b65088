package evm

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/chain/failover"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

// GetTransactionHistory merges native and token transfers fetched
// concurrently from the explorer. One side failing still yields the other;
// both failing is an error.
func (c *Client) GetTransactionHistory(ctx context.Context, address string) ([]model.TransactionRecord, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, chain.InvalidAddress(c.network.Name, address, err)
	}
	if c.explorer == nil {
		return nil, chain.ConfigError("get transaction history", fmt.Errorf("network %s: no explorer configured", c.network.Name))
	}

	var (
		nativeRows, tokenRows []ExplorerTx
		nativeErr, tokenErr   error
	)
	var g errgroup.Group
	g.Go(func() error {
		nativeRows, nativeErr = failover.Call(ctx, c.explorer, "txlist", func(ctx context.Context, e *Explorer) ([]ExplorerTx, error) {
			return e.NativeTransfers(ctx, address)
		})
		return nil
	})
	g.Go(func() error {
		tokenRows, tokenErr = failover.Call(ctx, c.explorer, "tokentx", func(ctx context.Context, e *Explorer) ([]ExplorerTx, error) {
			return e.TokenTransfers(ctx, address)
		})
		return nil
	})
	_ = g.Wait()

	if nativeErr != nil && tokenErr != nil {
		return nil, fmt.Errorf("get transaction history(%s): %w", address, nativeErr)
	}
	if nativeErr != nil {
		c.logger.Warn("native history unavailable, returning token transfers only", "address", address, "error", nativeErr)
	}
	if tokenErr != nil {
		c.logger.Warn("token history unavailable, returning native transfers only", "address", address, "error", tokenErr)
	}

	records := make([]model.TransactionRecord, 0, len(nativeRows)+len(tokenRows))
	for _, row := range nativeRows {
		rec, err := c.normalizeRow(address, row, false)
		if err != nil {
			c.logger.Debug("skipping malformed txlist row", "hash", row.Hash, "error", err)
			continue
		}
		records = append(records, rec)
	}
	for _, row := range tokenRows {
		rec, err := c.normalizeRow(address, row, true)
		if err != nil {
			c.logger.Debug("skipping malformed tokentx row", "hash", row.Hash, "error", err)
			continue
		}
		records = append(records, rec)
	}

	model.SortByTimestampDesc(records)
	return records, nil
}

func (c *Client) normalizeRow(address string, row ExplorerTx, token bool) (model.TransactionRecord, error) {
	ts, err := strconv.ParseInt(row.TimeStamp, 10, 64)
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("parse timestamp %q: %w", row.TimeStamp, err)
	}
	block, err := strconv.ParseInt(row.BlockNumber, 10, 64)
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("parse block number %q: %w", row.BlockNumber, err)
	}
	amount, ok := new(big.Int).SetString(row.Value, 10)
	if !ok {
		return model.TransactionRecord{}, fmt.Errorf("parse value %q", row.Value)
	}

	from := []string{row.From}
	to := []string{row.To}
	rec := model.TransactionRecord{
		Hash:        row.Hash,
		Timestamp:   time.Unix(ts, 0).UTC(),
		BlockNumber: block,
		Fee:         explorerFee(row),
		Status:      explorerStatus(row),
		From:        from,
		To:          to,
		Amount:      amount,
		Symbol:      c.network.NativeSymbol,
		Direction:   model.DirectionFor(address, from, to),
	}
	if token {
		rec.ContractAddress = strings.ToLower(row.ContractAddress)
		rec.Symbol = row.TokenSymbol
	}
	return rec, nil
}

func explorerFee(row ExplorerTx) *big.Int {
	used, ok1 := new(big.Int).SetString(row.GasUsed, 10)
	price, ok2 := new(big.Int).SetString(row.GasPrice, 10)
	if !ok1 || !ok2 {
		return new(big.Int)
	}
	return used.Mul(used, price)
}

func explorerStatus(row ExplorerTx) model.TxStatus {
	if row.IsError == "1" || row.TxReceiptStatus == "0" {
		return model.TxStatusFailed
	}
	if row.Confirmations == "0" {
		return model.TxStatusPending
	}
	return model.TxStatusConfirmed
}
