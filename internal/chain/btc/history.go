package btc

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/emperorhan/multichain-wallet/internal/chain/btc/esplora"
	"github.com/emperorhan/multichain-wallet/internal/chain/failover"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

// GetTransactionHistory returns the explorer's recent transactions for
// address with amounts netted relative to it.
func (c *Client) GetTransactionHistory(ctx context.Context, address string) ([]model.TransactionRecord, error) {
	if err := c.validate(address); err != nil {
		return nil, err
	}
	txs, err := failover.Call(ctx, c.explorer, "txs", func(ctx context.Context, api esplora.API) ([]esplora.Transaction, error) {
		return api.Transactions(ctx, address)
	})
	if err != nil {
		return nil, fmt.Errorf("get transaction history(%s): %w", address, err)
	}

	records := make([]model.TransactionRecord, 0, len(txs))
	for _, tx := range txs {
		records = append(records, c.normalizeTx(address, tx))
	}
	model.SortByTimestampDesc(records)
	return records, nil
}

func (c *Client) normalizeTx(address string, tx esplora.Transaction) model.TransactionRecord {
	var sent, received int64
	from := make([]string, 0, len(tx.Vin))
	to := make([]string, 0, len(tx.Vout))
	seenFrom := map[string]bool{}
	allToSelf := len(tx.Vout) > 0

	for _, in := range tx.Vin {
		if in.Prevout == nil {
			continue
		}
		addr := in.Prevout.ScriptPubKeyAddress
		if addr == address {
			sent += in.Prevout.Value
		}
		if addr != "" && !seenFrom[addr] {
			seenFrom[addr] = true
			from = append(from, addr)
		}
	}
	for _, out := range tx.Vout {
		addr := out.ScriptPubKeyAddress
		if addr == address {
			received += out.Value
		} else {
			allToSelf = false
		}
		if addr != "" {
			to = append(to, addr)
		}
	}

	rec := model.TransactionRecord{
		Hash:        tx.TxID,
		BlockNumber: tx.Status.BlockHeight,
		Fee:         big.NewInt(tx.Fee),
		Status:      model.TxStatusPending,
		From:        from,
		To:          to,
		Symbol:      c.network.NativeSymbol,
	}
	if tx.Status.Confirmed {
		rec.Status = model.TxStatusConfirmed
		rec.Timestamp = time.Unix(tx.Status.BlockTime, 0).UTC()
	}

	switch {
	case sent == 0:
		rec.Direction = model.DirectionIncoming
		rec.Amount = big.NewInt(received)
	case allToSelf:
		rec.Direction = model.DirectionSelf
		rec.Amount = big.NewInt(received)
	default:
		rec.Direction = model.DirectionOutgoing
		// value that left the address, net of change and fee
		rec.Amount = big.NewInt(max(sent-received-tx.Fee, 0))
	}
	return rec
}
