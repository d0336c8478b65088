package tron

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/emperorhan/multichain-wallet/internal/chain/failover"
	"github.com/emperorhan/multichain-wallet/internal/chain/tron/api"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

const (
	contractTransfer     = "TransferContract"
	contractTriggerSmart = "TriggerSmartContract"
	contractRetSuccess   = "SUCCESS"
)

// GetTransactionHistory merges TRX transactions and TRC-20 transfers, both
// fetched concurrently. One side failing is logged and the other returned.
func (c *Client) GetTransactionHistory(ctx context.Context, address string) ([]model.TransactionRecord, error) {
	if err := c.validate(address); err != nil {
		return nil, err
	}

	var (
		native, tokens       []model.TransactionRecord
		nativeErr, tokensErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := failover.Call(gctx, c.grid, "transactions", func(ctx context.Context, cl api.API) ([]api.GridTransaction, error) {
			return cl.Transactions(ctx, address)
		})
		if err != nil {
			nativeErr = err
			return nil
		}
		for _, tx := range txs {
			native = append(native, c.normalizeTx(address, tx))
		}
		return nil
	})
	g.Go(func() error {
		transfers, err := failover.Call(gctx, c.grid, "trc20", func(ctx context.Context, cl api.API) ([]api.TRC20Transfer, error) {
			return cl.TRC20Transfers(ctx, address)
		})
		if err != nil {
			tokensErr = err
			return nil
		}
		for _, tr := range transfers {
			tokens = append(tokens, c.normalizeTransfer(address, tr))
		}
		return nil
	})
	_ = g.Wait()

	switch {
	case nativeErr != nil && tokensErr != nil:
		return nil, fmt.Errorf("get transaction history(%s): %w", address, nativeErr)
	case nativeErr != nil:
		c.logger.Warn("trx history unavailable", "address", address, "error", nativeErr)
	case tokensErr != nil:
		c.logger.Warn("trc20 history unavailable", "address", address, "error", tokensErr)
	}

	records := append(native, tokens...)
	if records == nil {
		records = []model.TransactionRecord{}
	}
	model.SortByTimestampDesc(records)
	return records, nil
}

func (c *Client) normalizeTx(address string, tx api.GridTransaction) model.TransactionRecord {
	rec := model.TransactionRecord{
		Hash:        tx.TxID,
		Timestamp:   time.UnixMilli(tx.BlockTimestamp).UTC(),
		BlockNumber: tx.BlockNumber,
		Fee:         big.NewInt(0),
		Status:      model.TxStatusConfirmed,
		Amount:      big.NewInt(0),
		Symbol:      c.network.NativeSymbol,
	}
	if len(tx.Ret) > 0 {
		rec.Fee.SetInt64(tx.Ret[0].Fee)
		if ret := tx.Ret[0].ContractRet; ret != "" && ret != contractRetSuccess {
			rec.Status = model.TxStatusFailed
		}
	}
	if tx.NetFee+tx.EnergyFee > rec.Fee.Int64() {
		rec.Fee.SetInt64(tx.NetFee + tx.EnergyFee)
	}

	if len(tx.RawData.Contract) > 0 {
		contract := tx.RawData.Contract[0]
		value := contract.Parameter.Value
		rec.From = c.base58List(value.OwnerAddress)
		switch contract.Type {
		case contractTransfer:
			rec.To = c.base58List(value.ToAddress)
			rec.Amount.SetInt64(value.Amount)
		case contractTriggerSmart:
			rec.To = c.base58List(value.ContractAddress)
			rec.Amount.SetInt64(value.CallValue)
		}
	}
	rec.Direction = model.DirectionFor(address, rec.From, rec.To)
	return rec
}

func (c *Client) normalizeTransfer(address string, tr api.TRC20Transfer) model.TransactionRecord {
	amount, ok := new(big.Int).SetString(tr.Value, 10)
	if !ok {
		c.logger.Warn("unparseable trc20 value", "tx", tr.TransactionID, "value", tr.Value)
		amount = big.NewInt(0)
	}
	rec := model.TransactionRecord{
		Hash:            tr.TransactionID,
		Timestamp:       time.UnixMilli(tr.BlockTimestamp).UTC(),
		Fee:             big.NewInt(0),
		Status:          model.TxStatusConfirmed,
		From:            []string{tr.From},
		To:              []string{tr.To},
		Amount:          amount,
		ContractAddress: tr.TokenInfo.Address,
		Symbol:          tr.TokenInfo.Symbol,
	}
	rec.Direction = model.DirectionFor(address, rec.From, rec.To)
	return rec
}

// base58List converts a hex address from a transaction body; unknown forms
// are kept verbatim.
func (c *Client) base58List(address string) []string {
	if address == "" {
		return nil
	}
	b58, err := FromHexAddress(address)
	if err != nil {
		return []string{address}
	}
	return []string{b58}
}
