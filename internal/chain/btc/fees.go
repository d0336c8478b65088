package btc

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/emperorhan/multichain-wallet/internal/chain/btc/esplora"
	"github.com/emperorhan/multichain-wallet/internal/chain/btc/rpc"
	"github.com/emperorhan/multichain-wallet/internal/chain/failover"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

// Typical spend: one input, destination plus change.
var typicalTxSize = int64(inputSize + 2*outputSize + txOverheadSize)

var feeTargets = []struct {
	level  model.FeeLevel
	blocks int
	eta    time.Duration
}{
	{model.FeeLevelNormal, 6, time.Hour},
	{model.FeeLevelFast, 3, 30 * time.Minute},
	{model.FeeLevelUrgent, 1, 10 * time.Minute},
}

// satPerKvBToSatPerByte converts bitcoind's BTC/kvB into sat/byte.
var satPerKvBToSatPerByte = decimal.New(100_000_000, 0).Div(decimal.New(1000, 0))

// GetFeeOptions quotes three tiers from the explorers' fee estimates, then
// from bitcoind's estimatesmartfee, and otherwise a single placeholder tier
// at the configured default rate.
func (c *Client) GetFeeOptions(ctx context.Context, req model.FeeRequest) ([]model.FeeQuote, error) {
	for _, address := range []string{req.From, req.To} {
		if address == "" {
			continue
		}
		if err := c.validate(address); err != nil {
			return nil, err
		}
	}

	rates, err := c.explorerRates(ctx)
	if err != nil {
		c.logger.Warn("explorer fee estimates unavailable", "error", err)
		rates, err = c.nodeRates(ctx)
	}
	if err != nil {
		c.logger.Warn("falling back to default fee rate", "rate", c.cfg.DefaultFeeRate, "error", err)
		return []model.FeeQuote{quote(model.FeeLevelNormal, c.cfg.DefaultFeeRate, time.Hour)}, nil
	}

	quotes := make([]model.FeeQuote, len(feeTargets))
	for i, target := range feeTargets {
		quotes[i] = quote(target.level, rates[i], target.eta)
	}
	return quotes, nil
}

func quote(level model.FeeLevel, rate int64, eta time.Duration) model.FeeQuote {
	return model.FeeQuote{
		Level:         level,
		Fee:           big.NewInt(rate * typicalTxSize),
		FeeRate:       rate,
		EstimatedTime: eta,
	}
}

func (c *Client) explorerRates(ctx context.Context) ([]int64, error) {
	estimates, err := failover.Call(ctx, c.explorer, "feeEstimates", func(ctx context.Context, api esplora.API) (esplora.FeeEstimates, error) {
		return api.FeeEstimates(ctx)
	})
	if err != nil {
		return nil, err
	}

	rates := make([]int64, len(feeTargets))
	for i, target := range feeTargets {
		raw, ok := lookupTarget(estimates, target.blocks)
		if !ok {
			return nil, fmt.Errorf("no estimate for %d blocks", target.blocks)
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("fee estimate %q: %w", raw, err)
		}
		rates[i] = ceilRate(d)
	}
	return rates, nil
}

// lookupTarget returns the estimate for blocks, or the nearest slower target
// the explorer reported.
func lookupTarget(estimates esplora.FeeEstimates, blocks int) (string, bool) {
	for b := blocks; b <= 25; b++ {
		if v, ok := estimates[strconv.Itoa(b)]; ok {
			return v.String(), true
		}
	}
	return "", false
}

func (c *Client) nodeRates(ctx context.Context) ([]int64, error) {
	if c.node == nil {
		return nil, fmt.Errorf("no node configured")
	}
	rates := make([]int64, len(feeTargets))
	for i, target := range feeTargets {
		fee, err := failover.Call(ctx, c.node, "estimateSmartFee", func(ctx context.Context, cl rpc.RPCClient) (*rpc.SmartFee, error) {
			return cl.EstimateSmartFee(ctx, target.blocks)
		})
		if err != nil {
			return nil, err
		}
		perKvB, err := decimal.NewFromString(fee.FeeRate.String())
		if err != nil {
			return nil, fmt.Errorf("smart fee %q: %w", fee.FeeRate, err)
		}
		rates[i] = ceilRate(perKvB.Mul(satPerKvBToSatPerByte))
	}
	return rates, nil
}

// ceilRate rounds a fractional sat/byte rate up, never below 1.
func ceilRate(d decimal.Decimal) int64 {
	r := d.Ceil().IntPart()
	if r < 1 {
		return 1
	}
	return r
}
