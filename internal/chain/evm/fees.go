package evm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/chain/evm/rpc"
	"github.com/emperorhan/multichain-wallet/internal/chain/failover"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

var feeTiers = []struct {
	level      model.FeeLevel
	multiplier int64
	eta        time.Duration
}{
	{model.FeeLevelNormal, 1, 3 * time.Minute},
	{model.FeeLevelFast, 2, time.Minute},
	{model.FeeLevelUrgent, 3, 30 * time.Second},
}

// GetFeeOptions prices three tiers on top of eth_gasPrice.
func (c *Client) GetFeeOptions(ctx context.Context, req model.FeeRequest) ([]model.FeeQuote, error) {
	for _, address := range []string{req.From, req.To} {
		if address == "" {
			continue
		}
		if err := ValidateAddress(address); err != nil {
			return nil, chain.InvalidAddress(c.network.Name, address, err)
		}
	}

	base, err := c.gasPrice(ctx)
	if err != nil {
		return nil, err
	}
	gasLimit := c.estimateTransferGas(ctx, req)

	quotes := make([]model.FeeQuote, 0, len(feeTiers))
	for _, tier := range feeTiers {
		price := tierPrice(base, c.cfg.PriorityIncrement, tier.multiplier)
		quotes = append(quotes, model.FeeQuote{
			Level:         tier.level,
			Fee:           new(big.Int).Mul(price, new(big.Int).SetUint64(gasLimit)),
			GasPrice:      price,
			GasLimit:      gasLimit,
			EstimatedTime: tier.eta,
		})
	}
	return quotes, nil
}

func (c *Client) gasPrice(ctx context.Context) (*big.Int, error) {
	price, err := failover.Call(ctx, c.rpc, "gasPrice", func(ctx context.Context, cl rpc.RPCClient) (*big.Int, error) {
		return cl.GasPrice(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}
	return price, nil
}

func tierPrice(base, increment *big.Int, multiplier int64) *big.Int {
	bump := new(big.Int).Mul(increment, big.NewInt(multiplier))
	return bump.Add(bump, base)
}

// estimateTransferGas returns 21000 for native transfers and an estimate of
// transfer(to, amount) for tokens, falling back to a fixed limit when the
// node cannot estimate or no sender is known.
func (c *Client) estimateTransferGas(ctx context.Context, req model.FeeRequest) uint64 {
	if req.Asset == nil || req.Asset.IsNative() {
		return nativeTransferGas
	}
	if req.From == "" {
		return tokenTransferGas
	}
	to := req.To
	if to == "" {
		to = req.From
	}
	data, err := EncodeTransfer(to, req.Amount)
	if err != nil {
		return tokenTransferGas
	}
	gas, err := c.estimateGas(ctx, rpc.CallMsg{From: req.From, To: req.Asset.ContractAddress, Data: hexData(data)})
	if err != nil {
		c.logger.Debug("token gas estimate failed, using fallback", "token", req.Asset.ContractAddress, "error", err)
		return tokenTransferGas
	}
	return gas
}

func (c *Client) estimateGas(ctx context.Context, msg rpc.CallMsg) (uint64, error) {
	return failover.Call(ctx, c.rpc, "estimateGas", func(ctx context.Context, cl rpc.RPCClient) (uint64, error) {
		return cl.EstimateGas(ctx, msg)
	})
}
