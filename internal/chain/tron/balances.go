package tron

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/chain/evm"
	"github.com/emperorhan/multichain-wallet/internal/chain/failover"
	"github.com/emperorhan/multichain-wallet/internal/chain/tron/api"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

const selectorBalanceOf = "balanceOf(address)"

// GetAssetBalances returns TRX plus every configured TRC-20 token. Token
// balances are read with a constant balanceOf call.
func (c *Client) GetAssetBalances(ctx context.Context, address string) ([]model.Asset, error) {
	native, err := c.GetBalance(ctx, address)
	if err != nil {
		return nil, err
	}

	assets := make([]model.Asset, 0, 1+len(c.assets))
	assets = append(assets, model.Asset{AssetDescriptor: c.network.NativeAsset(), Balance: native})
	for _, token := range c.assets {
		balance, err := c.tokenBalance(ctx, address, token.ContractAddress)
		if err != nil {
			return nil, fmt.Errorf("token balance(%s, %s): %w", address, token.Symbol, err)
		}
		assets = append(assets, model.Asset{AssetDescriptor: token, Balance: balance})
	}
	return assets, nil
}

func (c *Client) tokenBalance(ctx context.Context, holder, contract string) (*big.Int, error) {
	evmHolder, err := evmAddress(holder)
	if err != nil {
		return nil, chain.InvalidAddress(c.network.Name, holder, err)
	}
	calldata, err := evm.EncodeBalanceOf(evmHolder)
	if err != nil {
		return nil, err
	}

	res, err := failover.Call(ctx, c.node, "triggerconstantcontract", func(ctx context.Context, cl api.API) (*api.ConstantResult, error) {
		return cl.TriggerConstantContract(ctx, api.ContractCall{
			OwnerAddress:     holder,
			ContractAddress:  contract,
			FunctionSelector: selectorBalanceOf,
			Parameter:        hex.EncodeToString(calldata[4:]),
		})
	})
	if err != nil {
		return nil, err
	}
	if len(res.ConstantResult) == 0 {
		return nil, chain.NewError(chain.KindRemote, "balanceOf", c.network.Name, fmt.Errorf("empty constant result"))
	}
	ret, err := hex.DecodeString(res.ConstantResult[0])
	if err != nil {
		return nil, chain.NewError(chain.KindRemote, "balanceOf", c.network.Name, fmt.Errorf("constant result: %w", err))
	}
	balance, err := evm.DecodeUint256(ret)
	if err != nil {
		return nil, chain.NewError(chain.KindRemote, "balanceOf", c.network.Name, err)
	}
	return balance, nil
}

// GetBalancesForMultipleAddresses fans out one asset lookup per address.
func (c *Client) GetBalancesForMultipleAddresses(ctx context.Context, addresses []string) (map[string][]model.Asset, error) {
	for _, address := range addresses {
		if err := c.validate(address); err != nil {
			return nil, err
		}
	}
	return chain.FanOutBalances(ctx, addresses, c.cfg.FanOutConcurrency, c.GetAssetBalances)
}
