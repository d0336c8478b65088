package tron

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/chain/evm"
	"github.com/emperorhan/multichain-wallet/internal/chain/failover"
	"github.com/emperorhan/multichain-wallet/internal/chain/tron/api"
	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

const (
	selectorTransfer = "transfer(address,uint256)"

	// Energy of a TRC-20 transfer when it cannot be simulated.
	defaultTokenEnergy = 65_000
	// Serialized sizes used when the node refuses to build the transaction.
	fallbackNativeTxBytes = 268
	fallbackTokenTxBytes  = 345
	// Signature plus protobuf framing added to raw_data on broadcast.
	signedTxOverheadBytes = 65 + 4

	blockInterval = 3 * time.Second
)

// chainParams are the fee-relevant chain parameters, all in sun.
type chainParams struct {
	EnergyFee        int64
	BandwidthFee     int64
	CreateAccountFee int64
	// system-contract part of activating a new account
	NewAccountFee int64
}

var defaultChainParams = chainParams{
	EnergyFee:        420,
	BandwidthFee:     1000,
	CreateAccountFee: 100_000,
	NewAccountFee:    1_000_000,
}

func (p chainParams) activationFee() int64 {
	return p.CreateAccountFee + p.NewAccountFee
}

// GetFeeOptions returns a single tier: energy for token transfers, bandwidth
// for the serialized transaction and, when the destination does not exist
// yet, the account activation fee.
func (c *Client) GetFeeOptions(ctx context.Context, req model.FeeRequest) ([]model.FeeQuote, error) {
	for _, address := range []string{req.From, req.To} {
		if address == "" {
			continue
		}
		if err := c.validate(address); err != nil {
			return nil, err
		}
	}
	var contract string
	if req.Asset != nil && !req.Asset.IsNative() {
		contract = req.Asset.ContractAddress
		if err := c.validate(contract); err != nil {
			return nil, err
		}
	}
	amount := req.Amount
	if amount == nil || amount.Sign() <= 0 {
		amount = big.NewInt(1)
	}

	params, err := c.chainParams(ctx)
	if err != nil {
		return nil, fmt.Errorf("get fee options: %w", err)
	}

	var energy int64
	if contract != "" {
		energy = c.transferEnergy(ctx, req.From, req.To, contract, amount)
	}
	bandwidth := c.bandwidth(ctx, req.From, req.To, contract, amount)

	detail := &model.TronFeeDetail{
		Energy:        energy,
		EnergyFee:     big.NewInt(energy * params.EnergyFee),
		Bandwidth:     bandwidth,
		BandwidthFee:  big.NewInt(bandwidth * params.BandwidthFee),
		ActivationFee: big.NewInt(0),
	}
	if req.To != "" && !c.accountExists(ctx, req.To) {
		detail.ActivationFee.SetInt64(params.activationFee())
	}

	total := new(big.Int).Add(detail.EnergyFee, detail.BandwidthFee)
	total.Add(total, detail.ActivationFee)

	return []model.FeeQuote{{
		Level:         model.FeeLevelNormal,
		Fee:           total,
		GasLimit:      uint64(detail.EnergyFee.Int64()),
		Tron:          detail,
		EstimatedTime: blockInterval,
	}}, nil
}

// chainParams returns the cached parameters or loads them from a node.
// Parameters missing from the answer keep their defaults.
func (c *Client) chainParams(ctx context.Context) (chainParams, error) {
	if p, ok := c.params.Get(c.network.Name); ok {
		return p, nil
	}
	list, err := failover.Call(ctx, c.node, "getchainparameters", func(ctx context.Context, cl api.API) ([]api.ChainParameter, error) {
		return cl.ChainParameters(ctx)
	})
	if err != nil {
		return chainParams{}, err
	}

	p := defaultChainParams
	for _, kv := range list {
		if kv.Value <= 0 {
			continue
		}
		switch kv.Key {
		case "getEnergyFee":
			p.EnergyFee = kv.Value
		case "getTransactionFee":
			p.BandwidthFee = kv.Value
		case "getCreateAccountFee":
			p.CreateAccountFee = kv.Value
		case "getCreateNewAccountFeeInSystemContract":
			p.NewAccountFee = kv.Value
		}
	}
	c.params.Put(c.network.Name, p)
	return p, nil
}

// transferEnergy simulates transfer(to, amount) from the sender. Without a
// sender or when the simulation fails the default energy is used.
func (c *Client) transferEnergy(ctx context.Context, from, to, contract string, amount *big.Int) int64 {
	if from == "" || to == "" {
		return defaultTokenEnergy
	}
	parameter, err := transferParameter(to, amount)
	if err != nil {
		return defaultTokenEnergy
	}
	res, err := failover.Call(ctx, c.node, "triggerconstantcontract", func(ctx context.Context, cl api.API) (*api.ConstantResult, error) {
		return cl.TriggerConstantContract(ctx, api.ContractCall{
			OwnerAddress:     from,
			ContractAddress:  contract,
			FunctionSelector: selectorTransfer,
			Parameter:        parameter,
		})
	})
	if err != nil || res.EnergyUsed <= 0 {
		c.logger.Warn("energy simulation failed, using default", "contract", contract, "error", err)
		return defaultTokenEnergy
	}
	return res.EnergyUsed
}

// bandwidth is the byte size of the signed transaction, measured on an
// unsigned one built by the node.
func (c *Client) bandwidth(ctx context.Context, from, to, contract string, amount *big.Int) int64 {
	fallback := int64(fallbackNativeTxBytes)
	if contract != "" {
		fallback = fallbackTokenTxBytes
	}
	if from == "" || to == "" {
		return fallback
	}

	tx, err := c.buildUnsigned(ctx, from, to, contract, amount, c.cfg.DefaultFeeLimit)
	if err != nil {
		c.logger.Debug("node refused to build transaction, using fallback size", "error", err)
		return fallback
	}
	return int64(len(tx.RawDataHex)/2) + signedTxOverheadBytes
}

// accountExists reports whether address is activated. Lookup failures are
// treated as a missing account so the quote does not understate the cost.
func (c *Client) accountExists(ctx context.Context, address string) bool {
	account, err := failover.Call(ctx, c.node, "getaccount", func(ctx context.Context, cl api.API) (*api.Account, error) {
		return cl.GetAccount(ctx, address)
	})
	if err != nil {
		c.logger.Warn("account lookup failed, quoting activation", "address", address, "error", err)
		return false
	}
	return account.Exists()
}

// buildUnsigned asks a node for the unsigned TRX or TRC-20 transfer.
func (c *Client) buildUnsigned(ctx context.Context, from, to, contract string, amount *big.Int, feeLimit int64) (*api.Transaction, error) {
	if contract == "" {
		if !amount.IsInt64() {
			return nil, chain.ValidationError("build transaction", c.network.Name,
				fmt.Errorf("%w: amount %s out of range", chain.ErrInvalidParams, amount))
		}
		return failover.Call(ctx, c.node, "createtransaction", func(ctx context.Context, cl api.API) (*api.Transaction, error) {
			return cl.CreateTransaction(ctx, api.TransferRequest{OwnerAddress: from, ToAddress: to, Amount: amount.Int64()})
		})
	}

	parameter, err := transferParameter(to, amount)
	if err != nil {
		return nil, chain.ValidationError("build transaction", c.network.Name, fmt.Errorf("%w: %v", chain.ErrInvalidParams, err))
	}
	return failover.Call(ctx, c.node, "triggersmartcontract", func(ctx context.Context, cl api.API) (*api.Transaction, error) {
		return cl.TriggerSmartContract(ctx, api.ContractCall{
			OwnerAddress:     from,
			ContractAddress:  contract,
			FunctionSelector: selectorTransfer,
			Parameter:        parameter,
			FeeLimit:         feeLimit,
		})
	})
}

// transferParameter ABI-encodes the arguments of transfer(to, amount).
func transferParameter(to string, amount *big.Int) (string, error) {
	evmTo, err := evmAddress(to)
	if err != nil {
		return "", err
	}
	calldata, err := evm.EncodeTransfer(evmTo, amount)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(calldata[4:]), nil
}
