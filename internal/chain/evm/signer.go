package evm

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// legacyTx is a pre-EIP-2718 transaction.
type legacyTx struct {
	Nonce    uint64
	GasPrice *big.Int
	GasLimit uint64
	To       []byte
	Value    *big.Int
	Data     []byte
}

func (tx legacyTx) fields() [][]byte {
	return [][]byte{
		rlpUint(tx.Nonce),
		rlpBig(tx.GasPrice),
		rlpUint(tx.GasLimit),
		rlpBytes(tx.To),
		rlpBig(tx.Value),
		rlpBytes(tx.Data),
	}
}

// sigHash is the EIP-155 signing hash: the six fields followed by chainID, 0, 0.
func (tx legacyTx) sigHash(chainID *big.Int) []byte {
	fields := append(tx.fields(), rlpBig(chainID), rlpUint(0), rlpUint(0))
	return Keccak256(rlpList(fields...))
}

// signLegacyTx signs tx for chainID and returns the raw encoding together
// with its hash.
func signLegacyTx(tx legacyTx, chainID *big.Int, key *btcec.PrivateKey) ([]byte, []byte, error) {
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, nil, fmt.Errorf("invalid chain id %v", chainID)
	}
	hash := tx.sigHash(chainID)

	// compact layout: [27+recid][R][S], S already normalized to the lower half
	sig, err := ecdsa.SignCompact(key, hash, false)
	if err != nil {
		return nil, nil, fmt.Errorf("sign: %w", err)
	}
	recID := int64(sig[0] - 27)
	r := new(big.Int).SetBytes(sig[1:33])
	s := new(big.Int).SetBytes(sig[33:65])

	v := new(big.Int).Mul(chainID, big.NewInt(2))
	v.Add(v, big.NewInt(35+recID))

	raw := rlpList(append(tx.fields(), rlpBig(v), rlpBig(r), rlpBig(s))...)
	return raw, Keccak256(raw), nil
}
