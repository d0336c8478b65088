package evm

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	selectorBalanceOf = []byte{0x70, 0xa0, 0x82, 0x31} // balanceOf(address)
	selectorTransfer  = []byte{0xa9, 0x05, 0x9c, 0xbb} // transfer(address,uint256)
)

const wordSize = 32

// EncodeBalanceOf builds the calldata of balanceOf(holder).
func EncodeBalanceOf(holder string) ([]byte, error) {
	word, err := addressWord(holder)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, selectorBalanceOf...), word...), nil
}

// EncodeTransfer builds the calldata of transfer(to, amount).
func EncodeTransfer(to string, amount *big.Int) ([]byte, error) {
	toWord, err := addressWord(to)
	if err != nil {
		return nil, err
	}
	amountWord, err := uintWord(amount)
	if err != nil {
		return nil, err
	}
	data := make([]byte, 0, 4+2*wordSize)
	data = append(data, selectorTransfer...)
	data = append(data, toWord...)
	return append(data, amountWord...), nil
}

// DecodeUint256 reads the first return word of a call.
func DecodeUint256(ret []byte) (*big.Int, error) {
	if len(ret) < wordSize {
		return nil, fmt.Errorf("return data too short: %d bytes", len(ret))
	}
	var word [wordSize]byte
	copy(word[:], ret[:wordSize])
	return new(uint256.Int).SetBytes32(word[:]).ToBig(), nil
}

func addressWord(address string) ([]byte, error) {
	raw, err := addressBytes(address)
	if err != nil {
		return nil, err
	}
	word := make([]byte, wordSize)
	copy(word[wordSize-addressLength:], raw)
	return word, nil
}

func uintWord(v *big.Int) ([]byte, error) {
	if v == nil {
		v = new(big.Int)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %s", v)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("amount %s overflows uint256", v)
	}
	word := u.Bytes32()
	return word[:], nil
}
