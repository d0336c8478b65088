package tron

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcutil/base58"

	"github.com/emperorhan/multichain-wallet/internal/chain/evm"
)

// addressPrefix is the version byte of every mainnet and testnet account.
const addressPrefix = 0x41

// AddressFromPublicKey derives the base58check account address: 0x41
// followed by the EVM-style Keccak-256 account hash.
func AddressFromPublicKey(pub *btcec.PublicKey) string {
	uncompressed := pub.SerializeUncompressed()
	return base58.CheckEncode(evm.Keccak256(uncompressed[1:])[12:], addressPrefix)
}

// decodeAddress returns the 20-byte account hash of a base58check address.
func decodeAddress(address string) ([]byte, error) {
	payload, version, err := base58.CheckDecode(address)
	if err != nil {
		return nil, fmt.Errorf("base58: %w", err)
	}
	if version != addressPrefix {
		return nil, fmt.Errorf("version byte 0x%02x", version)
	}
	if len(payload) != 20 {
		return nil, fmt.Errorf("payload length %d", len(payload))
	}
	return payload, nil
}

// ValidateAddress accepts base58check addresses starting with T.
func ValidateAddress(address string) error {
	_, err := decodeAddress(address)
	return err
}

// HexAddress renders address in the node's 41-prefixed hex form.
func HexAddress(address string) (string, error) {
	payload, err := decodeAddress(address)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02x%s", addressPrefix, hex.EncodeToString(payload)), nil
}

// FromHexAddress converts a 41-prefixed hex address to base58. Base58 input
// is returned as is.
func FromHexAddress(address string) (string, error) {
	if strings.HasPrefix(address, "T") {
		return address, ValidateAddress(address)
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(address, "0x"))
	if err != nil {
		return "", fmt.Errorf("hex address: %w", err)
	}
	if len(raw) != 21 || raw[0] != addressPrefix {
		return "", fmt.Errorf("hex address %q: want 21 bytes with 0x41 prefix", address)
	}
	return base58.CheckEncode(raw[1:], addressPrefix), nil
}

// evmAddress maps a Tron account onto the 0x form used in ABI words.
func evmAddress(address string) (string, error) {
	payload, err := decodeAddress(address)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(payload), nil
}
