package evm

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/sha3"
)

const addressLength = 20

// Keccak256 is the legacy (pre-NIST) Keccak used by Ethereum.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// AddressFromPublicKey derives the account address: the last 20 bytes of the
// Keccak-256 of the uncompressed point without its 0x04 prefix.
func AddressFromPublicKey(pub *btcec.PublicKey) string {
	uncompressed := pub.SerializeUncompressed()
	return ChecksumAddress("0x" + hex.EncodeToString(Keccak256(uncompressed[1:])[12:]))
}

// ValidateAddress accepts 0x-prefixed 20-byte hex in any case.
func ValidateAddress(address string) error {
	raw, ok := strings.CutPrefix(address, "0x")
	if !ok {
		raw, ok = strings.CutPrefix(address, "0X")
	}
	if !ok {
		return fmt.Errorf("missing 0x prefix")
	}
	if len(raw) != 2*addressLength {
		return fmt.Errorf("expected %d hex characters, got %d", 2*addressLength, len(raw))
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return fmt.Errorf("not hex: %w", err)
	}
	return nil
}

func addressBytes(address string) ([]byte, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}
	return hex.DecodeString(address[2:])
}

// ChecksumAddress renders an address in EIP-55 mixed case.
func ChecksumAddress(address string) string {
	lower := strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(address, "0x"), "0X"))
	hash := Keccak256([]byte(lower))
	out := []byte(lower)
	for i, ch := range out {
		if ch < 'a' || ch > 'f' {
			continue
		}
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = ch - 32
		}
	}
	return "0x" + string(out)
}
