package btc

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcutil/base58"
	"github.com/btcsuite/btcutil/bech32"
	"golang.org/x/crypto/ripemd160"
)

// AddressParams are the encoding constants of one network.
type AddressParams struct {
	PubKeyHashVersion byte
	ScriptHashVersion byte
	Bech32HRP         string
}

var (
	MainNetParams = AddressParams{PubKeyHashVersion: 0x00, ScriptHashVersion: 0x05, Bech32HRP: "bc"}
	TestNetParams = AddressParams{PubKeyHashVersion: 0x6f, ScriptHashVersion: 0xc4, Bech32HRP: "tb"}
)

var errUnknownAddressFormat = errors.New("unrecognized address format")

const (
	opDup         = 0x76
	opHash160     = 0xa9
	opEqual       = 0x87
	opEqualVerify = 0x88
	opCheckSig    = 0xac
	op0           = 0x00
)

// Hash160 is RIPEMD-160 over SHA-256.
func Hash160(b []byte) []byte {
	sum := sha256.Sum256(b)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

// P2PKHAddress encodes the compressed public key hash of pub.
func P2PKHAddress(pub *btcec.PublicKey, params AddressParams) string {
	return base58.CheckEncode(Hash160(pub.SerializeCompressed()), params.PubKeyHashVersion)
}

// PayToAddrScript decodes address into its locking script. Base58 P2PKH and
// P2SH and bech32 witness v0 programs are accepted.
func PayToAddrScript(address string, params AddressParams) ([]byte, error) {
	if strings.HasPrefix(strings.ToLower(address), params.Bech32HRP+"1") {
		return witnessScript(address, params)
	}

	payload, version, err := base58.CheckDecode(address)
	if err != nil {
		return nil, fmt.Errorf("base58: %w", err)
	}
	if len(payload) != 20 {
		return nil, fmt.Errorf("payload length %d", len(payload))
	}
	switch version {
	case params.PubKeyHashVersion:
		return p2pkhScript(payload), nil
	case params.ScriptHashVersion:
		script := make([]byte, 0, 23)
		script = append(script, opHash160, 20)
		script = append(script, payload...)
		return append(script, opEqual), nil
	default:
		return nil, fmt.Errorf("version byte 0x%02x: %w", version, errUnknownAddressFormat)
	}
}

func witnessScript(address string, params AddressParams) ([]byte, error) {
	hrp, data, err := bech32.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("bech32: %w", err)
	}
	if hrp != params.Bech32HRP {
		return nil, fmt.Errorf("hrp %q on a %q network", hrp, params.Bech32HRP)
	}
	if len(data) < 1 {
		return nil, errUnknownAddressFormat
	}
	if data[0] != 0 {
		return nil, fmt.Errorf("witness version %d not supported", data[0])
	}
	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("bech32 program: %w", err)
	}
	if len(program) != 20 && len(program) != 32 {
		return nil, fmt.Errorf("witness program length %d", len(program))
	}
	script := make([]byte, 0, 2+len(program))
	script = append(script, op0, byte(len(program)))
	return append(script, program...), nil
}

func p2pkhScript(pubKeyHash []byte) []byte {
	script := make([]byte, 0, 25)
	script = append(script, opDup, opHash160, 20)
	script = append(script, pubKeyHash...)
	return append(script, opEqualVerify, opCheckSig)
}
