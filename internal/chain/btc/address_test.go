package btc

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emperorhan/multichain-wallet/internal/domain/model"
)

func keyOne(t *testing.T) *btcec.PrivateKey {
	t.Helper()
	raw := make([]byte, 32)
	raw[31] = 1
	key, _ := btcec.PrivKeyFromBytes(raw)
	return key
}

func TestP2PKHAddress_KnownVector(t *testing.T) {
	key := keyOne(t)
	assert.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", P2PKHAddress(key.PubKey(), MainNetParams))
	assert.Equal(t, "751e76e8199196d454941c45d1b3a323f1433bd6",
		hex.EncodeToString(Hash160(key.PubKey().SerializeCompressed())))

	testnet := P2PKHAddress(key.PubKey(), TestNetParams)
	assert.Contains(t, []byte("mn"), testnet[0])
}

func TestPayToAddrScript(t *testing.T) {
	tests := []struct {
		name    string
		address string
		params  AddressParams
		want    string
	}{
		{
			name:    "p2pkh",
			address: "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH",
			params:  MainNetParams,
			want:    "76a914751e76e8199196d454941c45d1b3a323f1433bd688ac",
		},
		{
			name:    "p2wpkh mainnet",
			address: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
			params:  MainNetParams,
			want:    "0014751e76e8199196d454941c45d1b3a323f1433bd6",
		},
		{
			name:    "p2wpkh testnet uppercase",
			address: "TB1QW508D6QEJXTDG4Y5R3ZARVARY0C5XW7KXPJZSX",
			params:  TestNetParams,
			want:    "0014751e76e8199196d454941c45d1b3a323f1433bd6",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := PayToAddrScript(tt.address, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, hex.EncodeToString(script))
		})
	}
}

func TestPayToAddrScript_P2SH(t *testing.T) {
	script, err := PayToAddrScript("3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy", MainNetParams)
	require.NoError(t, err)
	require.Len(t, script, 23)
	assert.Equal(t, byte(opHash160), script[0])
	assert.Equal(t, byte(20), script[1])
	assert.Equal(t, byte(opEqual), script[22])
}

func TestPayToAddrScript_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		address string
		params  AddressParams
	}{
		{"empty", "", MainNetParams},
		{"garbage", "not-an-address", MainNetParams},
		{"bad checksum", "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMJ", MainNetParams},
		{"mainnet address on testnet", "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", TestNetParams},
		{"testnet bech32 on mainnet", "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx", MainNetParams},
		{"bech32 bad checksum", "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t5", MainNetParams},
		{"eth address", "0x9d8A62f656a8d1615C1294fd71e9CFb3E4855A4F", MainNetParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PayToAddrScript(tt.address, tt.params)
			assert.Error(t, err)
		})
	}
}

func TestParamsFor(t *testing.T) {
	assert.Equal(t, MainNetParams, ParamsFor(model.NetworkDescriptor{ChainID: 0}))
	assert.Equal(t, TestNetParams, ParamsFor(model.NetworkDescriptor{ChainID: -1}))
	assert.Equal(t, TestNetParams, ParamsFor(model.NetworkDescriptor{ChainID: 2, Testnet: true}))
}
