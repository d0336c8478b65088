package btc

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/emperorhan/multichain-wallet/internal/chain"
	"github.com/emperorhan/multichain-wallet/internal/chain/btc/esplora"
)

// Legacy size model: bytes per P2PKH input, per output and fixed overhead.
const (
	inputSize      = 148
	outputSize     = 34
	txOverheadSize = 10
	dustThreshold  = 546
	sigHashAll     = 0x01
	txVersion      = 2
	maxSequence    = 0xffffffff
)

// estimateFee applies the legacy size model at feeRate sat/byte.
func estimateFee(inputs, outputs int, feeRate int64) int64 {
	return int64(inputs*inputSize+outputs*outputSize+txOverheadSize) * feeRate
}

// selection is the outcome of coin selection. TotalIn always equals
// Amount + Fee + Change, and Change is either zero or above dust.
type selection struct {
	Inputs  []esplora.UTXO
	TotalIn int64
	Amount  int64
	Fee     int64
	Change  int64
}

// selectUTXOs accumulates confirmed, then larger, outputs until amount plus
// fee is covered. Change at or below dust is left to the miner.
func selectUTXOs(utxos []esplora.UTXO, amount, feeRate int64) (selection, error) {
	candidates := append([]esplora.UTXO(nil), utxos...)
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Status.Confirmed != candidates[j].Status.Confirmed {
			return candidates[i].Status.Confirmed
		}
		return candidates[i].Value > candidates[j].Value
	})

	var sel selection
	sel.Amount = amount
	for _, u := range candidates {
		sel.Inputs = append(sel.Inputs, u)
		sel.TotalIn += u.Value

		n := len(sel.Inputs)
		if sel.TotalIn < amount+estimateFee(n, 1, feeRate) {
			continue
		}
		withChange := estimateFee(n, 2, feeRate)
		if change := sel.TotalIn - amount - withChange; change > dustThreshold {
			sel.Fee, sel.Change = withChange, change
		} else {
			sel.Fee, sel.Change = sel.TotalIn-amount, 0
		}
		return sel, nil
	}

	return selection{}, fmt.Errorf("%w: have %d sat, need %d plus fee", chain.ErrInsufficientFunds, sel.TotalIn, amount)
}

type txOut struct {
	Value  int64
	Script []byte
}

type txIn struct {
	PrevHash  [32]byte // internal byte order
	PrevIndex uint32
	Script    []byte
	Sequence  uint32
}

type msgTx struct {
	Version  int32
	Inputs   []txIn
	Outputs  []txOut
	LockTime uint32
}

func (tx *msgTx) serialize() []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, tx.Version)
	writeVarInt(&buf, uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		buf.Write(in.PrevHash[:])
		_ = binary.Write(&buf, binary.LittleEndian, in.PrevIndex)
		writeVarBytes(&buf, in.Script)
		_ = binary.Write(&buf, binary.LittleEndian, in.Sequence)
	}
	writeVarInt(&buf, uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		_ = binary.Write(&buf, binary.LittleEndian, out.Value)
		writeVarBytes(&buf, out.Script)
	}
	_ = binary.Write(&buf, binary.LittleEndian, tx.LockTime)
	return buf.Bytes()
}

// txid is the reversed double SHA-256 of the serialization.
func (tx *msgTx) txid() string {
	h := doubleSHA256(tx.serialize())
	reverse(h)
	return hex.EncodeToString(h)
}

// legacySigHash computes the SIGHASH_ALL digest of input idx: every other
// input script is emptied and idx carries the spent output's locking script.
func (tx *msgTx) legacySigHash(idx int, prevScript []byte) []byte {
	cp := msgTx{Version: tx.Version, Outputs: tx.Outputs, LockTime: tx.LockTime}
	cp.Inputs = make([]txIn, len(tx.Inputs))
	for i, in := range tx.Inputs {
		in.Script = nil
		if i == idx {
			in.Script = prevScript
		}
		cp.Inputs[i] = in
	}
	preimage := cp.serialize()
	preimage = binary.LittleEndian.AppendUint32(preimage, sigHashAll)
	return doubleSHA256(preimage)
}

// buildSignedTx assembles and signs a P2PKH spend of sel. fromScript is the
// locking script of every selected output.
func buildSignedTx(sel selection, toScript, fromScript []byte, key *btcec.PrivateKey) (*msgTx, error) {
	tx := &msgTx{Version: txVersion}
	for _, u := range sel.Inputs {
		hash, err := decodeTxID(u.TxID)
		if err != nil {
			return nil, err
		}
		tx.Inputs = append(tx.Inputs, txIn{PrevHash: hash, PrevIndex: u.Vout, Sequence: maxSequence})
	}
	tx.Outputs = append(tx.Outputs, txOut{Value: sel.Amount, Script: toScript})
	if sel.Change > 0 {
		tx.Outputs = append(tx.Outputs, txOut{Value: sel.Change, Script: fromScript})
	}

	pub := key.PubKey().SerializeCompressed()
	scripts := make([][]byte, len(tx.Inputs))
	for i := range tx.Inputs {
		digest := tx.legacySigHash(i, fromScript)
		sig := append(ecdsa.Sign(key, digest).Serialize(), sigHashAll)
		scripts[i] = append(pushData(sig), pushData(pub)...)
	}
	for i := range tx.Inputs {
		tx.Inputs[i].Script = scripts[i]
	}
	return tx, nil
}

func decodeTxID(txid string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(txid)
	if err != nil || len(raw) != 32 {
		return out, fmt.Errorf("invalid txid %q", txid)
	}
	reverse(raw)
	copy(out[:], raw)
	return out, nil
}

func pushData(data []byte) []byte {
	// signatures and compressed keys are always below OP_PUSHDATA1
	return append([]byte{byte(len(data))}, data...)
}

func writeVarInt(buf *bytes.Buffer, n uint64) {
	switch {
	case n < 0xfd:
		buf.WriteByte(byte(n))
	case n <= 0xffff:
		buf.WriteByte(0xfd)
		_ = binary.Write(buf, binary.LittleEndian, uint16(n))
	case n <= 0xffffffff:
		buf.WriteByte(0xfe)
		_ = binary.Write(buf, binary.LittleEndian, uint32(n))
	default:
		buf.WriteByte(0xff)
		_ = binary.Write(buf, binary.LittleEndian, n)
	}
}

func writeVarBytes(buf *bytes.Buffer, b []byte) {
	writeVarInt(buf, uint64(len(b)))
	buf.Write(b)
}

func doubleSHA256(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:]
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
