package evm

import (
	"encoding/binary"
	"math/big"
)

// Minimal RLP encoder covering what legacy transactions need: byte strings,
// unsigned integers and flat lists.

func rlpBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return []byte{b[0]}
	}
	return append(rlpHeader(0x80, len(b)), b...)
}

func rlpUint(v uint64) []byte {
	if v == 0 {
		return rlpBytes(nil)
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	i := 0
	for i < len(buf) && buf[i] == 0 {
		i++
	}
	return rlpBytes(buf[i:])
}

func rlpBig(v *big.Int) []byte {
	if v == nil || v.Sign() == 0 {
		return rlpBytes(nil)
	}
	return rlpBytes(v.Bytes())
}

func rlpList(items ...[]byte) []byte {
	size := 0
	for _, item := range items {
		size += len(item)
	}
	out := rlpHeader(0xc0, size)
	for _, item := range items {
		out = append(out, item...)
	}
	return out
}

func rlpHeader(offset byte, size int) []byte {
	if size <= 55 {
		return []byte{offset + byte(size)}
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(size))
	i := 0
	for i < len(buf) && buf[i] == 0 {
		i++
	}
	lenBytes := buf[i:]
	return append([]byte{offset + 55 + byte(len(lenBytes))}, lenBytes...)
}
