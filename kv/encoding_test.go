package kv

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestBlockNumberRoundTrip(t *testing.T) {
	for _, n := range []BlockNumber{0, 1, 255, 256, 1 << 32} {
		enc := EncodeBlockNumber(n)
		require.Len(t, enc, blockNumberLen)
		dec, err := DecodeBlockNumber(enc)
		require.NoError(t, err)
		require.Equal(t, n, dec)
	}
}

func TestBlockNumberOrdering(t *testing.T) {
	a := EncodeBlockNumber(10)
	b := EncodeBlockNumber(11)
	require.True(t, bytes.Compare(a, b) < 0)
}

func TestBlockKeyRoundTrip(t *testing.T) {
	var h Hash
	h[0] = 0xAB
	k := BlockKey{Number: 42, Hash: h}
	enc := EncodeBlockKey(k)
	dec, err := DecodeBlockKey(enc)
	require.NoError(t, err)
	require.Equal(t, k, dec)
}

func TestBlockKeyOrderingByNumberFirst(t *testing.T) {
	var hLow, hHigh Hash
	hLow[0] = 0xFF
	hHigh[0] = 0x00
	low := EncodeBlockKey(BlockKey{Number: 1, Hash: hLow})
	high := EncodeBlockKey(BlockKey{Number: 2, Hash: hHigh})
	require.True(t, bytes.Compare(low, high) < 0, "block number must dominate hash in ordering")
}

func TestDecodeBlockKeyMalformed(t *testing.T) {
	_, err := DecodeBlockKey([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrMalformedEntry)
}

func TestU256RoundTrip(t *testing.T) {
	v := uint256.NewInt(123456789)
	enc := EncodeU256(v)
	require.Len(t, enc, 32)
	dec, err := DecodeU256(enc)
	require.NoError(t, err)
	require.Equal(t, v, dec)
}

func TestBodyForStorageRoundTrip(t *testing.T) {
	b := BodyForStorage{
		BaseTxId:    100,
		TxAmount:    3,
		UncleHashes: []Hash{{1}, {2}},
	}
	enc := EncodeBodyForStorage(b)
	dec, err := DecodeBodyForStorage(enc)
	require.NoError(t, err)
	require.Equal(t, b, dec)
}

func TestBodyForStorageEmptyUncles(t *testing.T) {
	b := BodyForStorage{BaseTxId: 1, TxAmount: 0}
	enc := EncodeBodyForStorage(b)
	dec, err := DecodeBodyForStorage(enc)
	require.NoError(t, err)
	require.Equal(t, b.BaseTxId, dec.BaseTxId)
	require.Equal(t, b.TxAmount, dec.TxAmount)
	require.Empty(t, dec.UncleHashes)
}

func TestTxIDRoundTrip(t *testing.T) {
	enc := EncodeTxID(98765)
	dec, err := DecodeTxID(enc)
	require.NoError(t, err)
	require.Equal(t, uint64(98765), dec)
}
