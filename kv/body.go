package kv

import (
	"encoding/binary"
	"fmt"
)

// BodyForStorage is the internal (non-consensus) representation of a
// block body: the base id of its first transaction in the
// BlockTransaction table, how many transactions it owns, and its
// uncle (ommer) header hashes. It is never transmitted over the wire;
// only the codec contract (round-trip, ordering on its key) applies.
type BodyForStorage struct {
	BaseTxId    uint64
	TxAmount    uint32
	UncleHashes []Hash
}

// EncodeBodyForStorage lays out BaseTxId (8 bytes), TxAmount (4 bytes),
// an uncle count (4 bytes) and the concatenated uncle hashes.
func EncodeBodyForStorage(b BodyForStorage) []byte {
	out := make([]byte, 8+4+4+hashLen*len(b.UncleHashes))
	binary.BigEndian.PutUint64(out[0:8], b.BaseTxId)
	binary.BigEndian.PutUint32(out[8:12], b.TxAmount)
	binary.BigEndian.PutUint32(out[12:16], uint32(len(b.UncleHashes)))
	off := 16
	for _, h := range b.UncleHashes {
		copy(out[off:off+hashLen], h[:])
		off += hashLen
	}
	return out
}

// DecodeBodyForStorage is the inverse of EncodeBodyForStorage.
func DecodeBodyForStorage(b []byte) (BodyForStorage, error) {
	if len(b) < 16 {
		return BodyForStorage{}, fmt.Errorf("%w: body-for-storage header truncated", ErrMalformedEntry)
	}
	baseTxId := binary.BigEndian.Uint64(b[0:8])
	txAmount := binary.BigEndian.Uint32(b[8:12])
	uncleCount := binary.BigEndian.Uint32(b[12:16])
	want := 16 + int(uncleCount)*hashLen
	if len(b) != want {
		return BodyForStorage{}, fmt.Errorf("%w: body-for-storage length %d, want %d", ErrMalformedEntry, len(b), want)
	}
	uncles := make([]Hash, uncleCount)
	off := 16
	for i := range uncles {
		copy(uncles[i][:], b[off:off+hashLen])
		off += hashLen
	}
	return BodyForStorage{BaseTxId: baseTxId, TxAmount: txAmount, UncleHashes: uncles}, nil
}

// BlockBodyTable pairs a compound block key with its body-for-storage
// record.
var BlockBodyTable = Table[BlockKey, BodyForStorage]{
	Name:      BlockBody,
	EncodeKey: EncodeBlockKey,
	DecodeKey: DecodeBlockKey,
	EncodeVal: EncodeBodyForStorage,
	DecodeVal: DecodeBodyForStorage,
}
