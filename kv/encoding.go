package kv

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
)

// BlockNumber is a chain height, encoded big-endian so that byte order
// matches numeric order (the ordering law of the codec contract).
type BlockNumber uint64

const (
	blockNumberLen = 8
	hashLen        = 32
)

// Hash is a 32-byte block/header hash.
type Hash [hashLen]byte

// EncodeBlockNumber encodes n as 8 big-endian bytes.
func EncodeBlockNumber(n BlockNumber) []byte {
	b := make([]byte, blockNumberLen)
	binary.BigEndian.PutUint64(b, uint64(n))
	return b
}

// DecodeBlockNumber decodes 8 big-endian bytes into a BlockNumber.
func DecodeBlockNumber(b []byte) (BlockNumber, error) {
	if len(b) != blockNumberLen {
		return 0, fmt.Errorf("%w: block number must be %d bytes, got %d", ErrMalformedEntry, blockNumberLen, len(b))
	}
	return BlockNumber(binary.BigEndian.Uint64(b)), nil
}

// BlockKey is the compound (BlockNumber,BlockHash) key shared by the
// Header, HeadersTotalDifficulty and BlockBody tables.
type BlockKey struct {
	Number BlockNumber
	Hash   Hash
}

// EncodeBlockKey concatenates the big-endian block number with the
// hash, so that keys sort first by number, then by hash.
func EncodeBlockKey(k BlockKey) []byte {
	b := make([]byte, blockNumberLen+hashLen)
	binary.BigEndian.PutUint64(b, uint64(k.Number))
	copy(b[blockNumberLen:], k.Hash[:])
	return b
}

// DecodeBlockKey is the inverse of EncodeBlockKey.
func DecodeBlockKey(b []byte) (BlockKey, error) {
	if len(b) != blockNumberLen+hashLen {
		return BlockKey{}, fmt.Errorf("%w: block key must be %d bytes, got %d", ErrMalformedEntry, blockNumberLen+hashLen, len(b))
	}
	var k BlockKey
	k.Number = BlockNumber(binary.BigEndian.Uint64(b[:blockNumberLen]))
	copy(k.Hash[:], b[blockNumberLen:])
	return k, nil
}

// EncodeBlockSeekKey returns the prefix that seeks a compound-keyed
// cursor to the first entry at or after n, regardless of hash.
func EncodeBlockSeekKey(n BlockNumber) []byte {
	return EncodeBlockNumber(n)
}

// EncodeCanonicalKey encodes a CanonicalHeader table key (bare block
// number).
func EncodeCanonicalKey(n BlockNumber) []byte { return EncodeBlockNumber(n) }

// DecodeHash decodes a 32-byte canonical-header value.
func DecodeHash(b []byte) (Hash, error) {
	if len(b) != hashLen {
		return Hash{}, fmt.Errorf("%w: hash must be %d bytes, got %d", ErrMalformedEntry, hashLen, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// EncodeHash round-trips DecodeHash.
func EncodeHash(h Hash) []byte {
	b := make([]byte, hashLen)
	copy(b, h[:])
	return b
}

// IdentityBytes is the codec for opaque byte blobs (RLP-encoded
// headers and transactions), which this layer stores and retrieves
// without interpreting.
func IdentityBytes(b []byte) []byte { return b }

// IdentityBytesErr adapts IdentityBytes to the (V, error) decode shape.
func IdentityBytesErr(b []byte) ([]byte, error) { return b, nil }

// EncodeU256 encodes a total-difficulty value as 32 big-endian bytes.
func EncodeU256(v *uint256.Int) []byte {
	b := v.Bytes32()
	return b[:]
}

// DecodeU256 is the inverse of EncodeU256.
func DecodeU256(b []byte) (*uint256.Int, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("%w: u256 must be 32 bytes, got %d", ErrMalformedEntry, len(b))
	}
	var v uint256.Int
	v.SetBytes(b)
	return &v, nil
}

// EncodeTxID encodes a BlockTransaction table key: a monotonically
// increasing 8-byte big-endian id.
func EncodeTxID(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

// DecodeTxID is the inverse of EncodeTxID.
func DecodeTxID(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: tx id must be 8 bytes, got %d", ErrMalformedEntry, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// HeaderTable is the Table[K,V] pairing for the Header table: compound
// block key to opaque RLP header bytes.
var HeaderTable = Table[BlockKey, []byte]{
	Name:      Header,
	EncodeKey: EncodeBlockKey,
	DecodeKey: DecodeBlockKey,
	EncodeVal: IdentityBytes,
	DecodeVal: IdentityBytesErr,
}

// CanonicalHeaderTable pairs bare block numbers with canonical hashes.
var CanonicalHeaderTable = Table[BlockNumber, Hash]{
	Name:      HeaderCanonical,
	EncodeKey: EncodeBlockNumber,
	DecodeKey: DecodeBlockNumber,
	EncodeVal: EncodeHash,
	DecodeVal: DecodeHash,
}

// HeaderTDTable pairs a compound block key with its total difficulty.
var HeaderTDTable = Table[BlockKey, *uint256.Int]{
	Name:      HeaderTD,
	EncodeKey: EncodeBlockKey,
	DecodeKey: DecodeBlockKey,
	EncodeVal: EncodeU256,
	DecodeVal: DecodeU256,
}

// BlockTransactionTable pairs a tx id with opaque RLP transaction
// bytes.
var BlockTransactionTable = Table[uint64, []byte]{
	Name:      EthTx,
	EncodeKey: EncodeTxID,
	DecodeKey: DecodeTxID,
	EncodeVal: IdentityBytes,
	DecodeVal: IdentityBytesErr,
}
