package kv

// ErasedTable exposes a Table[K,V] as a byte-in/byte-out view, so
// generic code (the convert-stage template) can be written once
// against []byte keys and values without needing K and V at its own
// call sites. It adds no policy beyond the table's own codecs: it
// neither validates nor reinterprets what the codecs return.
type ErasedTable[K any, V any] struct {
	table Table[K, V]
}

// NewErasedTable wraps t.
func NewErasedTable[K any, V any](t Table[K, V]) ErasedTable[K, V] {
	return ErasedTable[K, V]{table: t}
}

// Name returns the underlying table's name.
func (e ErasedTable[K, V]) Name() string { return e.table.Name }

// EncodeKey encodes k using the underlying table's key codec.
func (e ErasedTable[K, V]) EncodeKey(k K) []byte { return e.table.EncodeKey(k) }

// DecodeKey decodes raw into K.
func (e ErasedTable[K, V]) DecodeKey(raw []byte) (K, error) { return e.table.DecodeKey(raw) }

// EncodeValue encodes v using the underlying table's value codec.
func (e ErasedTable[K, V]) EncodeValue(v V) []byte { return e.table.EncodeVal(v) }

// DecodeValue decodes raw into V.
func (e ErasedTable[K, V]) DecodeValue(raw []byte) (V, error) { return e.table.DecodeVal(raw) }

// ErasedCursor adapts a Cursor to decode keys and values through an
// ErasedTable as it walks, so callers generic over K,V never see the
// underlying []byte representation.
type ErasedCursor[K any, V any] struct {
	cur   Cursor
	table ErasedTable[K, V]
}

// NewErasedCursor wraps cur with table's codecs.
func NewErasedCursor[K any, V any](cur Cursor, table ErasedTable[K, V]) ErasedCursor[K, V] {
	return ErasedCursor[K, V]{cur: cur, table: table}
}

func (c ErasedCursor[K, V]) decode(k, v []byte, err error) (K, V, error) {
	var zeroK K
	var zeroV V
	if err != nil {
		return zeroK, zeroV, err
	}
	if k == nil {
		return zeroK, zeroV, nil
	}
	dk, err := c.table.DecodeKey(k)
	if err != nil {
		return zeroK, zeroV, err
	}
	dv, err := c.table.DecodeValue(v)
	if err != nil {
		return zeroK, zeroV, err
	}
	return dk, dv, nil
}

// First seeks to the first entry.
func (c ErasedCursor[K, V]) First() (K, V, error) { return c.decode(c.cur.First()) }

// Seek seeks to the first entry whose encoded key is >= EncodeKey(key).
func (c ErasedCursor[K, V]) Seek(key K) (K, V, error) {
	return c.decode(c.cur.Seek(c.table.EncodeKey(key)))
}

// SeekRaw seeks to the first entry whose encoded key is >= prefix, a
// partial (not necessarily full-length) key. Used by the convert
// stages to resume from a block-number prefix without needing a full
// K value (e.g. a hash they don't know yet) to seek with.
func (c ErasedCursor[K, V]) SeekRaw(prefix []byte) (K, V, error) {
	return c.decode(c.cur.Seek(prefix))
}

// Next advances the cursor.
func (c ErasedCursor[K, V]) Next() (K, V, error) { return c.decode(c.cur.Next()) }

// Prev retreats the cursor.
func (c ErasedCursor[K, V]) Prev() (K, V, error) { return c.decode(c.cur.Prev()) }

// Close releases the underlying cursor.
func (c ErasedCursor[K, V]) Close() { c.cur.Close() }

// ErasedRwCursor adds typed Append to ErasedCursor, the shape the
// convert stages drive their destination cursor through.
type ErasedRwCursor[K any, V any] struct {
	ErasedCursor[K, V]
	rw RwCursor
}

// NewErasedRwCursor wraps rw with table's codecs.
func NewErasedRwCursor[K any, V any](rw RwCursor, table ErasedTable[K, V]) ErasedRwCursor[K, V] {
	return ErasedRwCursor[K, V]{ErasedCursor: NewErasedCursor[K, V](rw, table), rw: rw}
}

// Append encodes k,v and appends them, enforcing the underlying
// cursor's strictly-increasing-key precondition.
func (c ErasedRwCursor[K, V]) Append(k K, v V) error {
	return c.rw.Append(c.table.EncodeKey(k), c.table.EncodeValue(v))
}

// DeleteCurrent deletes the entry the cursor is positioned on.
func (c ErasedRwCursor[K, V]) DeleteCurrent() error { return c.rw.DeleteCurrent() }
