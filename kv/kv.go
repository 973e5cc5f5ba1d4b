// Package kv defines the typed key/value layer: the table registry,
// the environment/transaction/cursor contract, and the erased-table
// shim the generic convert stages drive against.
package kv

import "context"

// Getter reads from a transaction.
type Getter interface {
	Has(table string, key []byte) (bool, error)
	GetOne(table string, key []byte) ([]byte, error)
	ForEach(table string, fromPrefix []byte, walker func(k, v []byte) error) error
}

// Putter writes to a transaction.
type Putter interface {
	Put(table string, k, v []byte) error
}

// Deleter removes from a transaction.
type Deleter interface {
	Delete(table string, k []byte) error
}

// Closer releases a resource.
type Closer interface {
	Close()
}

// Tx is a read-only transaction.
type Tx interface {
	Getter

	// Cursor opens a read-only cursor positioned before the first key
	// of table.
	Cursor(table string) (Cursor, error)
	// CursorDupSort opens a read-only dup-sort cursor. table must have
	// been registered with the DupSort flag.
	CursorDupSort(table string) (CursorDupSort, error)

	// BucketSize reports the on-disk byte size of table.
	BucketSize(table string) (uint64, error)

	Commit() error
	Rollback()
}

// RwTx is a read-write transaction. Only one may be open against an
// RwDB at a time (§4.3 WriterBusy).
type RwTx interface {
	Tx
	Putter
	Deleter

	// IncrementSequence returns the table's current sequence value and
	// advances it by amount.
	IncrementSequence(table string, amount uint64) (uint64, error)
	// ReadSequence returns the table's current sequence value without
	// advancing it.
	ReadSequence(table string) (uint64, error)

	// Append writes k,v to table, requiring k to strictly increase over
	// the table's current maximum key (ErrOutOfOrderAppend otherwise).
	Append(table string, k, v []byte) error
	// AppendDup is Append for a dup-sort table: k may repeat, but the
	// (k,v) pair as a whole must strictly increase.
	AppendDup(table string, k, v []byte) error

	RwCursor(table string) (RwCursor, error)
	RwCursorDupSort(table string) (RwCursorDupSort, error)
}

// Cursor traverses a single table in key order.
type Cursor interface {
	First() (k, v []byte, err error)
	Seek(seek []byte) (k, v []byte, err error)
	SeekExact(key []byte) (v []byte, err error)
	Next() (k, v []byte, err error)
	Prev() (k, v []byte, err error)
	Last() (k, v []byte, err error)
	Current() (k, v []byte, err error)
	Count() (uint64, error)
	Close()
}

// RwCursor adds mutation to Cursor.
type RwCursor interface {
	Cursor
	Put(k, v []byte) error
	// Append requires k to strictly increase over the table's current
	// maximum key; returns ErrOutOfOrderAppend otherwise.
	Append(k, v []byte) error
	Delete(k []byte) error
	DeleteCurrent() error
}

// CursorDupSort adds duplicate-key navigation to Cursor.
type CursorDupSort interface {
	Cursor
	SeekBothExact(key, value []byte) (k, v []byte, err error)
	SeekBothRange(key, value []byte) (v []byte, err error)
	FirstDup() ([]byte, error)
	NextDup() (k, v []byte, err error)
	NextNoDup() (k, v []byte, err error)
	PrevDup() (k, v []byte, err error)
	PrevNoDup() (k, v []byte, err error)
	LastDup() ([]byte, error)
	CountDuplicates() (uint64, error)
}

// RwCursorDupSort is the mutable counterpart of CursorDupSort.
type RwCursorDupSort interface {
	CursorDupSort
	RwCursor
	PutNoDupData(k, v []byte) error
	DeleteCurrentDuplicates() error
	DeleteExact(k1, k2 []byte) error
	AppendDup(k, v []byte) error
}

// RoDB is a read-only handle on an environment.
type RoDB interface {
	Closer
	ReadOnly() bool
	View(ctx context.Context, f func(tx Tx) error) error
	BeginRo(ctx context.Context) (Tx, error)
	AllTables() TableCfg
	// TableSizes reports the on-disk byte size of every table.
	TableSizes() (map[string]uint64, error)
}

// RwDB additionally supports read-write transactions. Only one
// read-write transaction may be open at a time.
type RwDB interface {
	RoDB
	Update(ctx context.Context, f func(tx RwTx) error) error
	BeginRw(ctx context.Context) (RwTx, error)
}
