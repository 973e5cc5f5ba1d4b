package kv

import "errors"

// Sentinel errors for the typed KV layer's failure taxonomy.
var (
	// ErrStoreUnavailable indicates the backing store could not be opened
	// or has stopped responding (missing file, permission failure, I/O error).
	ErrStoreUnavailable = errors.New("kv: store unavailable")

	// ErrSchemaMismatch indicates the on-disk table set does not match
	// the table registry the process was built with.
	ErrSchemaMismatch = errors.New("kv: schema mismatch")

	// ErrWriterBusy indicates a second writer attempted to begin a
	// read-write transaction while one was already open. kv/mdbx also
	// returns it when a read-write transaction is requested from an
	// environment opened read-only.
	ErrWriterBusy = errors.New("kv: writer busy")

	// ErrMalformedEntry indicates a key or value failed to decode under
	// its table's codec.
	ErrMalformedEntry = errors.New("kv: malformed entry")

	// ErrOutOfOrderAppend indicates Append was called with a key that
	// does not strictly increase over the table's current maximum key.
	ErrOutOfOrderAppend = errors.New("kv: out-of-order append")

	// ErrCursorInvalidated indicates a cursor was used after the
	// transaction that created it ended.
	ErrCursorInvalidated = errors.New("kv: cursor invalidated")
)
