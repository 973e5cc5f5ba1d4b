package kv

// Table name constants for the chaindata schema. Trimmed to the tables
// spec.md §3 names, the two index tables the glue stages write
// (HeaderNumber, Senders), and the minimal support tables the KV layer
// itself needs to function.
const (
	// Header maps (BlockNumber,BlockHash) to an RLP-encoded header.
	Header = "Header"
	// HeaderCanonical maps BlockNumber to the canonical BlockHash at
	// that height.
	HeaderCanonical = "CanonicalHeader"
	// HeaderTD maps (BlockNumber,BlockHash) to the total difficulty at
	// that header, stored as 32 big-endian bytes (see EncodeU256).
	HeaderTD = "HeadersTotalDifficulty"
	// BlockBody maps (BlockNumber,BlockHash) to a body-for-storage
	// record (base tx id, tx amount, uncles).
	BlockBody = "BlockBody"
	// EthTx maps a monotonically increasing tx id to an RLP-encoded
	// transaction.
	EthTx = "BlockTransaction"
	// SyncStageProgress maps a stage name to the highest block number
	// that stage has processed.
	SyncStageProgress = "SyncStage"
	// HeaderNumber is the inverse of CanonicalHeader: BlockHash to
	// BlockNumber, built by the BlockHashes stage.
	HeaderNumber = "HeaderNumber"
	// Senders maps a compound (BlockNumber,BlockHash) key to the list
	// of recovered sender addresses for that block's transactions, in
	// transaction order.
	Senders = "TxSender"

	// Sequence holds per-table auto-increment counters (used to hand
	// out BlockTransaction ids).
	Sequence = "Sequence"
	// DatabaseInfo holds schema/version metadata for the environment.
	DatabaseInfo = "DbInfo"
)

// ChaindataTables enumerates every table the environment creates on
// open.
var ChaindataTables = []string{
	Header,
	HeaderCanonical,
	HeaderTD,
	BlockBody,
	EthTx,
	SyncStageProgress,
	HeaderNumber,
	Senders,
	Sequence,
	DatabaseInfo,
}

// TableFlags mirrors the dup-sort/integer-key bits libmdbx understands
// for a named sub-database.
type TableFlags uint

const (
	Default    TableFlags = 0x00
	ReverseKey TableFlags = 0x02
	DupSort    TableFlags = 0x04
	IntegerKey TableFlags = 0x08
	IntegerDup TableFlags = 0x20
	ReverseDup TableFlags = 0x40
)

// TableCfgItem describes how a single table should be opened.
type TableCfgItem struct {
	Flags TableFlags
	// DBI is not written by this module's backends: kv/mdbx keeps the
	// handles it opens in its own per-environment and per-transaction
	// maps, so this field stays zero.
	DBI uint
}

// TableCfg is the full, immutable table registry: table name to its
// open configuration.
type TableCfg map[string]TableCfgItem

// ChaindataTablesCfg is the default configuration for every table this
// module knows about. None of spec.md's tables are dup-sort: each key
// already uniquely identifies its value.
var ChaindataTablesCfg = TableCfg{
	Header:            {Flags: Default},
	HeaderCanonical:   {Flags: Default},
	HeaderTD:          {Flags: Default},
	BlockBody:         {Flags: Default},
	EthTx:             {Flags: Default},
	SyncStageProgress: {Flags: Default},
	HeaderNumber:      {Flags: Default},
	Senders:           {Flags: Default},
	Sequence:          {Flags: Default},
	DatabaseInfo:      {Flags: Default},
}

func init() {
	for _, name := range ChaindataTables {
		if _, ok := ChaindataTablesCfg[name]; !ok {
			ChaindataTablesCfg[name] = TableCfgItem{Flags: Default}
		}
	}
}

// Table pairs a table name with the codecs needed to interpret its
// keys and values. It is the idiomatic-Go stand-in for a typed-table
// trait: a struct of function values rather than an interface
// implemented per table.
type Table[K any, V any] struct {
	Name       string
	EncodeKey  func(K) []byte
	DecodeKey  func([]byte) (K, error)
	EncodeVal  func(V) []byte
	DecodeVal  func([]byte) (V, error)
}
