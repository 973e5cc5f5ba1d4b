package stages

import (
	"context"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/log/v3"

	"github.com/zsluedem/akula-go/kv"
	"github.com/zsluedem/akula-go/stagedsync"
)

// convertEntry is one entry pulled from the source, awaiting
// re-encode: its decoded key, the encoded key, its block number and
// its encoded value.
type convertEntry[K any] struct {
	key       K
	rawKey    []byte
	blockNum  kv.BlockNumber
	rawValue  []byte
}

// ConvertTable bulk-copies table from src into tx, resuming from
// seekKey (a block-number prefix built by the caller), decoding each
// source value and re-encoding it through table's own codec before
// appending it to the destination. It is the generic instantiation of
// the "parallel decode, serial append" template (spec.md §4.7):
// entries are pulled and decoded BufferingFactor at a time, re-encoded
// up to Workers at once, then drained into the destination cursor
// strictly in key order so Append's ordering precondition holds.
//
// progress is the stage's own current SyncStageProgress: the floor
// Progress must never fall below, even when src has nothing past
// seekKey (already caught up since the last run).
//
// ConvertTable returns once either the source is exhausted (Done:
// true, MustCommit: true) or cfg.FlushDeadline/CommitThreshold is
// reached first (Done: false, MustCommit: true) — the caller is
// expected to call it again to resume.
func ConvertTable[K comparable, V any](
	ctx context.Context,
	src Source,
	tx kv.RwTx,
	table kv.Table[K, V],
	keyToBlockNum func(K) kv.BlockNumber,
	seekKey []byte,
	progress kv.BlockNumber,
	cfg Cfg,
	logger log.Logger,
) (stagedsync.ExecOutput, error) {
	if logger == nil {
		logger = log.Root()
	}

	srcTx, err := sourceTx(ctx, src)
	if err != nil {
		return stagedsync.ExecOutput{}, err
	}
	defer srcTx.Rollback()

	srcCursor, err := srcTx.Cursor(table.Name)
	if err != nil {
		return stagedsync.ExecOutput{}, err
	}
	defer srcCursor.Close()

	dstCursor, err := tx.RwCursor(table.Name)
	if err != nil {
		return stagedsync.ExecOutput{}, err
	}
	defer dstCursor.Close()

	erased := kv.NewErasedTable(table)
	srcErased := kv.NewErasedCursor[K, V](srcCursor, erased)

	deadline := time.Now().Add(cfg.flushDeadline())
	threshold := cfg.commitThreshold()
	buffer := cfg.bufferingFactor()
	workers := cfg.workers()

	highest := progress
	var written datasize.ByteSize
	// SeekRaw takes a raw block-number prefix rather than a full K,
	// since the caller may not know the hash half of a compound key
	// to resume from.
	curKey, curVal, err := srcErased.SeekRaw(seekKey)
	if err != nil {
		return stagedsync.ExecOutput{}, err
	}

	for {
		batch := make([]convertEntry[K], 0, buffer)
		for len(batch) < buffer {
			var zero K
			if isZeroKey(curKey, zero) {
				break
			}
			batch = append(batch, convertEntry[K]{
				key:      curKey,
				rawKey:   erased.EncodeKey(curKey),
				blockNum: keyToBlockNum(curKey),
				rawValue: erased.EncodeValue(curVal),
			})
			curKey, curVal, err = srcErased.Next()
			if err != nil {
				return stagedsync.ExecOutput{}, err
			}
		}
		if len(batch) == 0 {
			return stagedsync.ExecOutput{Progress: highest, Done: true, MustCommit: true}, nil
		}

		reencoded, err := decodeReencode(ctx, workers, batch, func(e convertEntry[K]) ([]byte, error) {
			v, err := table.DecodeVal(e.rawValue)
			if err != nil {
				return nil, err
			}
			return table.EncodeVal(v), nil
		})
		if err != nil {
			return stagedsync.ExecOutput{}, err
		}

		for i, e := range batch {
			if err := dstCursor.Append(e.rawKey, reencoded[i]); err != nil {
				return stagedsync.ExecOutput{}, err
			}
			if e.blockNum > highest {
				highest = e.blockNum
			}
			written += datasize.ByteSize(len(e.rawKey) + len(reencoded[i]))
		}

		if written >= threshold || time.Now().After(deadline) {
			logger.Info("convert stage flush boundary reached", "table", table.Name, "progress", highest, "written", written)
			return stagedsync.ExecOutput{Progress: highest, Done: false, MustCommit: true}, nil
		}
	}
}

// isZeroKey reports whether cur equals the zero value of K, which is
// how ErasedCursor signals exhaustion (see ErasedCursor.decode).
func isZeroKey[K comparable](cur K, zero K) bool {
	return cur == zero
}
