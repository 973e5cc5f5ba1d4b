package stages

import (
	"context"
	"fmt"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/log/v3"

	"github.com/zsluedem/akula-go/kv"
	"github.com/zsluedem/akula-go/stagedsync"
)

// ConvertBodiesID names the stage bulk-copying BlockBody and, for each
// body, its owned BlockTransaction range.
const ConvertBodiesID stagedsync.StageID = "ConvertBodies"

// NewConvertBodies builds the ConvertBodies stage. Unlike the other
// convert stages it is hand-written rather than a ConvertTable
// instantiation, because each body additionally owns a contiguous
// range of the BlockTransaction table (§3 invariant 3) that must be
// copied alongside it.
func NewConvertBodies(src Source, cfg Cfg, logger log.Logger) *stagedsync.Stage {
	return &stagedsync.Stage{
		ID:          ConvertBodiesID,
		Description: "bulk-copy block bodies and their transactions from the source database",
		Execute: func(ctx context.Context, tx kv.RwTx, input stagedsync.StageInput) (stagedsync.ExecOutput, error) {
			seekKey := kv.EncodeBlockSeekKey(input.Stage.BlockNumber + 1)
			return convertBodies(ctx, src, tx, seekKey, input.Stage.BlockNumber, cfg, logger)
		},
		Unwind: func(ctx context.Context, tx kv.RwTx, input stagedsync.UnwindInput) error {
			return unwindBodies(tx, input.Stage.UnwindTo)
		},
	}
}

type bodyEntry struct {
	rawKey   []byte
	blockNum kv.BlockNumber
	body     kv.BodyForStorage
}

func convertBodies(ctx context.Context, src Source, tx kv.RwTx, seekKey []byte, progress kv.BlockNumber, cfg Cfg, logger log.Logger) (stagedsync.ExecOutput, error) {
	if logger == nil {
		logger = log.Root()
	}

	srcTx, err := sourceTx(ctx, src)
	if err != nil {
		return stagedsync.ExecOutput{}, err
	}
	defer srcTx.Rollback()

	srcBodyCur, err := srcTx.Cursor(kv.BlockBody)
	if err != nil {
		return stagedsync.ExecOutput{}, err
	}
	defer srcBodyCur.Close()

	srcTxCur, err := srcTx.Cursor(kv.EthTx)
	if err != nil {
		return stagedsync.ExecOutput{}, err
	}
	defer srcTxCur.Close()

	dstBodyCur, err := tx.RwCursor(kv.BlockBody)
	if err != nil {
		return stagedsync.ExecOutput{}, err
	}
	defer dstBodyCur.Close()

	dstTxCur, err := tx.RwCursor(kv.EthTx)
	if err != nil {
		return stagedsync.ExecOutput{}, err
	}
	defer dstTxCur.Close()

	deadline := time.Now().Add(cfg.flushDeadline())
	threshold := cfg.commitThreshold()
	buffer := cfg.bufferingFactor()
	workers := cfg.workers()

	highest := progress
	var written datasize.ByteSize
	k, v, err := srcBodyCur.Seek(seekKey)
	if err != nil {
		return stagedsync.ExecOutput{}, err
	}

	for {
		var batch []bodyEntry
		accumTxs := 0
		for k != nil && accumTxs <= buffer {
			blockKey, err := kv.DecodeBlockKey(k)
			if err != nil {
				return stagedsync.ExecOutput{}, err
			}
			body, err := kv.DecodeBodyForStorage(v)
			if err != nil {
				return stagedsync.ExecOutput{}, err
			}
			batch = append(batch, bodyEntry{
				rawKey:   append([]byte(nil), k...),
				blockNum: blockKey.Number,
				body:     body,
			})
			accumTxs += int(body.TxAmount)
			k, v, err = srcBodyCur.Next()
			if err != nil {
				return stagedsync.ExecOutput{}, err
			}
		}
		if len(batch) == 0 {
			return stagedsync.ExecOutput{Progress: highest, Done: true, MustCommit: true}, nil
		}

		reencoded, err := decodeReencode(ctx, workers, batch, func(e bodyEntry) ([]byte, error) {
			return kv.EncodeBodyForStorage(e.body), nil
		})
		if err != nil {
			return stagedsync.ExecOutput{}, err
		}

		for i, e := range batch {
			if err := dstBodyCur.Append(e.rawKey, reencoded[i]); err != nil {
				return stagedsync.ExecOutput{}, err
			}
			txBytes, err := copyTxRange(srcTxCur, dstTxCur, e.body.BaseTxId, e.body.TxAmount)
			if err != nil {
				return stagedsync.ExecOutput{}, err
			}
			if e.blockNum > highest {
				highest = e.blockNum
			}
			written += datasize.ByteSize(len(e.rawKey) + len(reencoded[i]) + txBytes)
		}

		if written >= threshold || time.Now().After(deadline) {
			logger.Info("convert bodies flush boundary reached", "progress", highest, "written", written)
			return stagedsync.ExecOutput{Progress: highest, Done: false, MustCommit: true}, nil
		}
	}
}

// copyTxRange copies the txAmount transactions starting at baseTxId
// from src to dst, preserving their ids exactly so the body's
// (BaseTxId,TxAmount) reference stays valid in the destination too.
// It returns the number of bytes copied, for the caller's
// commit-threshold accounting.
func copyTxRange(src kv.Cursor, dst kv.RwCursor, baseTxId uint64, txAmount uint32) (int, error) {
	if txAmount == 0 {
		return 0, nil
	}
	k, v, err := src.Seek(kv.EncodeTxID(baseTxId))
	if err != nil {
		return 0, err
	}
	var written int
	for i := uint32(0); i < txAmount; i++ {
		if k == nil {
			return written, fmt.Errorf("%w: missing transaction %d of body base %d", kv.ErrMalformedEntry, i, baseTxId)
		}
		if err := dst.Append(append([]byte(nil), k...), append([]byte(nil), v...)); err != nil {
			return written, err
		}
		written += len(k) + len(v)
		k, v, err = src.Next()
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// unwindBodies deletes every body past unwindTo and its owned
// transaction range, walking BlockBody from the tail (Open Question
// a).
func unwindBodies(tx kv.RwTx, unwindTo kv.BlockNumber) error {
	bodyCur, err := tx.RwCursor(kv.BlockBody)
	if err != nil {
		return err
	}
	defer bodyCur.Close()

	txCur, err := tx.RwCursor(kv.EthTx)
	if err != nil {
		return err
	}
	defer txCur.Close()

	k, v, err := bodyCur.Last()
	if err != nil {
		return err
	}
	for k != nil {
		blockKey, err := kv.DecodeBlockKey(k)
		if err != nil {
			return err
		}
		if blockKey.Number <= unwindTo {
			break
		}
		body, err := kv.DecodeBodyForStorage(v)
		if err != nil {
			return err
		}
		for i := uint32(0); i < body.TxAmount; i++ {
			if err := txCur.Delete(kv.EncodeTxID(body.BaseTxId + uint64(i))); err != nil {
				return err
			}
		}
		if err := bodyCur.DeleteCurrent(); err != nil {
			return err
		}
		k, v, err = bodyCur.Prev()
		if err != nil {
			return err
		}
	}
	return nil
}
