package stages

import (
	"context"

	"github.com/ledgerwatch/log/v3"

	"github.com/zsluedem/akula-go/kv"
	"github.com/zsluedem/akula-go/stagedsync"
)

// BlockHashesID names the stage that builds the hash-to-number
// inverse index out of the already-converted CanonicalHeader table.
const BlockHashesID stagedsync.StageID = "BlockHashes"

// NewBlockHashes builds the BlockHashes stage: for every canonical
// header not yet indexed, write HeaderNumber[hash] = number. This
// stage reads what ConvertCanonical already wrote; it has no foreign
// Source of its own.
func NewBlockHashes(logger log.Logger) *stagedsync.Stage {
	if logger == nil {
		logger = log.Root()
	}
	return &stagedsync.Stage{
		ID:          BlockHashesID,
		Description: "build the block-hash to block-number inverse index",
		Execute: func(ctx context.Context, tx kv.RwTx, input stagedsync.StageInput) (stagedsync.ExecOutput, error) {
			c, err := tx.Cursor(kv.HeaderCanonical)
			if err != nil {
				return stagedsync.ExecOutput{}, err
			}
			defer c.Close()

			var highest kv.BlockNumber
			k, v, err := c.Seek(kv.EncodeCanonicalKey(input.Stage.BlockNumber + 1))
			if err != nil {
				return stagedsync.ExecOutput{}, err
			}
			for k != nil {
				n, err := kv.DecodeBlockNumber(k)
				if err != nil {
					return stagedsync.ExecOutput{}, err
				}
				if err := tx.Put(kv.HeaderNumber, v, k); err != nil {
					return stagedsync.ExecOutput{}, err
				}
				if n > highest {
					highest = n
				}
				k, v, err = c.Next()
				if err != nil {
					return stagedsync.ExecOutput{}, err
				}
			}
			if highest < input.Stage.BlockNumber {
				highest = input.Stage.BlockNumber
			}
			logger.Info("block hashes indexed", "to", highest)
			return stagedsync.ExecOutput{Progress: highest, Done: true, MustCommit: true}, nil
		},
		Unwind: func(ctx context.Context, tx kv.RwTx, input stagedsync.UnwindInput) error {
			c, err := tx.RwCursor(kv.HeaderNumber)
			if err != nil {
				return err
			}
			defer c.Close()
			// HeaderNumber is keyed by hash, not block number, so it
			// cannot be walked in block-number order; instead rebuild
			// it by dropping every entry whose value (the block number)
			// exceeds unwindTo.
			k, v, err := c.First()
			if err != nil {
				return err
			}
			for k != nil {
				n, err := kv.DecodeBlockNumber(v)
				if err != nil {
					return err
				}
				if n > input.Stage.UnwindTo {
					if err := c.DeleteCurrent(); err != nil {
						return err
					}
				}
				k, v, err = c.Next()
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
}
