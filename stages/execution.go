package stages

import (
	"context"

	"github.com/ledgerwatch/log/v3"

	"github.com/zsluedem/akula-go/kv"
	"github.com/zsluedem/akula-go/stagedsync"
)

// ExecutionID names the block-execution stage.
const ExecutionID stagedsync.StageID = "Execution"

// BlockExecutor executes one block's transactions against the current
// state and returns the resulting state root (or any execution
// error). EVM internals are explicitly out of scope (spec.md §1
// Non-goals), so Execution depends on an injected BlockExecutor
// rather than running an EVM itself.
type BlockExecutor interface {
	ExecuteBlock(ctx context.Context, tx kv.RwTx, blockKey kv.BlockKey, body kv.BodyForStorage) error
}

// ExecutionCfg adds a batch-size cap on top of Cfg: Execution commits
// after processing BatchSize blocks even if Cfg's own buffering
// factor would allow more, since block execution is far more
// expensive per entry than a convert stage's copy.
type ExecutionCfg struct {
	Cfg
	BatchSize int
}

// NewExecution builds the Execution stage: for every block body not
// yet executed, run executor against it, in order, committing every
// BatchSize blocks.
func NewExecution(executor BlockExecutor, cfg ExecutionCfg, logger log.Logger) *stagedsync.Stage {
	if logger == nil {
		logger = log.Root()
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	return &stagedsync.Stage{
		ID:          ExecutionID,
		Description: "execute blocks against current state",
		Execute: func(ctx context.Context, tx kv.RwTx, input stagedsync.StageInput) (stagedsync.ExecOutput, error) {
			c, err := tx.Cursor(kv.BlockBody)
			if err != nil {
				return stagedsync.ExecOutput{}, err
			}
			defer c.Close()

			var highest kv.BlockNumber
			k, v, err := c.Seek(kv.EncodeBlockSeekKey(input.Stage.BlockNumber + 1))
			if err != nil {
				return stagedsync.ExecOutput{}, err
			}
			processed := 0
			for k != nil {
				blockKey, err := kv.DecodeBlockKey(k)
				if err != nil {
					return stagedsync.ExecOutput{}, err
				}
				body, err := kv.DecodeBodyForStorage(v)
				if err != nil {
					return stagedsync.ExecOutput{}, err
				}
				if err := executor.ExecuteBlock(ctx, tx, blockKey, body); err != nil {
					return stagedsync.ExecOutput{}, err
				}
				if blockKey.Number > highest {
					highest = blockKey.Number
				}
				processed++
				if processed >= batchSize {
					logger.Info("blocks executed", "to", highest)
					return stagedsync.ExecOutput{Progress: highest, Done: false, MustCommit: true}, nil
				}
				k, v, err = c.Next()
				if err != nil {
					return stagedsync.ExecOutput{}, err
				}
			}
			if highest < input.Stage.BlockNumber {
				highest = input.Stage.BlockNumber
			}
			return stagedsync.ExecOutput{Progress: highest, Done: true, MustCommit: true}, nil
		},
		Unwind: func(ctx context.Context, tx kv.RwTx, input stagedsync.UnwindInput) error {
			// State rewind on unwind is the executor's responsibility
			// (state/trie internals are out of scope here); this stage
			// only tracks progress.
			return nil
		},
	}
}
