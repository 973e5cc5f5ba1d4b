package stages

import (
	"context"

	"github.com/ledgerwatch/log/v3"

	"github.com/zsluedem/akula-go/kv"
	"github.com/zsluedem/akula-go/stagedsync"
)

// TerminatingStageID names the sentinel final stage.
const TerminatingStageID stagedsync.StageID = "TerminatingStage"

// NewTerminatingStage builds the final stage of a one-shot import
// pipeline: it reports the pipeline complete and invokes onComplete,
// rather than calling os.Exit itself, so callers (tests, the CLI, a
// long-running daemon) each decide what "done" means for them.
func NewTerminatingStage(onComplete func(), logger log.Logger) *stagedsync.Stage {
	if logger == nil {
		logger = log.Root()
	}
	return &stagedsync.Stage{
		ID:          TerminatingStageID,
		Description: "sync complete",
		Execute: func(ctx context.Context, tx kv.RwTx, input stagedsync.StageInput) (stagedsync.ExecOutput, error) {
			logger.Info("sync complete")
			if onComplete != nil {
				onComplete()
			}
			return stagedsync.ExecOutput{Progress: input.Stage.BlockNumber, Done: true, MustCommit: true}, nil
		},
		Unwind: func(ctx context.Context, tx kv.RwTx, input stagedsync.UnwindInput) error {
			return nil
		},
	}
}
