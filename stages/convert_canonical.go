package stages

import (
	"context"

	"github.com/ledgerwatch/log/v3"

	"github.com/zsluedem/akula-go/kv"
	"github.com/zsluedem/akula-go/stagedsync"
)

// ConvertCanonicalID names the stage bulk-copying the CanonicalHeader
// table.
const ConvertCanonicalID stagedsync.StageID = "ConvertCanonical"

// NewConvertCanonical builds the ConvertCanonical stage: bulk-copy the
// CanonicalHeader table, keyed by bare block number, value the
// canonical hash at that height.
func NewConvertCanonical(src Source, cfg Cfg, logger log.Logger) *stagedsync.Stage {
	return &stagedsync.Stage{
		ID:          ConvertCanonicalID,
		Description: "bulk-copy the canonical header index from the source database",
		Execute: func(ctx context.Context, tx kv.RwTx, input stagedsync.StageInput) (stagedsync.ExecOutput, error) {
			seekKey := kv.EncodeBlockSeekKey(input.Stage.BlockNumber + 1)
			return ConvertTable(ctx, src, tx, kv.CanonicalHeaderTable, func(n kv.BlockNumber) kv.BlockNumber { return n }, seekKey, input.Stage.BlockNumber, cfg, logger)
		},
		Unwind: func(ctx context.Context, tx kv.RwTx, input stagedsync.UnwindInput) error {
			return unwindBlockNumberKeyedTable(tx, kv.HeaderCanonical, input.Stage.UnwindTo)
		},
	}
}
