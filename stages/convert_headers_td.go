package stages

import (
	"context"

	"github.com/ledgerwatch/log/v3"

	"github.com/zsluedem/akula-go/kv"
	"github.com/zsluedem/akula-go/stagedsync"
)

// ConvertHeadersTDID names the stage bulk-copying the
// HeadersTotalDifficulty table.
const ConvertHeadersTDID stagedsync.StageID = "ConvertHeadersTD"

// NewConvertHeadersTD builds the ConvertHeadersTD stage: bulk-copy
// the HeadersTotalDifficulty table, keyed (BlockNumber,BlockHash),
// value a uint256 total difficulty.
func NewConvertHeadersTD(src Source, cfg Cfg, logger log.Logger) *stagedsync.Stage {
	return &stagedsync.Stage{
		ID:          ConvertHeadersTDID,
		Description: "bulk-copy header total-difficulty values from the source database",
		Execute: func(ctx context.Context, tx kv.RwTx, input stagedsync.StageInput) (stagedsync.ExecOutput, error) {
			seekKey := kv.EncodeBlockSeekKey(input.Stage.BlockNumber + 1)
			return ConvertTable(ctx, src, tx, kv.HeaderTDTable, func(k kv.BlockKey) kv.BlockNumber { return k.Number }, seekKey, input.Stage.BlockNumber, cfg, logger)
		},
		Unwind: func(ctx context.Context, tx kv.RwTx, input stagedsync.UnwindInput) error {
			return unwindBlockKeyedTable(tx, kv.HeaderTD, input.Stage.UnwindTo)
		},
	}
}
