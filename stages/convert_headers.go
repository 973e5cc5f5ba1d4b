package stages

import (
	"context"

	"github.com/ledgerwatch/log/v3"

	"github.com/zsluedem/akula-go/kv"
	"github.com/zsluedem/akula-go/stagedsync"
)

// ConvertHeadersID names the stage bulk-copying the Header table.
const ConvertHeadersID stagedsync.StageID = "ConvertHeaders"

// NewConvertHeaders builds the ConvertHeaders stage: bulk-copy the
// Header table from src, keyed (BlockNumber,BlockHash), value an
// opaque RLP header blob passed through unchanged.
func NewConvertHeaders(src Source, cfg Cfg, logger log.Logger) *stagedsync.Stage {
	return &stagedsync.Stage{
		ID:          ConvertHeadersID,
		Description: "bulk-copy headers from the source database",
		Execute: func(ctx context.Context, tx kv.RwTx, input stagedsync.StageInput) (stagedsync.ExecOutput, error) {
			seekKey := kv.EncodeBlockSeekKey(input.Stage.BlockNumber + 1)
			return ConvertTable(ctx, src, tx, kv.HeaderTable, func(k kv.BlockKey) kv.BlockNumber { return k.Number }, seekKey, input.Stage.BlockNumber, cfg, logger)
		},
		Unwind: func(ctx context.Context, tx kv.RwTx, input stagedsync.UnwindInput) error {
			return unwindBlockKeyedTable(tx, kv.Header, input.Stage.UnwindTo)
		},
	}
}
