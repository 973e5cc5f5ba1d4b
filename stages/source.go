package stages

import (
	"context"

	"github.com/zsluedem/akula-go/kv"
)

// Source is the foreign (Erigon) database a convert stage bulk-reads
// from. It is read-only and outlives any single stage run: the same
// Source is reused across every convert stage in a pipeline, since
// they all read different tables out of the same foreign chaindata.
type Source interface {
	BeginRo(ctx context.Context) (kv.Tx, error)
}

// sourceTx opens a read transaction against src, mirroring the
// `erigon_tx = db.begin()` pattern the original toolbox uses once per
// convert-stage invocation. It does not close the transaction; each
// caller defers its Rollback.
func sourceTx(ctx context.Context, src Source) (kv.Tx, error) {
	return src.BeginRo(ctx)
}
