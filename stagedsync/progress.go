package stagedsync

import (
	"github.com/zsluedem/akula-go/kv"
)

// GetStageProgress reads the highest block number id has processed.
// A missing entry means the stage has never run and progress is 0.
func GetStageProgress(tx kv.Getter, id StageID) (kv.BlockNumber, error) {
	v, err := tx.GetOne(kv.SyncStageProgress, []byte(id))
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	n, err := kv.DecodeBlockNumber(v)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// SaveStageProgress persists id's progress. Progress must never move
// backward outside of an explicit unwind (§3 invariant 4); callers are
// responsible for upholding that, SaveStageProgress itself only writes.
func SaveStageProgress(tx kv.Putter, id StageID, n kv.BlockNumber) error {
	return tx.Put(kv.SyncStageProgress, []byte(id), kv.EncodeBlockNumber(n))
}
