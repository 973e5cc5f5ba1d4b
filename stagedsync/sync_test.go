package stagedsync

import (
	"context"
	"testing"

	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"

	"github.com/zsluedem/akula-go/kv"
	"github.com/zsluedem/akula-go/kv/memdb"
)

// countingStage advances its own progress by one block per call and
// reports Done once it reaches target.
func countingStage(id StageID, target kv.BlockNumber) *Stage {
	return &Stage{
		ID:          id,
		Description: "test stage",
		Execute: func(ctx context.Context, tx kv.RwTx, input StageInput) (ExecOutput, error) {
			next := input.Stage.BlockNumber + 1
			return ExecOutput{Progress: next, Done: next >= target}, nil
		},
		Unwind: func(ctx context.Context, tx kv.RwTx, input UnwindInput) error {
			return nil
		},
	}
}

func TestForwardDriveReachesTarget(t *testing.T) {
	db := memdb.New(kv.ChaindataTablesCfg)
	sync := New([]*Stage{countingStage("A", 5), countingStage("B", 5)}, log.Root())

	require.NoError(t, sync.Run(context.Background(), db, true))

	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		pa, err := GetStageProgress(tx, "A")
		require.NoError(t, err)
		require.Equal(t, kv.BlockNumber(5), pa)
		pb, err := GetStageProgress(tx, "B")
		require.NoError(t, err)
		require.Equal(t, kv.BlockNumber(5), pb)
		return nil
	}))
}

func TestProgressMonotonicAcrossRuns(t *testing.T) {
	db := memdb.New(kv.ChaindataTablesCfg)
	sync := New([]*Stage{countingStage("A", 3)}, log.Root())
	require.NoError(t, sync.Run(context.Background(), db, true))

	// Running again with a stage whose target is lower than current
	// progress must never move progress backward outside an unwind.
	sync2 := New([]*Stage{countingStage("A", 1)}, log.Root())
	require.NoError(t, sync2.Run(context.Background(), db, false))

	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		p, err := GetStageProgress(tx, "A")
		require.NoError(t, err)
		require.GreaterOrEqual(t, p, kv.BlockNumber(3))
		return nil
	}))
}

// seekStage mimics a real resumable stage: it only considers entries
// past its own current progress in a fixed upstream source and must
// floor its reported progress there, not at zero, when nothing new
// has arrived since the last run.
func seekStage(id StageID, source []kv.BlockNumber) *Stage {
	return &Stage{
		ID:          id,
		Description: "test stage",
		Execute: func(ctx context.Context, tx kv.RwTx, input StageInput) (ExecOutput, error) {
			highest := input.Stage.BlockNumber
			for _, n := range source {
				if n > input.Stage.BlockNumber && n > highest {
					highest = n
				}
			}
			return ExecOutput{Progress: highest, Done: true, MustCommit: true}, nil
		},
		Unwind: func(ctx context.Context, tx kv.RwTx, input UnwindInput) error {
			return nil
		},
	}
}

func TestProgressUnchangedWhenSourceHasNoNewData(t *testing.T) {
	db := memdb.New(kv.ChaindataTablesCfg)
	source := []kv.BlockNumber{1, 2, 3}

	require.NoError(t, New([]*Stage{seekStage("A", source)}, log.Root()).Run(context.Background(), db, true))

	// Run again against the exact same upstream source: nothing new
	// has arrived, so progress must stay at 3, not reset to 0.
	require.NoError(t, New([]*Stage{seekStage("A", source)}, log.Root()).Run(context.Background(), db, false))

	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		p, err := GetStageProgress(tx, "A")
		require.NoError(t, err)
		require.Equal(t, kv.BlockNumber(3), p)
		return nil
	}))
}

func TestUnwindRequestTriggersReverseSweep(t *testing.T) {
	db := memdb.New(kv.ChaindataTablesCfg)

	var unwoundA, unwoundB bool
	stageA := &Stage{
		ID: "A",
		Execute: func(ctx context.Context, tx kv.RwTx, input StageInput) (ExecOutput, error) {
			return ExecOutput{Progress: 10, Done: true}, nil
		},
		Unwind: func(ctx context.Context, tx kv.RwTx, input UnwindInput) error {
			unwoundA = true
			require.Equal(t, kv.BlockNumber(2), input.Stage.UnwindTo)
			return nil
		},
	}
	stageB := &Stage{
		ID: "B",
		Execute: func(ctx context.Context, tx kv.RwTx, input StageInput) (ExecOutput, error) {
			return ExecOutput{Unwind: true, UnwindTo: 2, Reason: "reorg detected"}, nil
		},
		Unwind: func(ctx context.Context, tx kv.RwTx, input UnwindInput) error {
			unwoundB = true
			return nil
		},
	}
	stageC := &Stage{
		ID: "C",
		Execute: func(ctx context.Context, tx kv.RwTx, input StageInput) (ExecOutput, error) {
			t.Fatal("stage C must not run after B requested an unwind")
			return ExecOutput{}, nil
		},
	}

	sync := New([]*Stage{stageA, stageB, stageC}, log.Root())
	require.NoError(t, sync.Run(context.Background(), db, true))

	require.True(t, unwoundA, "stage A ran before B and must be unwound")
	require.False(t, unwoundB, "stage B had made no forward progress to unwind (progress 0 <= target)")

	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		pa, err := GetStageProgress(tx, "A")
		require.NoError(t, err)
		require.Equal(t, kv.BlockNumber(2), pa)
		return nil
	}))
}

func TestEmptyPipelineIsNoop(t *testing.T) {
	db := memdb.New(kv.ChaindataTablesCfg)
	sync := New(nil, log.Root())
	require.NoError(t, sync.Run(context.Background(), db, true))
}
