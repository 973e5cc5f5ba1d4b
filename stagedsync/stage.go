// Package stagedsync implements the sequenced, checkpointed sync
// engine: an ordered list of stages, each executed forward to the
// chain head or unwound backward to a target block, with progress
// persisted per stage between runs.
package stagedsync

import (
	"context"

	"github.com/zsluedem/akula-go/kv"
)

// StageID names a stage. Stage identifiers are stable strings, not an
// enum, so new stages can be added without a central registry edit.
type StageID string

// StageState is the progress snapshot handed to a stage's Execute
// function: how far this stage has gotten, for computing the range of
// work still to do.
type StageState struct {
	ID              StageID
	BlockNumber     kv.BlockNumber
}

// UnwindState is the progress snapshot handed to a stage's Unwind
// function: where it currently stands and how far back to unwind.
type UnwindState struct {
	ID          StageID
	UnwindTo    kv.BlockNumber
	CurrentBlockNumber kv.BlockNumber
}

// Unwinder records a pending unwind request. Only the engine
// implements this; stages are not handed one and instead request an
// unwind by returning an ExecOutput with Unwind set (e.g. on detecting
// a reorg they cannot resolve forward). Stages never unwind each other
// directly.
type Unwinder interface {
	UnwindTo(target kv.BlockNumber, reason string)
}

// ExecOutput is the tagged result of a forward Execute call. Exactly
// one of the two shapes applies: either the stage made (possibly
// partial) forward progress, or it discovered it must unwind. Go has
// no sum type, so the discriminant is explicit (Unwind) rather than
// inferred from which fields are set.
type ExecOutput struct {
	// Progress is the highest block number this stage has now fully
	// processed, valid when Unwind is false.
	Progress kv.BlockNumber
	// Done reports whether the stage has caught up to the input's
	// target; false means Execute should be called again before the
	// engine advances to the next stage.
	Done bool
	// MustCommit requests the engine commit its single pass-wide
	// transaction right now, before calling Execute again or moving on
	// to the next stage, instead of waiting for the pass to finish
	// (used to bound memory/WAL growth during a long-running stage,
	// per the flush-deadline/commit-threshold mechanism of the convert
	// stages). When false, the engine carries the same transaction
	// into the next Execute call or the next stage uncommitted.
	MustCommit bool

	// Unwind, when true, means the stage is requesting an unwind to
	// UnwindTo rather than reporting forward progress; Progress and
	// Done are meaningless in this case.
	Unwind   bool
	UnwindTo kv.BlockNumber
	Reason   string
}

// StageInput is what the engine hands a stage's Execute function.
type StageInput struct {
	Stage *StageState
	// ToBlock is an upper block bound passed through to the stage, 0
	// meaning no bound. The engine leaves it 0, and none of the stages
	// in this module read it.
	ToBlock kv.BlockNumber
}

// UnwindInput is what the engine hands a stage's Unwind function.
type UnwindInput struct {
	Stage  *UnwindState
}

// ExecuteFunc runs a stage forward.
type ExecuteFunc func(ctx context.Context, tx kv.RwTx, input StageInput) (ExecOutput, error)

// UnwindFunc runs a stage backward to UnwindInput.Stage.UnwindTo.
type UnwindFunc func(ctx context.Context, tx kv.RwTx, input UnwindInput) error

// Stage is one step of the pipeline: an identity, a human-readable
// description, and the forward/backward functions that do its work.
type Stage struct {
	ID          StageID
	Description string
	Execute     ExecuteFunc
	Unwind      UnwindFunc
}
