package stagedsync

import (
	"context"
	"fmt"

	"github.com/ledgerwatch/log/v3"

	"github.com/zsluedem/akula-go/kv"
)

// unwindState is the engine's internal state machine: Forward while
// idle, Unwinding(to) once a stage has requested a rewind. The engine
// never runs forward and unwind work concurrently — it finishes the
// unwind sweep (every stage, reverse order) before returning to
// Forward.
type unwindState struct {
	active bool
	to     kv.BlockNumber
	reason string
}

// Sync drives an ordered list of stages forward to the chain head, or
// backward to an unwind target, committing progress between steps.
type Sync struct {
	stages  []*Stage
	logger  log.Logger
	unwind  unwindState
	current int
}

// New builds a Sync engine over stages, run in the given order
// forward and in reverse order when unwinding.
func New(stages []*Stage, logger log.Logger) *Sync {
	if logger == nil {
		logger = log.Root()
	}
	return &Sync{stages: stages, logger: logger}
}

// UnwindTo implements Unwinder: it records a pending unwind to target.
// runStageForward calls it when a stage's ExecOutput has Unwind set,
// and the sweep that follows reads the target from it. Run does not
// check for a request recorded before it starts.
func (s *Sync) UnwindTo(target kv.BlockNumber, reason string) {
	s.unwind = unwindState{active: true, to: target, reason: reason}
}

// IsUnwinding reports whether the engine has a pending unwind request.
func (s *Sync) IsUnwinding() bool { return s.unwind.active }

// Run drives every stage forward once, in order, holding a single
// read-write transaction across the entire pass: every stage in this
// cycle shares it, and it is committed only when a stage asks for an
// early commit via ExecOutput.MustCommit, or once after the last
// stage has run. This mirrors a real staged-sync cycle, which never
// round-trips to the store once per stage step. If any stage requests
// an unwind mid-pass, Run stops advancing further stages and performs
// the full unwind sweep (against the same transaction) before
// returning, so the caller always sees a consistent Forward state
// again on return.
func (s *Sync) Run(ctx context.Context, db kv.RwDB, firstCycle bool) error {
	tx, err := db.BeginRw(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	for i, stage := range s.stages {
		s.current = i

		var requestedUnwind bool
		tx, requestedUnwind, err = s.runStageForward(ctx, db, tx, stage)
		if err != nil {
			return err
		}
		if requestedUnwind {
			tx, err = s.runUnwindSweep(ctx, tx, len(s.stages)-1)
			if err != nil {
				return err
			}
			s.unwind = unwindState{}
			return tx.Commit()
		}
	}
	return tx.Commit()
}

// runStageForward repeatedly calls stage.Execute against tx until the
// stage reports Done or requests an unwind. A MustCommit result
// commits tx and opens a fresh one before the loop continues (or
// before returning to the caller for the next stage); otherwise tx is
// carried forward untouched, uncommitted, for the next Execute call
// or the next stage. The returned kv.RwTx is always the one the
// caller should use next — callers must not keep using the tx they
// passed in once this returns.
func (s *Sync) runStageForward(ctx context.Context, db kv.RwDB, tx kv.RwTx, stage *Stage) (kv.RwTx, bool, error) {
	for {
		progress, err := GetStageProgress(tx, stage.ID)
		if err != nil {
			tx.Rollback()
			return tx, false, &StageFailedError{Stage: stage.ID, Cause: err}
		}

		input := StageInput{Stage: &StageState{ID: stage.ID, BlockNumber: progress}}
		out, err := stage.Execute(ctx, tx, input)
		if err != nil {
			tx.Rollback()
			return tx, false, &StageFailedError{Stage: stage.ID, Cause: err}
		}

		if out.Unwind {
			s.UnwindTo(out.UnwindTo, out.Reason)
			s.logger.Warn("stage requested unwind", "stage", stage.ID, "to", out.UnwindTo, "reason", out.Reason)
			return tx, true, nil
		}

		if err := SaveStageProgress(tx, stage.ID, out.Progress); err != nil {
			tx.Rollback()
			return tx, false, &StageFailedError{Stage: stage.ID, Cause: err}
		}
		s.logger.Info("stage progress", "stage", stage.ID, "block", out.Progress, "done", out.Done)

		if out.MustCommit {
			if err := tx.Commit(); err != nil {
				return tx, false, &StageFailedError{Stage: stage.ID, Cause: err}
			}
			tx, err = db.BeginRw(ctx)
			if err != nil {
				return tx, false, err
			}
		}

		if out.Done {
			return tx, false, nil
		}
	}
}

// runUnwindSweep unwinds every stage up to and including upToIdx, in
// reverse order, to the pending unwind target, all against the same
// tx the forward pass was using. Run passes the last stage's index, so
// stages after the one that requested the unwind are included too:
// they may hold progress past the target from earlier passes. Stages
// whose progress is already at or below the target are skipped.
func (s *Sync) runUnwindSweep(ctx context.Context, tx kv.RwTx, upToIdx int) (kv.RwTx, error) {
	to := s.unwind.to
	for i := upToIdx; i >= 0; i-- {
		stage := s.stages[i]

		progress, err := GetStageProgress(tx, stage.ID)
		if err != nil {
			tx.Rollback()
			return tx, &StageFailedError{Stage: stage.ID, Cause: err}
		}
		if progress <= to {
			continue
		}

		input := UnwindInput{Stage: &UnwindState{ID: stage.ID, UnwindTo: to, CurrentBlockNumber: progress}}
		if err := stage.Unwind(ctx, tx, input); err != nil {
			tx.Rollback()
			return tx, &StageFailedError{Stage: stage.ID, Cause: fmt.Errorf("unwind: %w", err)}
		}
		if err := SaveStageProgress(tx, stage.ID, to); err != nil {
			tx.Rollback()
			return tx, &StageFailedError{Stage: stage.ID, Cause: err}
		}
		s.logger.Info("stage unwound", "stage", stage.ID, "to", to)
	}
	return tx, nil
}
