package stagedsync

import "fmt"

// StageFailedError wraps an error a stage's Execute/Unwind function
// returned, recording which stage it came from. It is a genuine
// failure — unlike an unwind request, which is a control signal
// carried inside ExecOutput, never as an error.
type StageFailedError struct {
	Stage StageID
	Cause error
}

func (e *StageFailedError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Cause)
}

func (e *StageFailedError) Unwrap() error { return e.Cause }
