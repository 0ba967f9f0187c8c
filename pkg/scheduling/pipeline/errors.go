package pipeline

import (
	"errors"
	"fmt"
	"time"

	bferrors "github.com/vnykmshr/batchflow/pkg/common/errors"
)

// ErrStagePanic is the cause of a TaskError raised by a panicking stage.
var ErrStagePanic = errors.New("pipeline stage panicked")

// TimeoutError is returned when a pooled execution does not finish within
// its timeout. It matches errors.ErrTimeout.
type TimeoutError struct {
	// Outstanding is the number of element tasks that had not finished.
	Outstanding int
	Total       int
	Timeout     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("pipeline timed out after %v: %d of %d element tasks not processed",
		e.Timeout, e.Outstanding, e.Total)
}

func (e *TimeoutError) Unwrap() error {
	return bferrors.ErrTimeout
}

// InterruptedError is returned when the caller's context ends while
// Execute is waiting. It matches errors.ErrInterrupted and the context error.
type InterruptedError struct {
	Outstanding int
	Total       int
	Cause       error
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("pipeline interrupted: %d of %d element tasks outstanding: %v",
		e.Outstanding, e.Total, e.Cause)
}

func (e *InterruptedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{bferrors.ErrInterrupted}
	}
	return []error{bferrors.ErrInterrupted, e.Cause}
}

// TaskError reports the stage failure that aborted an execution.
// It unwraps to the error returned by the stage.
type TaskError struct {
	// Index is the position of the failing element in the inputs.
	Index int

	// Stage is the position of the failing stage, Kind its type.
	Stage int
	Kind  string

	Err error

	// Completed counts elements that had succeeded when the execution
	// aborted; Outstanding counts those that had not finished.
	Completed   int
	Outstanding int
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("pipeline element %d failed at stage %d (%s): %v", e.Index, e.Stage, e.Kind, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}
