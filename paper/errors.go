package paper

import (
	"errors"
	"fmt"
)

// ErrEmptyBank means the course has no active questions at all. This is the
// one failure no fallback can absorb; generation aborts immediately.
var ErrEmptyBank = errors.New("question bank for this course is empty")

// ErrInvariantViolation means a selection failed the assembler's final
// checks (duplicate question ids or ids missing from the snapshot). The
// fallback engine cannot produce such a selection; the AI path can.
var ErrInvariantViolation = errors.New("selection violates paper invariants")

// Recoverable failure reasons for the AI path.
const (
	ReasonQuota         = "quota_exceeded"
	ReasonTransport     = "transport_error"
	ReasonTimeout       = "timeout"
	ReasonInvalidOutput = "invalid_output"
)

// RecoverableError tags an AI-path failure that the orchestrator absorbs by
// switching to the fallback engine. It never surfaces to callers.
type RecoverableError struct {
	Reason string
	Err    error
}

func (e *RecoverableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("recoverable generation failure (%s)", e.Reason)
	}
	return fmt.Sprintf("recoverable generation failure (%s): %v", e.Reason, e.Err)
}

func (e *RecoverableError) Unwrap() error { return e.Err }
