package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrSubmission marks a failed or rejected commit. The build result is
	// unaffected and the same result can be submitted again.
	ErrSubmission = errors.New("ledger submission failed")

	// ErrUnavailable is returned when the ledger cannot be read.
	ErrUnavailable = errors.New("ledger unavailable")

	// ErrReverted is returned when a mined transaction has a failed status.
	ErrReverted = errors.New("transaction reverted")

	// ErrNoSettlementEvent is returned when a receipt carries no
	// SettlementCommitted log.
	ErrNoSettlementEvent = errors.New("no SettlementCommitted event in receipt")

	// ErrWrongChain is returned when the backend serves a different chain
	// than configured.
	ErrWrongChain = errors.New("connected to the wrong chain")
)

// SubmissionError wraps a failure of one submission step.
type SubmissionError struct {
	Op  string
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrSubmission, e.Op, e.Err)
}

// Unwrap exposes both ErrSubmission and the underlying cause.
func (e *SubmissionError) Unwrap() []error {
	return []error{ErrSubmission, e.Err}
}
