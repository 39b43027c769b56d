package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/canonical"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/settlement"
	"github.com/mmynk/splitledger/internal/storage"
)

// errInvalidArgument marks malformed request fields.
var errInvalidArgument = errors.New("invalid argument")

// connectError maps domain errors onto Connect codes.
func connectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	code := connect.CodeInternal
	switch {
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, ledger.ErrNoSettlementEvent):
		code = connect.CodeNotFound
	case errors.Is(err, errInvalidArgument),
		errors.Is(err, models.ErrInvalidAddress),
		errors.Is(err, calculator.ErrInvalidExpense),
		errors.Is(err, calculator.ErrSharesMismatch),
		errors.Is(err, settlement.ErrNotCanonical):
		code = connect.CodeInvalidArgument
	case errors.Is(err, calculator.ErrUnbalancedLedger),
		errors.Is(err, storage.ErrMemberInUse),
		errors.Is(err, ledger.ErrNoLedgerAddress):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, ledger.ErrUnavailable),
		errors.Is(err, ledger.ErrWrongChain):
		code = connect.CodeUnavailable
	case errors.Is(err, ledger.ErrSubmission):
		code = connect.CodeAborted
	case errors.Is(err, canonical.ErrEncoding):
		code = connect.CodeInternal
	}
	return connect.NewError(code, err)
}
