package commitment

import (
	"bytes"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	ErrUncommitted          = errors.New("no commitment recorded")
	ErrVerificationMismatch = errors.New("settlement hash does not match the recorded commitment")
)

// Outcome is the result of comparing a recomputed hash with a recorded one.
type Outcome int

const (
	// Uncommitted means the ledger holds nothing for the settlement.
	Uncommitted Outcome = iota
	// Matched means the recomputed hash equals the recorded one.
	Matched
	// Mismatched means a commitment exists but its hash differs.
	Mismatched
)

func (o Outcome) String() string {
	switch o {
	case Uncommitted:
		return "uncommitted"
	case Matched:
		return "matched"
	case Mismatched:
		return "mismatched"
	}
	return "unknown"
}

// Err maps the outcome onto an error: nil for Matched.
func (o Outcome) Err() error {
	switch o {
	case Matched:
		return nil
	case Uncommitted:
		return ErrUncommitted
	}
	return ErrVerificationMismatch
}

// Verify compares a freshly computed hash with a recorded hash given as hex.
// An empty recorded value means nothing was committed. Hex digits compare
// case-insensitively; anything that is not a 32-byte hex value mismatches.
func Verify(fresh common.Hash, recorded string) Outcome {
	recorded = strings.TrimSpace(recorded)
	if recorded == "" {
		return Uncommitted
	}
	if !strings.HasPrefix(recorded, "0x") && !strings.HasPrefix(recorded, "0X") {
		recorded = "0x" + recorded
	}
	raw, err := hexutil.Decode(strings.ToLower(recorded))
	if err != nil || len(raw) != common.HashLength {
		return Mismatched
	}
	if bytes.Equal(raw, fresh.Bytes()) {
		return Matched
	}
	return Mismatched
}

// VerifyRecord compares a freshly computed hash with a ledger record.
// A missing record, or one with a zero committer, is Uncommitted.
func VerifyRecord(fresh common.Hash, record *models.CommitmentRecord) Outcome {
	if !record.Committed() {
		return Uncommitted
	}
	if record.SettlementHash == fresh {
		return Matched
	}
	return Mismatched
}
