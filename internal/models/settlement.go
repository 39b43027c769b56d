package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SettlementRecord is the local, best-effort record of a settlement that was
// committed to the external ledger.
type SettlementRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string

	// GroupID is the group the settlement was built from.
	GroupID string

	// SettlementID is the identifier assigned by the ledger (0x-prefixed bytes32).
	SettlementID string

	// TxHash is the commit transaction hash.
	TxHash string

	// SettlementHash is the content hash that was committed.
	SettlementHash string

	// CommittedBy is the address that submitted the commit.
	CommittedBy string

	// CreatedAt is the Unix timestamp when the record was saved.
	CreatedAt int64
}

// CommitmentRecord is what the external ledger stores for a settlement id.
type CommitmentRecord struct {
	SettlementID   common.Hash
	SettlementHash common.Hash
	Currency       string
	TotalCents     *big.Int
	Participants   []common.Address
	CommittedBy    common.Address
}

// Committed reports whether the ledger actually holds a commitment.
// A zero CommittedBy means nothing was committed under that id.
func (r *CommitmentRecord) Committed() bool {
	return r != nil && r.CommittedBy != (common.Address{})
}
