// Package ledger talks to the SettlementLedger contract: it packs commit
// calldata for a signing collaborator, reads recorded commitments, waits for
// receipts and decodes the SettlementCommitted event.
//
// The package never signs anything. Submission goes through a SubmitFunc
// supplied by whoever holds the key.
package ledger
