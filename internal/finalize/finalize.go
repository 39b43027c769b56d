// Package finalize runs the commit and proof workflows: build a settlement,
// hand it to a signing collaborator, wait for the ledger to confirm it, keep
// a local record, and later prove a commitment against fresh group data.
package finalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mmynk/splitledger/internal/commitment"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/settlement"
	"github.com/mmynk/splitledger/internal/storage"
)

// Status is where a settlement stands in the commit workflow.
type Status string

const (
	// StatusReady means the settlement has transfers and can be submitted.
	StatusReady Status = "ready"
	// StatusNothingToSettle means there are no transfers to commit.
	StatusNothingToSettle Status = "nothing_to_settle"
	// StatusSubmitted means the transaction was sent but no settlement id is
	// known yet.
	StatusSubmitted Status = "submitted"
	// StatusConfirmed means the ledger emitted a settlement id.
	StatusConfirmed Status = "confirmed"
	// StatusFailed means submission was rejected or the transaction reverted.
	StatusFailed Status = "failed"
)

// Ledger is the part of *ledger.Client the workflows use.
type Ledger interface {
	Config() ledger.Config
	Commit(ctx context.Context, submit ledger.SubmitFunc, args ledger.CommitArgs) (common.Hash, error)
	SettlementID(ctx context.Context, txHash common.Hash) (common.Hash, error)
	GetSettlement(ctx context.Context, id common.Hash) (*models.CommitmentRecord, error)
}

// Finalizer wires the settlement core to a ledger and a record store.
type Finalizer struct {
	ledger  Ledger
	records storage.RecordStore
	metrics *metrics.Metrics
}

// New creates a Finalizer. records and m may be nil.
func New(l Ledger, records storage.RecordStore, m *metrics.Metrics) *Finalizer {
	return &Finalizer{ledger: l, records: records, metrics: m}
}

// Prepared is a built settlement ready for submission. Submit it as many
// times as needed; it is never rebuilt.
type Prepared struct {
	GroupID        string
	Result         *settlement.Result
	Status         Status
	MissingWallets []models.Member
}

// Commit is the outcome of one submission attempt.
type Commit struct {
	Status       Status
	TxHash       common.Hash
	TxURL        string
	SettlementID common.Hash
}

// Proof is the result of verifying a recorded commitment.
type Proof struct {
	Outcome  commitment.Outcome
	Record   *models.CommitmentRecord
	Computed common.Hash
	Result   *settlement.Result
}

// Prepare builds the settlement for group.
func (f *Finalizer) Prepare(group models.Group) (*Prepared, error) {
	start := time.Now()
	result, err := settlement.Build(group)
	if err != nil {
		f.metrics.ObserveBuild("error", 0, time.Since(start))
		return nil, err
	}

	status := StatusReady
	label := "ok"
	if result.Empty() {
		status = StatusNothingToSettle
		label = "empty"
	}
	f.metrics.ObserveBuild(label, len(result.Document.Transfers), time.Since(start))

	return &Prepared{
		GroupID:        group.ID,
		Result:         result,
		Status:         status,
		MissingWallets: settlement.MissingWallets(group),
	}, nil
}

// Submit commits a prepared settlement through submit, waits for the receipt
// and saves a local record. committedBy is the signer's address, used only
// for the local record.
//
// On ledger.ErrSubmission the caller may call Submit again with the same
// Prepared value. When the transaction was sent but the wait failed, the
// returned Commit carries StatusSubmitted and the transaction hash.
func (f *Finalizer) Submit(ctx context.Context, p *Prepared, submit ledger.SubmitFunc, committedBy common.Address) (*Commit, error) {
	if p.Status == StatusNothingToSettle {
		return &Commit{Status: StatusNothingToSettle}, nil
	}

	start := time.Now()
	cfg := f.ledger.Config()

	txHash, err := f.ledger.Commit(ctx, submit, ledger.NewCommitArgs(p.Result))
	if err != nil {
		f.metrics.ObserveCommit(string(StatusFailed), time.Since(start))
		slog.Error("Settlement submission failed", "group_id", p.GroupID, "error", err)
		return &Commit{Status: StatusFailed}, err
	}

	commit := &Commit{
		Status: StatusSubmitted,
		TxHash: txHash,
		TxURL:  cfg.TxURL(txHash),
	}

	id, err := f.ledger.SettlementID(ctx, txHash)
	switch {
	case errors.Is(err, ledger.ErrReverted):
		commit.Status = StatusFailed
		f.metrics.ObserveCommit(string(commit.Status), time.Since(start))
		return commit, err
	case errors.Is(err, ledger.ErrNoSettlementEvent):
		slog.Warn("Receipt has no settlement event", "group_id", p.GroupID, "tx_hash", txHash.Hex())
		f.metrics.ObserveCommit(string(commit.Status), time.Since(start))
		return commit, nil
	case err != nil:
		f.metrics.ObserveCommit(string(commit.Status), time.Since(start))
		return commit, err
	}

	commit.Status = StatusConfirmed
	commit.SettlementID = id
	f.metrics.ObserveCommit(string(commit.Status), time.Since(start))

	slog.Info("Settlement committed",
		"group_id", p.GroupID,
		"settlement_id", id.Hex(),
		"tx_hash", txHash.Hex(),
	)

	f.saveRecord(ctx, &models.SettlementRecord{
		GroupID:        p.GroupID,
		SettlementID:   id.Hex(),
		TxHash:         txHash.Hex(),
		SettlementHash: p.Result.Hash.Hex(),
		CommittedBy:    committedBy.Hex(),
	})

	return commit, nil
}

// Record saves the local record of a commit made outside Submit, such as one
// signed in a browser wallet. A zero settlementID is read from the
// transaction receipt. Unlike Submit, a store failure is returned.
func (f *Finalizer) Record(ctx context.Context, groupID string, txHash, settlementID, settlementHash common.Hash, committedBy common.Address) (*models.SettlementRecord, error) {
	if f.records == nil {
		return nil, errors.New("no record store configured")
	}
	if settlementID == (common.Hash{}) {
		id, err := f.ledger.SettlementID(ctx, txHash)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve settlement id for tx %s: %w", txHash.Hex(), err)
		}
		settlementID = id
	}

	record := &models.SettlementRecord{
		GroupID:        groupID,
		SettlementID:   settlementID.Hex(),
		TxHash:         txHash.Hex(),
		SettlementHash: settlementHash.Hex(),
		CommittedBy:    committedBy.Hex(),
	}
	if err := f.records.SaveRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save settlement record: %w", err)
	}
	return record, nil
}

// TxURL links to a transaction on the configured explorer.
func (f *Finalizer) TxURL(txHash common.Hash) string {
	return f.ledger.Config().TxURL(txHash)
}

// saveRecord stores the advisory record; failures are logged and dropped.
func (f *Finalizer) saveRecord(ctx context.Context, record *models.SettlementRecord) {
	if f.records == nil {
		return
	}
	if err := f.records.SaveRecord(ctx, record); err != nil {
		slog.Warn("Failed to save settlement record",
			"group_id", record.GroupID,
			"settlement_id", record.SettlementID,
			"error", err,
		)
	}
}

// Verify reads the commitment for settlementID and checks it against a fresh
// build of group. A mismatch is reported in the Proof, not as an error.
func (f *Finalizer) Verify(ctx context.Context, group models.Group, settlementID common.Hash) (*Proof, error) {
	record, err := f.ledger.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, fmt.Errorf("failed to read settlement %s: %w", settlementID.Hex(), err)
	}

	result, err := settlement.Build(group)
	if err != nil {
		return nil, err
	}

	outcome := commitment.VerifyRecord(result.Hash, record)
	f.metrics.ObserveVerification(outcome.String())

	slog.Info("Settlement verified",
		"group_id", group.ID,
		"settlement_id", settlementID.Hex(),
		"outcome", outcome.String(),
	)

	return &Proof{
		Outcome:  outcome,
		Record:   record,
		Computed: result.Hash,
		Result:   result,
	}, nil
}

// VerifyTx resolves the settlement id from a commit transaction and verifies
// it. It is used when only the transaction hash is known.
func (f *Finalizer) VerifyTx(ctx context.Context, group models.Group, txHash common.Hash) (*Proof, error) {
	id, err := f.ledger.SettlementID(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve settlement id for tx %s: %w", txHash.Hex(), err)
	}
	return f.Verify(ctx, group, id)
}
