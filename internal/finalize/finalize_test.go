package finalize

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/commitment"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
)

var (
	signer   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	txHash   = common.HexToHash("0xabc")
	settleID = common.HexToHash("0x0101")
)

type fakeLedger struct {
	commitErr  error
	idErr      error
	record     *models.CommitmentRecord
	readErr    error
	commits    []ledger.CommitArgs
	resolvedTx []common.Hash
}

func (f *fakeLedger) Config() ledger.Config {
	cfg := ledger.DefaultConfig()
	cfg.LedgerAddress = common.HexToAddress("0xaa")
	return cfg
}

func (f *fakeLedger) Commit(ctx context.Context, submit ledger.SubmitFunc, args ledger.CommitArgs) (common.Hash, error) {
	f.commits = append(f.commits, args)
	if f.commitErr != nil {
		return common.Hash{}, &ledger.SubmissionError{Op: "submit", Err: f.commitErr}
	}
	return txHash, nil
}

func (f *fakeLedger) SettlementID(ctx context.Context, tx common.Hash) (common.Hash, error) {
	f.resolvedTx = append(f.resolvedTx, tx)
	return settleID, f.idErr
}

func (f *fakeLedger) GetSettlement(ctx context.Context, id common.Hash) (*models.CommitmentRecord, error) {
	return f.record, f.readErr
}

type fakeRecords struct {
	saved []*models.SettlementRecord
	err   error
}

func (f *fakeRecords) SaveRecord(ctx context.Context, r *models.SettlementRecord) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, r)
	return nil
}

func (f *fakeRecords) ListRecords(ctx context.Context, groupID string) ([]*models.SettlementRecord, error) {
	return f.saved, nil
}

func noopSubmit(ctx context.Context, to common.Address, calldata []byte) (common.Hash, error) {
	return txHash, nil
}

func tripGroup() models.Group {
	d := decimal.RequireFromString
	return models.Group{
		ID:   "g1",
		Name: "Trip",
		Members: []models.Member{
			{ID: "A", Name: "Alice", WalletAddress: "0x1111111111111111111111111111111111111111"},
			{ID: "B", Name: "Bob", WalletAddress: "0x2222222222222222222222222222222222222222"},
			{ID: "C", Name: "Carol", WalletAddress: "0x3333333333333333333333333333333333333333"},
		},
		Expenses: []models.Expense{{
			ID:      "e1",
			PayerID: "A",
			Amount:  d("30"),
			Shares: []models.ExpenseShare{
				{MemberID: "A", Amount: d("10")},
				{MemberID: "B", Amount: d("10")},
				{MemberID: "C", Amount: d("10")},
			},
		}},
	}
}

func TestPrepare(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	f := New(&fakeLedger{}, nil, m)

	p, err := f.Prepare(tripGroup())
	require.NoError(t, err)
	require.Equal(t, StatusReady, p.Status)
	require.Empty(t, p.MissingWallets)
	require.Equal(t, "0xc0c1943121d919aa2fddd6401828abc3f63644296f80aba9b66c9c1f07cc2103", p.Result.Hash.Hex())

	settled := tripGroup()
	settled.Expenses = nil
	p, err = f.Prepare(settled)
	require.NoError(t, err)
	require.Equal(t, StatusNothingToSettle, p.Status)

	require.Equal(t, 1.0, testutil.ToFloat64(m.SettlementsBuilt.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SettlementsBuilt.WithLabelValues("empty")))
}

func TestSubmit_Confirmed(t *testing.T) {
	l := &fakeLedger{}
	records := &fakeRecords{}
	f := New(l, records, nil)

	p, err := f.Prepare(tripGroup())
	require.NoError(t, err)

	commit, err := f.Submit(context.Background(), p, noopSubmit, signer)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, commit.Status)
	require.Equal(t, settleID, commit.SettlementID)
	require.Equal(t, "https://amoy.polygonscan.com/tx/"+txHash.Hex(), commit.TxURL)

	require.Len(t, l.commits, 1)
	require.Equal(t, p.Result.Hash, l.commits[0].SettlementHash)
	require.Equal(t, int64(2000), l.commits[0].TotalCents)

	require.Len(t, records.saved, 1)
	require.Equal(t, "g1", records.saved[0].GroupID)
	require.Equal(t, settleID.Hex(), records.saved[0].SettlementID)
	require.Equal(t, p.Result.Hash.Hex(), records.saved[0].SettlementHash)
	require.Equal(t, signer.Hex(), records.saved[0].CommittedBy)
}

func TestSubmit_RetryUsesSameResult(t *testing.T) {
	l := &fakeLedger{commitErr: errors.New("user rejected")}
	f := New(l, nil, nil)

	p, err := f.Prepare(tripGroup())
	require.NoError(t, err)

	commit, err := f.Submit(context.Background(), p, noopSubmit, signer)
	require.ErrorIs(t, err, ledger.ErrSubmission)
	require.Equal(t, StatusFailed, commit.Status)

	l.commitErr = nil
	commit, err = f.Submit(context.Background(), p, noopSubmit, signer)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, commit.Status)

	require.Len(t, l.commits, 2)
	require.Equal(t, l.commits[0], l.commits[1])
}

func TestSubmit_NothingToSettle(t *testing.T) {
	l := &fakeLedger{}
	f := New(l, nil, nil)

	group := tripGroup()
	group.Expenses = nil
	p, err := f.Prepare(group)
	require.NoError(t, err)

	commit, err := f.Submit(context.Background(), p, noopSubmit, signer)
	require.NoError(t, err)
	require.Equal(t, StatusNothingToSettle, commit.Status)
	require.Empty(t, l.commits)
}

func TestSubmit_NoEventKeepsTxHash(t *testing.T) {
	records := &fakeRecords{}
	f := New(&fakeLedger{idErr: ledger.ErrNoSettlementEvent}, records, nil)

	p, err := f.Prepare(tripGroup())
	require.NoError(t, err)

	commit, err := f.Submit(context.Background(), p, noopSubmit, signer)
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, commit.Status)
	require.Equal(t, txHash, commit.TxHash)
	require.Empty(t, records.saved)
}

func TestSubmit_Reverted(t *testing.T) {
	reverted := &ledger.SubmissionError{Op: "receipt", Err: ledger.ErrReverted}
	f := New(&fakeLedger{idErr: reverted}, nil, nil)

	p, err := f.Prepare(tripGroup())
	require.NoError(t, err)

	commit, err := f.Submit(context.Background(), p, noopSubmit, signer)
	require.ErrorIs(t, err, ledger.ErrReverted)
	require.Equal(t, StatusFailed, commit.Status)
	require.Equal(t, txHash, commit.TxHash)
}

func TestSubmit_RecordFailureIgnored(t *testing.T) {
	f := New(&fakeLedger{}, &fakeRecords{err: errors.New("disk full")}, nil)

	p, err := f.Prepare(tripGroup())
	require.NoError(t, err)

	commit, err := f.Submit(context.Background(), p, noopSubmit, signer)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, commit.Status)
}

func TestVerify(t *testing.T) {
	group := tripGroup()
	want := common.HexToHash("0xc0c1943121d919aa2fddd6401828abc3f63644296f80aba9b66c9c1f07cc2103")

	tests := []struct {
		name   string
		record *models.CommitmentRecord
		want   commitment.Outcome
	}{
		{
			name:   "matched",
			record: &models.CommitmentRecord{SettlementHash: want, TotalCents: big.NewInt(2000), CommittedBy: signer},
			want:   commitment.Matched,
		},
		{
			name:   "mismatched",
			record: &models.CommitmentRecord{SettlementHash: common.HexToHash("0x01"), CommittedBy: signer},
			want:   commitment.Mismatched,
		},
		{
			name:   "uncommitted",
			record: &models.CommitmentRecord{},
			want:   commitment.Uncommitted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())
			f := New(&fakeLedger{record: tt.record}, nil, m)

			proof, err := f.Verify(context.Background(), group, settleID)
			require.NoError(t, err)
			require.Equal(t, tt.want, proof.Outcome)
			require.Equal(t, want, proof.Computed)
			require.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues(tt.want.String())))
		})
	}
}

func TestVerify_ChangedGroupMismatches(t *testing.T) {
	original := tripGroup()
	f := New(&fakeLedger{}, nil, nil)
	p, err := f.Prepare(original)
	require.NoError(t, err)

	changed := tripGroup()
	changed.Expenses[0].Amount = decimal.RequireFromString("36")
	for i := range changed.Expenses[0].Shares {
		changed.Expenses[0].Shares[i].Amount = decimal.RequireFromString("12")
	}

	l := &fakeLedger{record: &models.CommitmentRecord{SettlementHash: p.Result.Hash, CommittedBy: signer}}
	proof, err := New(l, nil, nil).Verify(context.Background(), changed, settleID)
	require.NoError(t, err)
	require.Equal(t, commitment.Mismatched, proof.Outcome)
	require.ErrorIs(t, proof.Outcome.Err(), commitment.ErrVerificationMismatch)
}

func TestVerify_LedgerUnavailable(t *testing.T) {
	f := New(&fakeLedger{readErr: ledger.ErrUnavailable}, nil, nil)
	_, err := f.Verify(context.Background(), tripGroup(), settleID)
	require.ErrorIs(t, err, ledger.ErrUnavailable)
}

func TestVerifyTx(t *testing.T) {
	l := &fakeLedger{record: &models.CommitmentRecord{}}
	proof, err := New(l, nil, nil).VerifyTx(context.Background(), tripGroup(), txHash)
	require.NoError(t, err)
	require.Equal(t, commitment.Uncommitted, proof.Outcome)
	require.Equal(t, []common.Hash{txHash}, l.resolvedTx)
}

func TestRecord(t *testing.T) {
	l := &fakeLedger{}
	records := &fakeRecords{}
	f := New(l, records, nil)
	hash := common.HexToHash("0xc0c1")

	record, err := f.Record(context.Background(), "g1", txHash, common.Hash{}, hash, signer)
	require.NoError(t, err)
	require.Equal(t, settleID.Hex(), record.SettlementID)
	require.Equal(t, []common.Hash{txHash}, l.resolvedTx)
	require.Len(t, records.saved, 1)

	explicit := common.HexToHash("0x0202")
	record, err = f.Record(context.Background(), "g1", txHash, explicit, hash, signer)
	require.NoError(t, err)
	require.Equal(t, explicit.Hex(), record.SettlementID)
	require.Len(t, l.resolvedTx, 1)

	_, err = New(l, &fakeRecords{err: errors.New("disk full")}, nil).Record(context.Background(), "g1", txHash, explicit, hash, signer)
	require.Error(t, err)

	_, err = New(&fakeLedger{idErr: ledger.ErrNoSettlementEvent}, records, nil).Record(context.Background(), "g1", txHash, common.Hash{}, hash, signer)
	require.ErrorIs(t, err, ledger.ErrNoSettlementEvent)
}
