package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/ethereum/go-ethereum/common"

	"github.com/mmynk/splitledger/internal/finalize"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

var _ apiconnect.SettlementServiceHandler = (*SettlementService)(nil)

// SettlementService implements the Connect SettlementService: building the
// canonical settlement, verifying it against the ledger and keeping the
// local commit records.
type SettlementService struct {
	store     storage.Store
	finalizer *finalize.Finalizer
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(store storage.Store, finalizer *finalize.Finalizer) *SettlementService {
	return &SettlementService{store: store, finalizer: finalizer}
}

// BuildSettlement builds the canonical settlement document and its hash.
// A group with nothing to settle still builds; the response is marked empty.
func (s *SettlementService) BuildSettlement(ctx context.Context, req *connect.Request[api.BuildSettlementRequest]) (*connect.Response[api.BuildSettlementResponse], error) {
	slog.Info("BuildSettlement request received", "group_id", req.Msg.GroupID)

	group, err := s.loadGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	prepared, err := s.finalizer.Prepare(*group)
	if err != nil {
		slog.Error("BuildSettlement failed", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}
	result := prepared.Result

	var missing []string
	for _, m := range prepared.MissingWallets {
		missing = append(missing, m.ID)
	}

	slog.Info("BuildSettlement successful",
		"group_id", group.ID,
		"hash", result.Hash.Hex(),
		"status", prepared.Status,
		"total_cents", result.TotalCents,
	)

	return connect.NewResponse(&api.BuildSettlementResponse{
		Document:             result.JSON(),
		Canonical:            result.Canonical,
		Hash:                 result.Hash.Hex(),
		GroupDigest:          result.GroupDigest().Hex(),
		TotalCents:           result.TotalCents,
		ParticipantAddresses: result.ParticipantAddresses,
		Empty:                result.Empty(),
		MissingWallets:       missing,
	}), nil
}

// VerifySettlement recomputes the settlement hash and compares it with the
// commitment on the ledger. A mismatch is a successful response with
// Matched false.
func (s *SettlementService) VerifySettlement(ctx context.Context, req *connect.Request[api.VerifySettlementRequest]) (*connect.Response[api.VerifySettlementResponse], error) {
	slog.Info("VerifySettlement request received",
		"group_id", req.Msg.GroupID,
		"settlement_id", req.Msg.SettlementID,
		"tx_hash", req.Msg.TxHash,
	)

	group, err := s.loadGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	var proof *finalize.Proof
	switch {
	case req.Msg.SettlementID != "":
		id, err := parseHash("settlement_id", req.Msg.SettlementID)
		if err != nil {
			return nil, connectError(err)
		}
		proof, err = s.finalizer.Verify(ctx, *group, id)
		if err != nil {
			slog.Error("VerifySettlement failed", "group_id", group.ID, "error", err)
			return nil, connectError(err)
		}
	case req.Msg.TxHash != "":
		txHash, err := parseHash("tx_hash", req.Msg.TxHash)
		if err != nil {
			return nil, connectError(err)
		}
		proof, err = s.finalizer.VerifyTx(ctx, *group, txHash)
		if err != nil {
			slog.Error("VerifySettlement failed", "group_id", group.ID, "error", err)
			return nil, connectError(err)
		}
	default:
		return nil, connectError(requireField("settlement_id or tx_hash", ""))
	}

	resp := &api.VerifySettlementResponse{
		Outcome:      proof.Outcome.String(),
		Matched:      proof.Outcome.Err() == nil,
		SettlementID: proof.Record.SettlementID.Hex(),
		ComputedHash: proof.Computed.Hex(),
	}
	if proof.Record.Committed() {
		resp.RecordedHash = proof.Record.SettlementHash.Hex()
		resp.Currency = proof.Record.Currency
		resp.CommittedBy = proof.Record.CommittedBy.Hex()
		if proof.Record.TotalCents != nil {
			resp.TotalCents = proof.Record.TotalCents.String()
		}
	}

	slog.Info("VerifySettlement successful",
		"group_id", group.ID,
		"settlement_id", resp.SettlementID,
		"outcome", resp.Outcome,
	)

	return connect.NewResponse(resp), nil
}

// RecordCommit saves the local record of a commit signed elsewhere.
func (s *SettlementService) RecordCommit(ctx context.Context, req *connect.Request[api.RecordCommitRequest]) (*connect.Response[api.RecordCommitResponse], error) {
	slog.Info("RecordCommit request received",
		"group_id", req.Msg.GroupID,
		"tx_hash", req.Msg.TxHash,
	)

	group, err := s.loadGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	txHash, err := parseHash("tx_hash", req.Msg.TxHash)
	if err != nil {
		return nil, connectError(err)
	}

	var settlementID common.Hash
	if req.Msg.SettlementID != "" {
		if settlementID, err = parseHash("settlement_id", req.Msg.SettlementID); err != nil {
			return nil, connectError(err)
		}
	}

	committedBy, err := ledger.ParseAddress(req.Msg.CommittedBy)
	if err != nil {
		return nil, connectError(&models.AddressError{Address: req.Msg.CommittedBy})
	}

	var settlementHash common.Hash
	if req.Msg.SettlementHash != "" {
		if settlementHash, err = parseHash("settlement_hash", req.Msg.SettlementHash); err != nil {
			return nil, connectError(err)
		}
	} else {
		prepared, err := s.finalizer.Prepare(*group)
		if err != nil {
			return nil, connectError(err)
		}
		settlementHash = prepared.Result.Hash
	}

	record, err := s.finalizer.Record(ctx, group.ID, txHash, settlementID, settlementHash, committedBy)
	if err != nil {
		slog.Error("RecordCommit failed", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Commit recorded",
		"group_id", group.ID,
		"settlement_id", record.SettlementID,
	)

	return connect.NewResponse(&api.RecordCommitResponse{
		Record: toAPIRecord(record, s.finalizer.TxURL(txHash)),
	}), nil
}

// ListRecords lists the local commit records of a group, newest first.
func (s *SettlementService) ListRecords(ctx context.Context, req *connect.Request[api.ListRecordsRequest]) (*connect.Response[api.ListRecordsResponse], error) {
	slog.Info("ListRecords request received", "group_id", req.Msg.GroupID)

	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, connectError(err)
	}

	records, err := s.store.ListRecords(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListRecords failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	out := make([]*api.Record, len(records))
	for i, r := range records {
		out[i] = toAPIRecord(r, s.finalizer.TxURL(common.HexToHash(r.TxHash)))
	}

	slog.Info("ListRecords successful", "group_id", req.Msg.GroupID, "count", len(out))

	return connect.NewResponse(&api.ListRecordsResponse{Records: out}), nil
}

func (s *SettlementService) loadGroup(ctx context.Context, groupID string) (*models.Group, error) {
	if err := requireField("group_id", groupID); err != nil {
		return nil, connectError(err)
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		slog.Error("Failed to load group", "group_id", groupID, "error", err)
		return nil, connectError(err)
	}
	return group, nil
}
