package service

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
)

func toAPIMember(m models.Member) api.Member {
	return api.Member{
		ID:            m.ID,
		Name:          m.Name,
		WalletAddress: m.WalletAddress,
		HasWallet:     m.HasWallet(),
		CreatedAt:     m.CreatedAt,
	}
}

func toAPIExpense(e models.Expense) api.Expense {
	shares := make([]api.Share, len(e.Shares))
	for i, s := range e.Shares {
		shares[i] = api.Share{MemberID: s.MemberID, Amount: s.Amount.String()}
	}
	return api.Expense{
		ID:          e.ID,
		PayerID:     e.PayerID,
		Description: e.Description,
		Amount:      e.Amount.String(),
		Shares:      shares,
		CreatedAt:   e.CreatedAt,
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	members := make([]api.Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = toAPIMember(m)
	}
	var expenses []api.Expense
	for _, e := range g.Expenses {
		expenses = append(expenses, toAPIExpense(e))
	}
	return &api.Group{
		ID:        g.ID,
		Name:      g.Name,
		Currency:  g.SettlementCurrency(),
		Members:   members,
		Expenses:  expenses,
		CreatedAt: g.CreatedAt,
	}
}

func toAPIRecord(r *models.SettlementRecord, txURL string) *api.Record {
	return &api.Record{
		ID:             r.ID,
		GroupID:        r.GroupID,
		SettlementID:   r.SettlementID,
		TxHash:         r.TxHash,
		TxURL:          txURL,
		SettlementHash: r.SettlementHash,
		CommittedBy:    r.CommittedBy,
		CreatedAt:      r.CreatedAt,
	}
}

// parseAmount parses a decimal amount in major units.
func parseAmount(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s: %q is not a decimal amount", errInvalidArgument, field, s)
	}
	return d, nil
}

// parseHash parses a 0x-prefixed 32-byte hex value.
func parseHash(field, s string) (common.Hash, error) {
	raw, err := hexutil.Decode(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || len(raw) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: %s: %q is not a 32-byte hex value", errInvalidArgument, field, s)
	}
	return common.BytesToHash(raw), nil
}

func requireField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s required", errInvalidArgument, field)
	}
	return nil
}
