package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService
type GroupService struct {
	store storage.GroupStore
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.GroupStore) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a new group with the named members.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	if err := requireField("name", req.Msg.Name); err != nil {
		return nil, connectError(err)
	}

	group := &models.Group{
		Name:     strings.TrimSpace(req.Msg.Name),
		Currency: strings.ToUpper(strings.TrimSpace(req.Msg.Currency)),
	}
	for _, name := range req.Msg.Members {
		if err := requireField("member name", name); err != nil {
			return nil, connectError(err)
		}
		group.Members = append(group.Members, models.Member{Name: strings.TrimSpace(name)})
	}

	// Save to storage (generates IDs and CreatedAt)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, connectError(err)
	}

	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// GetGroup retrieves a group with its members and expenses.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, err := s.loadGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	slog.Info("GetGroup successful", "group_id", group.ID, "name", group.Name)

	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group)}), nil
}

// ListGroups retrieves all groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	slog.Info("ListGroups request received")

	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, connectError(err)
	}

	out := make([]*api.Group, len(groups))
	for i, group := range groups {
		out[i] = toAPIGroup(group)
	}

	slog.Info("ListGroups successful", "count", len(groups))

	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// DeleteGroup removes a group and everything recorded under it.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, connectError(err)
	}

	if err := s.store.DeleteGroup(ctx, req.Msg.GroupID); err != nil {
		slog.Error("DeleteGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Group deleted", "group_id", req.Msg.GroupID)

	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// AddMember adds a member, optionally with a wallet address.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	slog.Info("AddMember request received", "group_id", req.Msg.GroupID, "name", req.Msg.Name)

	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, connectError(err)
	}
	if err := requireField("name", req.Msg.Name); err != nil {
		return nil, connectError(err)
	}

	wallet, err := models.ValidateAddress("", req.Msg.WalletAddress)
	if err != nil {
		slog.Warn("AddMember rejected", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	member := &models.Member{
		GroupID:       req.Msg.GroupID,
		Name:          strings.TrimSpace(req.Msg.Name),
		WalletAddress: wallet,
	}
	if err := s.store.AddMember(ctx, member); err != nil {
		slog.Error("AddMember failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Member added", "group_id", member.GroupID, "member_id", member.ID)

	m := toAPIMember(*member)
	return connect.NewResponse(&api.AddMemberResponse{Member: &m}), nil
}

// UpdateMemberWallet sets or clears a member's wallet address. Malformed
// addresses are rejected rather than stored.
func (s *GroupService) UpdateMemberWallet(ctx context.Context, req *connect.Request[api.UpdateMemberWalletRequest]) (*connect.Response[api.UpdateMemberWalletResponse], error) {
	slog.Info("UpdateMemberWallet request received",
		"group_id", req.Msg.GroupID,
		"member_id", req.Msg.MemberID,
	)

	wallet, err := models.ValidateAddress(req.Msg.MemberID, req.Msg.WalletAddress)
	if err != nil {
		slog.Warn("UpdateMemberWallet rejected", "member_id", req.Msg.MemberID, "error", err)
		return nil, connectError(err)
	}

	if err := s.store.UpdateMemberWallet(ctx, req.Msg.GroupID, req.Msg.MemberID, wallet); err != nil {
		slog.Error("UpdateMemberWallet failed", "member_id", req.Msg.MemberID, "error", err)
		return nil, connectError(err)
	}

	group, err := s.loadGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	member, _ := group.Member(req.Msg.MemberID)

	slog.Info("Wallet updated",
		"group_id", req.Msg.GroupID,
		"member_id", member.ID,
		"cleared", wallet == "",
	)

	m := toAPIMember(member)
	return connect.NewResponse(&api.UpdateMemberWalletResponse{Member: &m}), nil
}

// RemoveMember removes a member who holds no expense shares.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	slog.Info("RemoveMember request received",
		"group_id", req.Msg.GroupID,
		"member_id", req.Msg.MemberID,
	)

	if err := s.store.RemoveMember(ctx, req.Msg.GroupID, req.Msg.MemberID); err != nil {
		slog.Error("RemoveMember failed", "member_id", req.Msg.MemberID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Member removed", "group_id", req.Msg.GroupID, "member_id", req.Msg.MemberID)

	return connect.NewResponse(&api.RemoveMemberResponse{}), nil
}

// AddExpense records an expense with explicit shares or an equal split.
func (s *GroupService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	slog.Info("AddExpense request received",
		"group_id", req.Msg.GroupID,
		"payer_id", req.Msg.PayerID,
		"amount", req.Msg.Amount,
	)

	group, err := s.loadGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	expense, err := buildExpense(group, req.Msg)
	if err != nil {
		slog.Warn("AddExpense rejected", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}

	if err := s.store.AddExpense(ctx, expense); err != nil {
		slog.Error("AddExpense failed", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Expense added", "group_id", group.ID, "expense_id", expense.ID)

	e := toAPIExpense(*expense)
	return connect.NewResponse(&api.AddExpenseResponse{Expense: &e}), nil
}

// GetBalances returns every member's net balance and the minimized
// transfers that settle them.
func (s *GroupService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	slog.Info("GetBalances request received", "group_id", req.Msg.GroupID)

	group, err := s.loadGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	memberBalances := calculator.ComputeMemberBalances(*group)
	balances := make(calculator.Balances, len(memberBalances))
	resp := &api.GetBalancesResponse{
		Balances:  make([]api.Balance, 0, len(memberBalances)),
		Transfers: []api.Transfer{},
	}
	for _, b := range memberBalances {
		balances[b.MemberID] = b.NetBalance
		member, _ := group.Member(b.MemberID)
		resp.Balances = append(resp.Balances, api.Balance{
			MemberID:   b.MemberID,
			Name:       member.Name,
			NetBalance: b.NetBalance.StringFixed(2),
			TotalPaid:  b.TotalPaid.StringFixed(2),
			TotalOwed:  b.TotalOwed.StringFixed(2),
		})
	}

	transfers, err := calculator.MinimizeTransactions(balances)
	if err != nil {
		slog.Error("GetBalances failed - calculation error", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}
	for _, t := range transfers {
		resp.Transfers = append(resp.Transfers, api.Transfer{
			From:   t.From,
			To:     t.To,
			Amount: t.Amount.StringFixed(2),
		})
	}

	slog.Info("GetBalances successful",
		"group_id", group.ID,
		"members", len(resp.Balances),
		"transfers", len(resp.Transfers),
	)

	return connect.NewResponse(resp), nil
}

func (s *GroupService) loadGroup(ctx context.Context, groupID string) (*models.Group, error) {
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

// buildExpense validates a request against the group's members.
func buildExpense(group *models.Group, msg *api.AddExpenseRequest) (*models.Expense, error) {
	if _, ok := group.Member(msg.PayerID); !ok {
		return nil, fmt.Errorf("%w: payer %q is not a member", calculator.ErrInvalidExpense, msg.PayerID)
	}

	amount, err := parseAmount("amount", msg.Amount)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		GroupID:     group.ID,
		PayerID:     msg.PayerID,
		Description: strings.TrimSpace(msg.Description),
		Amount:      amount,
	}

	switch {
	case len(msg.Shares) > 0 && len(msg.SplitAmong) > 0:
		return nil, fmt.Errorf("%w: give either shares or split_among, not both", errInvalidArgument)
	case len(msg.SplitAmong) > 0:
		shares, err := calculator.SplitEqually(amount, msg.SplitAmong)
		if err != nil {
			return nil, err
		}
		expense.Shares = shares
	default:
		for _, sh := range msg.Shares {
			shareAmount, err := parseAmount("share amount", sh.Amount)
			if err != nil {
				return nil, err
			}
			expense.Shares = append(expense.Shares, models.ExpenseShare{MemberID: sh.MemberID, Amount: shareAmount})
		}
	}

	seen := make(map[string]bool, len(expense.Shares))
	for _, sh := range expense.Shares {
		if _, ok := group.Member(sh.MemberID); !ok {
			return nil, fmt.Errorf("%w: share member %q is not a member", calculator.ErrInvalidExpense, sh.MemberID)
		}
		if seen[sh.MemberID] {
			return nil, fmt.Errorf("%w: duplicate share for member %q", calculator.ErrInvalidExpense, sh.MemberID)
		}
		seen[sh.MemberID] = true
	}

	if err := calculator.ValidateExpense(*expense); err != nil {
		return nil, err
	}
	return expense, nil
}
