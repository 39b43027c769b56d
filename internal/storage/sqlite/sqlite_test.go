package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSQLiteStore_Groups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := &models.Group{
		Name: "Trip",
		Members: []models.Member{
			{Name: "Alice", WalletAddress: "0x1111111111111111111111111111111111111111"},
			{Name: "Bob"},
		},
	}

	t.Run("CreateGroup generates IDs and defaults", func(t *testing.T) {
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if group.ID == "" {
			t.Error("Expected group ID to be generated")
		}
		if group.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
		if group.Currency != models.DefaultCurrency {
			t.Errorf("Currency = %q, want %q", group.Currency, models.DefaultCurrency)
		}
		for _, m := range group.Members {
			if m.ID == "" || m.GroupID != group.ID {
				t.Errorf("Member not initialised: %+v", m)
			}
		}
	})

	t.Run("GetGroup retrieves members", func(t *testing.T) {
		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Name != "Trip" {
			t.Errorf("Name = %q, want Trip", got.Name)
		}
		if len(got.Members) != 2 {
			t.Fatalf("Expected 2 members, got %d", len(got.Members))
		}
		alice, ok := got.Member(group.Members[0].ID)
		if !ok || alice.WalletAddress != group.Members[0].WalletAddress {
			t.Errorf("Alice not stored correctly: %+v", alice)
		}
	})

	t.Run("GetGroup returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("AddMember and UpdateMemberWallet", func(t *testing.T) {
		carol := &models.Member{GroupID: group.ID, Name: "Carol"}
		if err := store.AddMember(ctx, carol); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}

		wallet := "0x3333333333333333333333333333333333333333"
		if err := store.UpdateMemberWallet(ctx, group.ID, carol.ID, wallet); err != nil {
			t.Fatalf("UpdateMemberWallet failed: %v", err)
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		m, ok := got.Member(carol.ID)
		if !ok || m.WalletAddress != wallet {
			t.Errorf("Wallet not updated: %+v", m)
		}

		if err := store.UpdateMemberWallet(ctx, group.ID, carol.ID, ""); err != nil {
			t.Fatalf("Clearing wallet failed: %v", err)
		}
		got, _ = store.GetGroup(ctx, group.ID)
		if m, _ := got.Member(carol.ID); m.WalletAddress != "" {
			t.Errorf("Wallet not cleared: %q", m.WalletAddress)
		}
	})

	t.Run("AddMember to unknown group", func(t *testing.T) {
		err := store.AddMember(ctx, &models.Member{GroupID: "missing", Name: "X"})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateMemberWallet for unknown member", func(t *testing.T) {
		err := store.UpdateMemberWallet(ctx, group.ID, "missing", "")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListGroups", func(t *testing.T) {
		other := &models.Group{Name: "Flat", Currency: "EUR"}
		if err := store.CreateGroup(ctx, other); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		groups, err := store.ListGroups(ctx)
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(groups) != 2 {
			t.Fatalf("Expected 2 groups, got %d", len(groups))
		}
		for _, g := range groups {
			if g.ID == group.ID && len(g.Members) != 3 {
				t.Errorf("Expected 3 members on %s, got %d", g.Name, len(g.Members))
			}
			if g.ID == other.ID && g.Currency != "EUR" {
				t.Errorf("Currency = %q, want EUR", g.Currency)
			}
		}
	})
}

func TestSQLiteStore_Expenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := &models.Group{
		Name:    "Dinner",
		Members: []models.Member{{Name: "Alice"}, {Name: "Bob"}},
	}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	alice, bob := group.Members[0].ID, group.Members[1].ID

	expense := &models.Expense{
		GroupID:     group.ID,
		PayerID:     alice,
		Description: "Pizza",
		Amount:      dec("10.01"),
		Shares: []models.ExpenseShare{
			{MemberID: alice, Amount: dec("5.005")},
			{MemberID: bob, Amount: dec("5.005")},
		},
	}
	if err := store.AddExpense(ctx, expense); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	if expense.ID == "" {
		t.Error("Expected expense ID to be generated")
	}

	got, err := store.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if len(got.Expenses) != 1 {
		t.Fatalf("Expected 1 expense, got %d", len(got.Expenses))
	}

	e := got.Expenses[0]
	if e.PayerID != alice || e.Description != "Pizza" {
		t.Errorf("Expense fields mismatch: %+v", e)
	}
	if !e.Amount.Equal(dec("10.01")) {
		t.Errorf("Amount = %s, want 10.01", e.Amount)
	}
	if len(e.Shares) != 2 {
		t.Fatalf("Expected 2 shares, got %d", len(e.Shares))
	}
	for _, s := range e.Shares {
		if !s.Amount.Equal(dec("5.005")) {
			t.Errorf("Share for %s = %s, want exact 5.005", s.MemberID, s.Amount)
		}
	}

	t.Run("unknown member is rejected", func(t *testing.T) {
		bad := &models.Expense{
			GroupID: group.ID,
			PayerID: alice,
			Amount:  dec("1"),
			Shares:  []models.ExpenseShare{{MemberID: "ghost", Amount: dec("1")}},
		}
		if err := store.AddExpense(ctx, bad); err == nil {
			t.Error("Expected foreign key error, got nil")
		}

		got, _ := store.GetGroup(ctx, group.ID)
		if len(got.Expenses) != 1 {
			t.Errorf("Failed expense was partially stored: %d expenses", len(got.Expenses))
		}
	})

	t.Run("expense without payer", func(t *testing.T) {
		orphan := &models.Expense{
			GroupID: group.ID,
			Amount:  dec("2"),
			Shares:  []models.ExpenseShare{{MemberID: bob, Amount: dec("2")}},
		}
		if err := store.AddExpense(ctx, orphan); err != nil {
			t.Fatalf("AddExpense failed: %v", err)
		}
		got, _ := store.GetGroup(ctx, group.ID)
		for _, e := range got.Expenses {
			if e.ID == orphan.ID && e.PayerID != "" {
				t.Errorf("PayerID = %q, want empty", e.PayerID)
			}
		}
	})
}

func TestSQLiteStore_Records(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := &models.Group{Name: "Trip"}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	first := &models.SettlementRecord{
		GroupID:        group.ID,
		SettlementID:   "0x01",
		TxHash:         "0xaa",
		SettlementHash: "0xc0c1",
		CommittedBy:    "0x1111111111111111111111111111111111111111",
		CreatedAt:      100,
	}
	second := &models.SettlementRecord{
		GroupID:      group.ID,
		SettlementID: "0x02",
		TxHash:       "0xbb",
		CreatedAt:    200,
	}
	for _, r := range []*models.SettlementRecord{first, second} {
		if err := store.SaveRecord(ctx, r); err != nil {
			t.Fatalf("SaveRecord failed: %v", err)
		}
	}

	// Saving the same settlement again is ignored.
	dup := *first
	dup.ID = ""
	if err := store.SaveRecord(ctx, &dup); err != nil {
		t.Fatalf("Duplicate SaveRecord failed: %v", err)
	}

	records, err := store.ListRecords(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].SettlementID != "0x02" || records[1].SettlementID != "0x01" {
		t.Errorf("Records not newest first: %s, %s", records[0].SettlementID, records[1].SettlementID)
	}
	if records[1].SettlementHash != "0xc0c1" || records[1].CommittedBy != first.CommittedBy {
		t.Errorf("Record fields mismatch: %+v", records[1])
	}

	empty, err := store.ListRecords(ctx, "other")
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected no records, got %d", len(empty))
	}
}

func TestSQLiteStore_DeleteGroup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := &models.Group{
		Name:    "Trip",
		Members: []models.Member{{Name: "Alice"}, {Name: "Bob"}},
	}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	alice, bob := group.Members[0].ID, group.Members[1].ID

	expense := &models.Expense{
		GroupID: group.ID,
		PayerID: alice,
		Amount:  dec("10"),
		Shares: []models.ExpenseShare{
			{MemberID: alice, Amount: dec("5")},
			{MemberID: bob, Amount: dec("5")},
		},
	}
	if err := store.AddExpense(ctx, expense); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	record := &models.SettlementRecord{GroupID: group.ID, SettlementID: "0x01", TxHash: "0xaa"}
	if err := store.SaveRecord(ctx, record); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	if err := store.DeleteGroup(ctx, group.ID); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}

	if _, err := store.GetGroup(ctx, group.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	records, err := store.ListRecords(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected records to be deleted, got %d", len(records))
	}

	if err := store.DeleteGroup(ctx, group.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSQLiteStore_RemoveMember(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := &models.Group{
		Name:    "Flat",
		Members: []models.Member{{Name: "Alice"}, {Name: "Bob"}, {Name: "Carol"}, {Name: "Dave"}},
	}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	alice, bob, carol, dave := group.Members[0].ID, group.Members[1].ID, group.Members[2].ID, group.Members[3].ID

	// Carol pays but holds no share.
	expense := &models.Expense{
		GroupID: group.ID,
		PayerID: carol,
		Amount:  dec("10"),
		Shares: []models.ExpenseShare{
			{MemberID: alice, Amount: dec("5")},
			{MemberID: bob, Amount: dec("5")},
		},
	}
	if err := store.AddExpense(ctx, expense); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	t.Run("member with shares is refused", func(t *testing.T) {
		err := store.RemoveMember(ctx, group.ID, alice)
		if !errors.Is(err, storage.ErrMemberInUse) {
			t.Errorf("Expected ErrMemberInUse, got %v", err)
		}
	})

	t.Run("idle member is removed", func(t *testing.T) {
		if err := store.RemoveMember(ctx, group.ID, dave); err != nil {
			t.Fatalf("RemoveMember failed: %v", err)
		}
	})

	t.Run("payer is removed and expense keeps no payer", func(t *testing.T) {
		if err := store.RemoveMember(ctx, group.ID, carol); err != nil {
			t.Fatalf("RemoveMember failed: %v", err)
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if len(got.Members) != 2 {
			t.Errorf("Expected 2 members, got %d", len(got.Members))
		}
		if len(got.Expenses) != 1 || got.Expenses[0].PayerID != "" {
			t.Errorf("Expected one payer-less expense, got %+v", got.Expenses)
		}
	})

	t.Run("unknown member", func(t *testing.T) {
		err := store.RemoveMember(ctx, group.ID, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("member of another group", func(t *testing.T) {
		err := store.RemoveMember(ctx, "other", bob)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}
