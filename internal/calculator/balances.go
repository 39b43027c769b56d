package calculator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	ErrInvalidExpense = errors.New("invalid expense")
	ErrSharesMismatch = errors.New("expense shares do not sum to the expense amount")
)

// Balances maps member ID to net balance in major currency units.
// Positive = is owed money, negative = owes money.
type Balances map[string]decimal.Decimal

// Sum returns the total of all balances. It is zero for a consistent group.
func (b Balances) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, amount := range b {
		sum = sum.Add(amount)
	}
	return sum
}

// MemberIDs returns the member IDs in ascending order.
func (b Balances) MemberIDs() []string {
	ids := make([]string, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	MemberID   string
	NetBalance decimal.Decimal // Positive = owed money, Negative = owes money
	TotalPaid  decimal.Decimal // Total amount paid across all expenses
	TotalOwed  decimal.Decimal // Total of this member's shares
}

// ComputeMemberBalances aggregates who paid what and who owes what.
//
// Algorithm:
// - For each expense: payer contributed +amount, each share-holder owes their share
// - Aggregate: net_balance = total_paid - total_owed
//
// Every group member gets an entry, including members with nothing paid or owed.
// The result is sorted by member ID.
func ComputeMemberBalances(group models.Group) []MemberBalance {
	balances := make(map[string]*MemberBalance, len(group.Members))
	get := func(id string) *MemberBalance {
		if bal, exists := balances[id]; exists {
			return bal
		}
		bal := &MemberBalance{MemberID: id}
		balances[id] = bal
		return bal
	}

	for _, m := range group.Members {
		get(m.ID)
	}

	for _, expense := range group.Expenses {
		// Skip expenses without payer (can't calculate balances)
		if expense.PayerID == "" {
			continue
		}
		payer := get(expense.PayerID)
		payer.TotalPaid = payer.TotalPaid.Add(expense.Amount)

		for _, share := range expense.Shares {
			holder := get(share.MemberID)
			holder.TotalOwed = holder.TotalOwed.Add(share.Amount)
		}
	}

	result := make([]MemberBalance, 0, len(balances))
	for _, bal := range balances {
		bal.NetBalance = bal.TotalPaid.Sub(bal.TotalOwed)
		result = append(result, *bal)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MemberID < result[j].MemberID })
	return result
}

// ComputeBalances reduces a group's expenses into one net balance per member.
func ComputeBalances(group models.Group) Balances {
	memberBalances := ComputeMemberBalances(group)
	balances := make(Balances, len(memberBalances))
	for _, bal := range memberBalances {
		balances[bal.MemberID] = bal.NetBalance
	}
	return balances
}

// minorUnitPlaces is the number of decimal places of one minor unit (cents).
const minorUnitPlaces = 2

// inMinorUnits reports whether d is a whole number of minor units.
func inMinorUnits(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(minorUnitPlaces))
}

// ValidateExpense checks an expense before it is recorded: it needs a payer,
// a positive amount, non-negative shares, and shares summing exactly to the
// amount. The amount and every share must be whole minor units.
func ValidateExpense(expense models.Expense) error {
	if expense.PayerID == "" {
		return fmt.Errorf("%w: payer required", ErrInvalidExpense)
	}
	if !expense.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidExpense, expense.Amount)
	}
	if !inMinorUnits(expense.Amount) {
		return fmt.Errorf("%w: amount %s has more precision than the minor unit", ErrInvalidExpense, expense.Amount)
	}
	if len(expense.Shares) == 0 {
		return fmt.Errorf("%w: at least one share required", ErrInvalidExpense)
	}

	sum := decimal.Zero
	for _, share := range expense.Shares {
		if share.MemberID == "" {
			return fmt.Errorf("%w: share without member", ErrInvalidExpense)
		}
		if share.Amount.IsNegative() {
			return fmt.Errorf("%w: negative share %s for member %s", ErrInvalidExpense, share.Amount, share.MemberID)
		}
		if !inMinorUnits(share.Amount) {
			return fmt.Errorf("%w: share %s for member %s has more precision than the minor unit", ErrInvalidExpense, share.Amount, share.MemberID)
		}
		sum = sum.Add(share.Amount)
	}
	if !sum.Equal(expense.Amount) {
		return fmt.Errorf("%w: shares sum to %s, amount is %s", ErrSharesMismatch, sum, expense.Amount)
	}
	return nil
}
