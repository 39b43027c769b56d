package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// SplitEqually divides an amount into per-member shares of whole cents.
// Leftover cents go one each to the members with the lowest IDs, so the
// shares always sum exactly to the amount. Duplicate IDs are ignored.
func SplitEqually(amount decimal.Decimal, memberIDs []string) ([]models.ExpenseShare, error) {
	ids := uniqueSorted(memberIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: must have at least one participant", ErrInvalidExpense)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidExpense, amount)
	}

	if !inMinorUnits(amount) {
		return nil, fmt.Errorf("%w: amount %s has more precision than the minor unit", ErrInvalidExpense, amount)
	}

	total := amount.Shift(minorUnitPlaces).IntPart()
	n := int64(len(ids))
	base, remainder := total/n, total%n

	shares := make([]models.ExpenseShare, len(ids))
	for i, id := range ids {
		share := base
		if int64(i) < remainder {
			share++
		}
		shares[i] = models.ExpenseShare{
			MemberID: id,
			Amount:   decimal.New(share, -minorUnitPlaces),
		}
	}
	return shares, nil
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
