package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnbalancedLedger is returned when balances do not sum to zero.
var ErrUnbalancedLedger = errors.New("unbalanced ledger")

// Tolerance is the largest imbalance (in major units) accepted by
// MinimizeTransactions. It is under half a minor unit, so no rounding of the
// final transfers can hide it.
var Tolerance = decimal.New(5, -3)

// ImbalanceError reports by how much a set of balances misses zero.
type ImbalanceError struct {
	Imbalance decimal.Decimal
}

func (e *ImbalanceError) Error() string {
	return fmt.Sprintf("%v: balances sum to %s", ErrUnbalancedLedger, e.Imbalance)
}

func (e *ImbalanceError) Unwrap() error { return ErrUnbalancedLedger }

// Transfer represents a payment from a debtor to a creditor.
type Transfer struct {
	From   string // Member who owes
	To     string // Member who is owed
	Amount decimal.Decimal
}

// MinimizeTransactions settles balances with as few transfers as possible.
//
// Greedy matching: repeatedly take the largest creditor and the largest
// debtor, move min(credit, debt) from debtor to creditor, and drop whoever
// reaches zero. Ties on the extremal amount go to the lowest member ID, so
// the same balances always produce the same transfers in the same order.
//
// Every step zeroes at least one member, so a group of n members settles in at
// most n-1 transfers.
func MinimizeTransactions(balances Balances) ([]Transfer, error) {
	if imbalance := balances.Sum(); imbalance.Abs().GreaterThan(Tolerance) {
		return nil, &ImbalanceError{Imbalance: imbalance}
	}

	open := make(map[string]decimal.Decimal, len(balances))
	for id, amount := range balances {
		if !amount.IsZero() {
			open[id] = amount
		}
	}

	var transfers []Transfer
	for {
		creditor, debtor := extremes(open)
		// Anything left on one side is below Tolerance.
		if creditor == "" || debtor == "" {
			break
		}

		amount := decimal.Min(open[creditor], open[debtor].Neg())
		transfers = append(transfers, Transfer{
			From:   debtor,
			To:     creditor,
			Amount: amount,
		})

		update(open, creditor, open[creditor].Sub(amount))
		update(open, debtor, open[debtor].Add(amount))
	}

	return transfers, nil
}

// extremes returns the member owed the most and the member owing the most.
func extremes(open map[string]decimal.Decimal) (creditor, debtor string) {
	var maxCredit, maxDebt decimal.Decimal
	for id, amount := range open {
		switch amount.Sign() {
		case 1:
			if creditor == "" || amount.GreaterThan(maxCredit) || (amount.Equal(maxCredit) && id < creditor) {
				creditor, maxCredit = id, amount
			}
		case -1:
			debt := amount.Neg()
			if debtor == "" || debt.GreaterThan(maxDebt) || (debt.Equal(maxDebt) && id < debtor) {
				debtor, maxDebt = id, debt
			}
		}
	}
	return creditor, debtor
}

func update(open map[string]decimal.Decimal, id string, amount decimal.Decimal) {
	if amount.IsZero() {
		delete(open, id)
		return
	}
	open[id] = amount
}
