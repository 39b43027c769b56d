package models

import "github.com/shopspring/decimal"

// Expense represents one payment made on behalf of the group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// PayerID is the member who paid.
	PayerID string

	// Description is a free-form label (e.g., "Groceries").
	Description string

	// Amount is what the payer paid, in major currency units.
	Amount decimal.Decimal

	// Shares split Amount among members. They must sum to Amount.
	Shares []ExpenseShare

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// ExpenseShare is one member's part of an expense.
type ExpenseShare struct {
	MemberID string
	Amount   decimal.Decimal
}
