package models

// DefaultCurrency is used when a group has no currency set.
const DefaultCurrency = "CAD"

// Group represents a set of members who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Trip", "Roommates").
	Name string

	// Currency is the ISO code amounts are expressed in.
	// Empty means DefaultCurrency.
	Currency string

	// Members is the list of people in this group.
	Members []Member

	// Expenses is every expense recorded against the group.
	Expenses []Expense

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// SettlementCurrency returns the group's currency or DefaultCurrency.
func (g *Group) SettlementCurrency() string {
	if g.Currency == "" {
		return DefaultCurrency
	}
	return g.Currency
}

// Member looks up a member by ID.
func (g *Group) Member(id string) (Member, bool) {
	for _, m := range g.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// Member represents one person in a group.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string

	// GroupID is the group this member belongs to.
	GroupID string

	// Name is the display name shown in settlements.
	Name string

	// WalletAddress is the member's account on the external ledger
	// ("0x" + 40 hex characters). Empty when not set.
	WalletAddress string

	// CreatedAt is the Unix timestamp when the member was added.
	CreatedAt int64
}

// HasWallet reports whether the member carries a syntactically valid address.
func (m Member) HasWallet() bool {
	return IsValidAddress(m.WalletAddress)
}
