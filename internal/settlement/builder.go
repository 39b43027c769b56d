package settlement

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/canonical"
	"github.com/mmynk/splitledger/internal/commitment"
	"github.com/mmynk/splitledger/internal/models"
)

// Result is everything needed to show, download, commit and later verify a
// settlement.
type Result struct {
	Document             Document
	Canonical            string
	Hash                 common.Hash
	TotalCents           int64
	ParticipantAddresses []string
}

// Empty reports whether there is nothing to settle: balances are already zero
// or no transfer is between members with wallet addresses.
func (r *Result) Empty() bool {
	return len(r.Document.Transfers) == 0
}

// GroupDigest is the ledger-side identifier of the group.
func (r *Result) GroupDigest() common.Hash {
	return commitment.GroupIdentifierDigest(r.Document.Group.ID)
}

// JSON returns the canonical document bytes, the exact hash input.
func (r *Result) JSON() []byte {
	return []byte(r.Canonical)
}

// Build computes balances, minimizes transfers, assembles the document,
// encodes it canonically and hashes it. Building twice from unchanged group
// data gives the same canonical string and hash.
func Build(group models.Group) (*Result, error) {
	balances := calculator.ComputeBalances(group)
	transfers, err := calculator.MinimizeTransactions(balances)
	if err != nil {
		return nil, fmt.Errorf("failed to minimize transfers for group %s: %w", group.ID, err)
	}

	doc, err := Assemble(group, transfers)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble settlement for group %s: %w", group.ID, err)
	}
	encoded, err := canonical.Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settlement for group %s: %w", group.ID, err)
	}

	addresses := make([]string, len(doc.Participants))
	for i, p := range doc.Participants {
		addresses[i] = p.Address
	}

	result := &Result{
		Document:             doc,
		Canonical:            string(encoded),
		Hash:                 commitment.HashCanonical(encoded),
		TotalCents:           doc.Totals.TotalCents,
		ParticipantAddresses: addresses,
	}

	slog.Debug("Settlement built",
		"group_id", group.ID,
		"participants", len(doc.Participants),
		"transfers", len(doc.Transfers),
		"total_cents", result.TotalCents,
		"hash", result.Hash.Hex(),
	)

	return result, nil
}

// Assemble turns minimized transfers into a settlement document.
//
// Participants are members with a valid wallet address, sorted by address.
// Transfers keep only pairs of distinct participant addresses, are rounded to
// whole cents once, must be positive, and are sorted by (from, to). Amounts
// or a total that do not fit in int64 cents are an encoding error.
func Assemble(group models.Group, transfers []calculator.Transfer) (Document, error) {
	addressOf := make(map[string]string, len(group.Members))
	participants := make([]Participant, 0, len(group.Members))
	for _, m := range group.Members {
		if !m.HasWallet() {
			continue
		}
		address := models.NormalizeAddress(m.WalletAddress)
		addressOf[m.ID] = address
		participants = append(participants, Participant{
			UserID:      m.ID,
			Address:     address,
			DisplayName: m.Name,
		})
	}
	sort.Slice(participants, func(i, j int) bool {
		if participants[i].Address != participants[j].Address {
			return participants[i].Address < participants[j].Address
		}
		return participants[i].UserID < participants[j].UserID
	})

	docTransfers := make([]Transfer, 0, len(transfers))
	var total int64
	for _, t := range transfers {
		from, fromOK := addressOf[t.From]
		to, toOK := addressOf[t.To]
		if !fromOK || !toOK {
			slog.Debug("Skipping transfer without wallet address",
				"group_id", group.ID,
				"from", t.From,
				"to", t.To,
			)
			continue
		}
		if from == to {
			continue
		}
		path := fmt.Sprintf("$.transfers[%d].amountCents", len(docTransfers))
		cents, err := toCents(t.Amount, path)
		if err != nil {
			return Document{}, err
		}
		if cents <= 0 {
			continue
		}
		if total > math.MaxInt64-cents {
			return Document{}, &canonical.EncodingError{
				Path:   "$.totals.totalCents",
				Reason: "total exceeds the int64 range",
			}
		}
		docTransfers = append(docTransfers, Transfer{From: from, To: to, AmountCents: cents})
		total += cents
	}
	sort.Slice(docTransfers, func(i, j int) bool {
		a, b := docTransfers[i], docTransfers[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.AmountCents < b.AmountCents
	})

	return Document{
		Schema: Schema,
		Group: GroupRef{
			ID:   group.ID,
			Name: group.Name,
		},
		Currency:     group.SettlementCurrency(),
		Participants: participants,
		Transfers:    docTransfers,
		Totals:       Totals{TotalCents: total},
		CreatedAt:    CanonicalCreatedAt,
	}, nil
}

// MissingWallets lists members without a valid wallet address, in member order.
func MissingWallets(group models.Group) []models.Member {
	var missing []models.Member
	for _, m := range group.Members {
		if !m.HasWallet() {
			missing = append(missing, m)
		}
	}
	return missing
}

var (
	minCents = decimal.NewFromInt(math.MinInt64)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// toCents converts major units to minor units, rounding half away from zero.
func toCents(amount decimal.Decimal, path string) (int64, error) {
	cents := amount.Shift(2).Round(0)
	if cents.LessThan(minCents) || cents.GreaterThan(maxCents) {
		return 0, &canonical.EncodingError{
			Path:   path,
			Reason: fmt.Sprintf("amount %s does not fit in int64 cents", amount),
		}
	}
	return cents.IntPart(), nil
}
