// Package settlement builds the canonical settlement document for a group and
// derives its commitment hash.
package settlement

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/canonical"
)

const (
	// Schema identifies the document layout.
	Schema = "settlement.v1"

	// CanonicalCreatedAt is fixed so the hash depends only on financial content.
	CanonicalCreatedAt = "1970-01-01T00:00:00.000Z"
)

// ErrNotCanonical is returned when a document's bytes are valid JSON but not
// its canonical encoding.
var ErrNotCanonical = errors.New("document is not in canonical form")

// GroupRef identifies the group a settlement was built from.
type GroupRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Participant is a member with a valid wallet address.
type Participant struct {
	UserID      string `json:"userId"`
	Address     string `json:"address"`
	DisplayName string `json:"displayName"`
}

// Transfer moves AmountCents minor units from one address to another.
type Transfer struct {
	From        string `json:"from"`
	To          string `json:"to"`
	AmountCents int64  `json:"amountCents"`
}

// Totals summarizes the transfers.
type Totals struct {
	TotalCents int64 `json:"totalCents"`
}

// Document is the settlement.v1 document. It is a value: built fresh from a
// group every time and never mutated afterwards.
type Document struct {
	Schema       string        `json:"schema"`
	Group        GroupRef      `json:"group"`
	Currency     string        `json:"currency"`
	Participants []Participant `json:"participants"`
	Transfers    []Transfer    `json:"transfers"`
	Totals       Totals        `json:"totals"`
	CreatedAt    string        `json:"createdAt"`
}

// CanonicalValue implements canonical.Valuer.
func (d Document) CanonicalValue() any {
	participants := make([]any, len(d.Participants))
	for i, p := range d.Participants {
		participants[i] = map[string]any{
			"userId":      p.UserID,
			"address":     p.Address,
			"displayName": p.DisplayName,
		}
	}
	transfers := make([]any, len(d.Transfers))
	for i, t := range d.Transfers {
		transfers[i] = map[string]any{
			"from":        t.From,
			"to":          t.To,
			"amountCents": t.AmountCents,
		}
	}
	return map[string]any{
		"schema": d.Schema,
		"group": map[string]any{
			"id":   d.Group.ID,
			"name": d.Group.Name,
		},
		"currency":     d.Currency,
		"participants": participants,
		"transfers":    transfers,
		"totals": map[string]any{
			"totalCents": d.Totals.TotalCents,
		},
		"createdAt": d.CreatedAt,
	}
}

// DecodeDocument parses a downloaded settlement document. The bytes must be
// exactly the canonical encoding of the result, so a decoded document always
// re-encodes to the same hash.
func DecodeDocument(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode settlement document: %w", err)
	}
	if doc.Schema != Schema {
		return Document{}, fmt.Errorf("unsupported settlement schema %q", doc.Schema)
	}

	encoded, err := canonical.Encode(doc)
	if err != nil {
		return Document{}, err
	}
	if !bytes.Equal(encoded, data) {
		return Document{}, ErrNotCanonical
	}
	return doc, nil
}
