package settlement

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/canonical"
	"github.com/mmynk/splitledger/internal/commitment"
)

// vectorDocument is the pinned cross-implementation vector.
func vectorDocument() Document {
	return Document{
		Schema:   Schema,
		Group:    GroupRef{ID: "g1", Name: "Trip"},
		Currency: "CAD",
		Participants: []Participant{
			{UserID: "m1", Address: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1", DisplayName: "A"},
		},
		Transfers: []Transfer{
			{From: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1", To: "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb2", AmountCents: 500},
		},
		Totals:    Totals{TotalCents: 500},
		CreatedAt: CanonicalCreatedAt,
	}
}

const vectorCanonical = `{"createdAt":"1970-01-01T00:00:00.000Z","currency":"CAD","group":{"id":"g1","name":"Trip"},"participants":[{"address":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1","displayName":"A","userId":"m1"}],"schema":"settlement.v1","totals":{"totalCents":500},"transfers":[{"amountCents":500,"from":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1","to":"0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb2"}]}`

func TestDocument_HashStabilityVector(t *testing.T) {
	encoded, err := canonical.EncodeString(vectorDocument())
	require.NoError(t, err)
	require.Equal(t, vectorCanonical, encoded)
	require.Equal(t,
		"0xeba78dd490321aa5782c3609f86154aac8a44a0a3544bbefc76d9af6c1a550c7",
		commitment.HashString(encoded).Hex(),
	)
}

func TestDecodeDocument_RoundTrip(t *testing.T) {
	doc, err := DecodeDocument([]byte(vectorCanonical))
	require.NoError(t, err)
	require.Equal(t, vectorDocument(), doc)

	reencoded, err := canonical.EncodeString(doc)
	require.NoError(t, err)
	require.Equal(t, vectorCanonical, reencoded)
}

func TestDecodeDocument_GenericRoundTrip(t *testing.T) {
	value, err := canonical.Decode([]byte(vectorCanonical))
	require.NoError(t, err)
	require.Equal(t, vectorDocument().CanonicalValue(), value)
}

func TestDecodeDocument_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"pretty printed", "{\n" + vectorCanonical[1:]},
		{"unknown field", `{"extra":1,` + vectorCanonical[1:]},
		{"wrong schema", `{"schema":"settlement.v0"}`},
		{"fractional cents", `{"transfers":[{"amountCents":1.5}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDocument([]byte(tt.in))
			require.Error(t, err)
		})
	}
}

func TestDecodeDocument_NotCanonical(t *testing.T) {
	// Same content, keys in construction order instead of sorted order.
	reordered := `{"schema":"settlement.v1","group":{"id":"g1","name":"Trip"},"currency":"CAD","participants":[{"userId":"m1","address":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1","displayName":"A"}],"transfers":[{"from":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1","to":"0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb2","amountCents":500}],"totals":{"totalCents":500},"createdAt":"1970-01-01T00:00:00.000Z"}`
	_, err := DecodeDocument([]byte(reordered))
	require.ErrorIs(t, err, ErrNotCanonical)
}
