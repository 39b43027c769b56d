package canonical

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode_RoundTrip(t *testing.T) {
	original := map[string]any{
		"schema": "settlement.v1",
		"group":  map[string]any{"id": "g1", "name": "Trip \"2024\"\n"},
		"list":   []any{int64(1), int64(-2), "x", true, false, nil},
		"big":    new(big.Int).Lsh(big.NewInt(1), 80),
		"empty":  map[string]any{},
	}

	encoded, err := Encode(original)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, original, decoded)

	reencoded, err := Encode(decoded)
	require.NoError(t, err)
	require.Equal(t, encoded, reencoded)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"malformed", `{"a":`},
		{"trailing data", `{"a":1}{}`},
		{"fractional number", `{"a":1.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.in))
			require.Error(t, err)
		})
	}
}

func TestDecode_FractionalIsEncodingError(t *testing.T) {
	_, err := Decode([]byte(`{"transfers":[{"amountCents":1.5}]}`))
	require.ErrorIs(t, err, ErrEncoding)
}
