package canonical

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestEncode_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"null", nil, `null`},
		{"true", true, `true`},
		{"false", false, `false`},
		{"int", 500, `500`},
		{"negative int64", int64(-42), `-42`},
		{"uint64", uint64(18446744073709551615), `18446744073709551615`},
		{"integral float", float64(500), `500`},
		{"negative zero float", math.Copysign(0, -1), `0`},
		{"json number", json.Number("123"), `123`},
		{"big int", new(big.Int).Lsh(big.NewInt(1), 70), `1180591620717411303424`},
		{"whole decimal", decimal.RequireFromString("2000.00"), `2000`},
		{"nil pointer", (*big.Int)(nil), `null`},
		{"empty string", "", `""`},
		{"plain string", "Trip", `"Trip"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeString(tt.value)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_StringEscaping(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"quote and backslash", `a"b\c`, `"a\"b\\c"`},
		{"short escapes", "\b\f\n\r\t", `"\b\f\n\r\t"`},
		{"other controls lowercase hex", "\x00\x01\x1f", `"\u0000\u0001\u001f"`},
		{"delete is literal", "\x7f", "\"\x7f\""},
		{"non-ascii literal", "Café ☕", `"Café ☕"`},
		{"line separator literal", "\u2028", "\"\u2028\""},
		{"slash not escaped", "a/b", `"a/b"`},
		{"html not escaped", "<&>", `"<&>"`},
		{"invalid utf8 replaced", "a\xffb", "\"a\ufffdb\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeString(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_ObjectKeysSorted(t *testing.T) {
	got, err := EncodeString(map[string]any{
		"totals":   map[string]any{"totalCents": 500},
		"currency": "CAD",
		"a":        []any{3, 1, 2},
		"B":        nil,
	})
	require.NoError(t, err)
	require.Equal(t, `{"B":null,"a":[3,1,2],"currency":"CAD","totals":{"totalCents":500}}`, got)
}

func TestEncode_KeysUseUTF16Order(t *testing.T) {
	// U+1F600 is a surrogate pair (0xD83D ...) and sorts before U+FF61 in
	// UTF-16, although its UTF-8 bytes sort after.
	got, err := EncodeString(map[string]any{"｡": 1, "\U0001F600": 2})
	require.NoError(t, err)
	require.Equal(t, "{\"\U0001F600\":2,\"｡\":1}", got)
}

func TestEncode_IndependentOfConstructionOrder(t *testing.T) {
	first := map[string]any{}
	first["x"] = 1
	first["y"] = 2
	first["z"] = map[string]any{"b": 1, "a": 2}

	second := map[string]any{}
	second["z"] = map[string]any{"a": 2, "b": 1}
	second["y"] = 2
	second["x"] = 1

	a, err := Encode(first)
	require.NoError(t, err)
	b, err := Encode(second)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestEncode_TypedCollections(t *testing.T) {
	got, err := EncodeString(map[string]any{
		"addresses": []string{"0xb", "0xa"},
		"counts":    map[string]int64{"b": 2, "a": 1},
		"empty":     []any{},
	})
	require.NoError(t, err)
	require.Equal(t, `{"addresses":["0xb","0xa"],"counts":{"a":1,"b":2},"empty":[]}`, got)
}

type point struct{ x, y int64 }

func (p point) CanonicalValue() any { return map[string]any{"x": p.x, "y": p.y} }

func TestEncode_Valuer(t *testing.T) {
	got, err := EncodeString([]point{{1, 2}, {3, 4}})
	require.NoError(t, err)
	require.Equal(t, `[{"x":1,"y":2},{"x":3,"y":4}]`, got)
}

func TestEncode_RejectsNonIntegers(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		wantPath string
	}{
		{"fractional float", map[string]any{"amountCents": 500.5}, "$.amountCents"},
		{"NaN", []any{math.NaN()}, "$[0]"},
		{"infinity", math.Inf(1), "$"},
		{"huge float", float64(1 << 60), "$"},
		{"fractional decimal", map[string]any{"t": []any{decimal.RequireFromString("1.25")}}, "$.t[0]"},
		{"fractional json number", json.Number("1.5"), "$"},
		{"unsupported type", map[string]any{"ch": make(chan int)}, "$.ch"},
		{"non-string map key", map[int]int{1: 1}, "$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.value)
			require.ErrorIs(t, err, ErrEncoding)

			var encErr *EncodingError
			require.ErrorAs(t, err, &encErr)
			require.Equal(t, tt.wantPath, encErr.Path)
		})
	}
}
