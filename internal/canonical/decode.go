package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
)

// Decode parses a canonical document back into a value tree of
// map[string]any, []any, string, bool, nil and int64 (or *big.Int for
// integers beyond int64). Fractional numbers are rejected.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode canonical document: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("failed to decode canonical document: trailing data")
	}
	return integers(v, "$")
}

func integers(v any, path string) (any, error) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		if n, ok := new(big.Int).SetString(string(x), 10); ok {
			return n, nil
		}
		return nil, &EncodingError{Path: path, Reason: fmt.Sprintf("number %s is not an integer", x)}
	case map[string]any:
		for k, elem := range x {
			converted, err := integers(elem, path+"."+k)
			if err != nil {
				return nil, err
			}
			x[k] = converted
		}
		return x, nil
	case []any:
		for i, elem := range x {
			converted, err := integers(elem, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			x[i] = converted
		}
		return x, nil
	}
	return v, nil
}
