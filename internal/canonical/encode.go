package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ErrEncoding is returned for values outside the canonical value space.
var ErrEncoding = errors.New("canonical encoding failure")

// EncodingError names the offending value by its path from the root ($).
type EncodingError struct {
	Path   string
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%v at %s: %s", ErrEncoding, e.Path, e.Reason)
}

func (e *EncodingError) Unwrap() error { return ErrEncoding }

// Valuer is implemented by types that describe themselves as a tree of plain
// values (maps, slices, strings, integers, booleans, nil).
type Valuer interface {
	CanonicalValue() any
}

// maxExactFloat is the largest integer every float64 below it represents exactly.
const maxExactFloat = 1 << 53

// Encode returns the canonical encoding of v.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v, "$"); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeString is Encode returning a string.
func EncodeString(v any) (string, error) {
	b, err := Encode(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func encodeValue(buf *bytes.Buffer, v any, path string) error {
	if v == nil {
		buf.WriteString("null")
		return nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		buf.WriteString("null")
		return nil
	}

	switch x := v.(type) {
	case Valuer:
		return encodeValue(buf, x.CanonicalValue(), path)
	case bool:
		if x {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		writeString(buf, x)
	case int:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int8:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int16:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(x, 10))
	case uint:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint8:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint16:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint32:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(x, 10))
	case float32:
		return encodeFloat(buf, float64(x), path)
	case float64:
		return encodeFloat(buf, x, path)
	case *big.Int:
		buf.WriteString(x.String())
	case json.Number:
		n, ok := new(big.Int).SetString(string(x), 10)
		if !ok {
			return &EncodingError{Path: path, Reason: fmt.Sprintf("number %s is not an integer", x)}
		}
		buf.WriteString(n.String())
	case decimal.Decimal:
		if !x.Equal(x.Truncate(0)) {
			return &EncodingError{Path: path, Reason: fmt.Sprintf("amount %s is not in whole minor units", x)}
		}
		buf.WriteString(x.StringFixed(0))
	case map[string]any:
		return encodeObject(buf, x, path)
	case []any:
		return encodeArray(buf, len(x), func(i int) any { return x[i] }, path)
	default:
		return encodeReflect(buf, reflect.ValueOf(v), path)
	}
	return nil
}

func encodeFloat(buf *bytes.Buffer, f float64, path string) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return &EncodingError{Path: path, Reason: "number is not finite"}
	}
	if f != math.Trunc(f) {
		return &EncodingError{Path: path, Reason: fmt.Sprintf("number %v is not an integer", f)}
	}
	if math.Abs(f) > maxExactFloat {
		return &EncodingError{Path: path, Reason: fmt.Sprintf("number %v exceeds the exact integer range", f)}
	}
	if f == 0 {
		// -0 renders as 0
		buf.WriteString("0")
		return nil
	}
	buf.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

func encodeObject(buf *bytes.Buffer, obj map[string]any, path string) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sortKeys(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, k)
		buf.WriteByte(':')
		if err := encodeValue(buf, obj[k], path+"."+k); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeArray(buf *bytes.Buffer, n int, elem func(int) any, path string) error {
	buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(buf, elem(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

// encodeReflect covers typed slices, arrays and string-keyed maps.
func encodeReflect(buf *bytes.Buffer, rv reflect.Value, path string) error {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return encodeValue(buf, rv.Elem().Interface(), path)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		return encodeArray(buf, rv.Len(), func(i int) any { return rv.Index(i).Interface() }, path)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return &EncodingError{Path: path, Reason: fmt.Sprintf("map key type %s is not a string", rv.Type().Key())}
		}
		if rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		obj := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			obj[iter.Key().String()] = iter.Value().Interface()
		}
		return encodeObject(buf, obj, path)
	case reflect.String:
		writeString(buf, rv.String())
		return nil
	case reflect.Bool:
		return encodeValue(buf, rv.Bool(), path)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return encodeValue(buf, rv.Int(), path)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return encodeValue(buf, rv.Uint(), path)
	case reflect.Float32, reflect.Float64:
		return encodeFloat(buf, rv.Float(), path)
	}
	return &EncodingError{Path: path, Reason: fmt.Sprintf("unsupported type %s", rv.Type())}
}

// sortKeys orders keys by UTF-16 code units, the order JavaScript's default
// sort gives. It differs from byte order only for characters above U+FFFF.
func sortKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		return lessUTF16(keys[i], keys[j])
	})
}

func lessUTF16(a, b string) bool {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

const hexDigits = "0123456789abcdef"

// writeString writes s as a quoted string, escaping it the way
// JSON.stringify does. Invalid UTF-8 is written as U+FFFD.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"':
				buf.WriteString(`\"`)
			case '\\':
				buf.WriteString(`\\`)
			case '\b':
				buf.WriteString(`\b`)
			case '\f':
				buf.WriteString(`\f`)
			case '\n':
				buf.WriteString(`\n`)
			case '\r':
				buf.WriteString(`\r`)
			case '\t':
				buf.WriteString(`\t`)
			default:
				if c < 0x20 {
					buf.WriteString(`\u00`)
					buf.WriteByte(hexDigits[c>>4])
					buf.WriteByte(hexDigits[c&0xf])
				} else {
					buf.WriteByte(c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
		} else {
			buf.WriteString(s[i : i+size])
		}
		i += size
	}
	buf.WriteByte('"')
}
