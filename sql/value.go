package sql

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	NullString  = "NULL"
	TrueString  = "true"
	FalseString = "false"
)

type Value interface {
	fmt.Stringer

	// return -1 if v1 < v2
	// return 0 if v1 == v2
	// return 1 if v1 > v2
	Compare(v2 Value) (int, error)
}

type BoolValue bool

func (b BoolValue) String() string {
	if b {
		return TrueString
	}
	return FalseString
}

func (b1 BoolValue) Compare(v2 Value) (int, error) {
	if b2, ok := v2.(BoolValue); ok {
		if b1 == b2 {
			return 0, nil
		} else if b1 {
			return 1, nil
		}
		return -1, nil
	}
	return 0, fmt.Errorf("sql: want boolean got %v", v2)
}

type Int64Value int64

func (i Int64Value) String() string {
	return strconv.FormatInt(int64(i), 10)
}

func (i1 Int64Value) Compare(v2 Value) (int, error) {
	switch v2 := v2.(type) {
	case Int64Value:
		if i1 < v2 {
			return -1, nil
		} else if i1 > v2 {
			return 1, nil
		}
		return 0, nil
	case Float64Value:
		return Float64Value(i1).Compare(v2)
	}
	return 0, fmt.Errorf("sql: want number got %v", v2)
}

type Float64Value float64

func (d Float64Value) String() string {
	return strconv.FormatFloat(float64(d), 'g', -1, 64)
}

func (d1 Float64Value) Compare(v2 Value) (int, error) {
	var d2 Float64Value
	switch v2 := v2.(type) {
	case Int64Value:
		d2 = Float64Value(v2)
	case Float64Value:
		d2 = v2
	default:
		return 0, fmt.Errorf("sql: want number got %v", v2)
	}

	if d1 < d2 {
		return -1, nil
	} else if d1 > d2 {
		return 1, nil
	}
	return 0, nil
}

type StringValue string

func (s StringValue) String() string {
	return fmt.Sprintf("'%s'", string(s))
}

func (s1 StringValue) Compare(v2 Value) (int, error) {
	if s2, ok := v2.(StringValue); ok {
		return strings.Compare(string(s1), string(s2)), nil
	}
	return 0, fmt.Errorf("sql: want string got %v", v2)
}

type BytesValue []byte

var (
	hexDigits = [16]rune{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'a', 'b', 'c', 'd',
		'e', 'f'}
)

func (b BytesValue) String() string {
	var buf bytes.Buffer
	buf.WriteString("'\\x")
	for _, v := range b {
		buf.WriteRune(hexDigits[v>>4])
		buf.WriteRune(hexDigits[v&0xF])
	}

	buf.WriteRune('\'')
	return buf.String()
}

func (b1 BytesValue) Compare(v2 Value) (int, error) {
	if b2, ok := v2.(BytesValue); ok {
		return bytes.Compare([]byte(b1), []byte(b2)), nil
	}
	return 0, fmt.Errorf("sql: want bytes got %v", v2)
}

func typeRank(v Value) int {
	switch v.(type) {
	case nil:
		return 0
	case BoolValue:
		return 1
	case Int64Value, Float64Value:
		return 2
	case StringValue:
		return 3
	case BytesValue:
		return 4
	}
	panic(fmt.Sprintf("unexpected type for sql.Value: %T: %v", v, v))
}

// Compare orders any two values: NULL sorts first, followed by booleans, numbers, strings, and
// bytes.
func Compare(v1, v2 Value) int {
	r1 := typeRank(v1)
	r2 := typeRank(v2)
	if r1 < r2 {
		return -1
	} else if r1 > r2 {
		return 1
	} else if r1 == 0 {
		return 0
	}

	cmp, _ := v1.Compare(v2)
	return cmp
}

func Format(v Value) string {
	if v == nil {
		return NullString
	}

	return v.String()
}

// FormatRaw is like Format, except that strings are not quoted.
func FormatRaw(v Value) string {
	if s, ok := v.(StringValue); ok {
		return string(s)
	}
	return Format(v)
}

// FromNative converts the values returned by database drivers, decoders, and the like into a
// Value.
func FromNative(v interface{}) (Value, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case Value:
		return v, nil
	case bool:
		return BoolValue(v), nil
	case int:
		return Int64Value(v), nil
	case int8:
		return Int64Value(v), nil
	case int16:
		return Int64Value(v), nil
	case int32:
		return Int64Value(v), nil
	case int64:
		return Int64Value(v), nil
	case uint:
		return fromUint64(uint64(v))
	case uint8:
		return Int64Value(v), nil
	case uint16:
		return Int64Value(v), nil
	case uint32:
		return Int64Value(v), nil
	case uint64:
		return fromUint64(v)
	case float32:
		return Float64Value(v), nil
	case float64:
		return Float64Value(v), nil
	case string:
		return StringValue(v), nil
	case []byte:
		if utf8.Valid(v) {
			return StringValue(v), nil
		}
		return BytesValue(append(make([]byte, 0, len(v)), v...)), nil
	case time.Time:
		return StringValue(v.Format(time.RFC3339Nano)), nil
	}
	return nil, fmt.Errorf("sql: unexpected type for value: %T: %v", v, v)
}

func fromUint64(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("sql: unsigned value out of range: %d", u)
	}
	return Int64Value(u), nil
}

// Native is the inverse of FromNative; it is used by encoders which know nothing about Value.
func Native(v Value) interface{} {
	switch v := v.(type) {
	case BoolValue:
		return bool(v)
	case Int64Value:
		return int64(v)
	case Float64Value:
		return float64(v)
	case StringValue:
		return string(v)
	case BytesValue:
		return []byte(v)
	}
	return nil
}

// ParseTyped converts s, the textual form of a value, using a column type name as reported by
// a query engine. Unknown types are returned as strings.
func ParseTyped(typ, s string) (Value, error) {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "boolean", "bool":
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "t", "true", "y", "yes", "on", "1":
			return BoolValue(true), nil
		case "f", "false", "n", "no", "off", "0":
			return BoolValue(false), nil
		}
		return nil, fmt.Errorf("sql: expected a boolean value: %s", s)
	case "tinyint", "smallint", "integer", "int", "bigint":
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("sql: expected an integer: %s: %s", s, err)
		}
		return Int64Value(i), nil
	case "double", "float", "real", "decimal":
		d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("sql: expected a float: %s: %s", s, err)
		}
		return Float64Value(d), nil
	}
	return StringValue(s), nil
}

// Numeric returns v as a float64 if it is a number.
func Numeric(v Value) (float64, bool) {
	switch v := v.(type) {
	case Int64Value:
		return float64(v), true
	case Float64Value:
		return float64(v), true
	}
	return 0, false
}
