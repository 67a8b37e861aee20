package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies which member of the Value union is set.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindUint
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single cell. The zero Value is null.
type Value struct {
	kind Kind
	i    int64
	u    uint64
	f    float64
	s    string
}

// Null returns the null value.
func Null() Value { return Value{} }

// Int returns a signed integer value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Uint returns an unsigned integer value.
func Uint(v uint64) Value { return Value{kind: KindUint, u: v} }

// Float returns a floating point value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// String returns a string value.
func String(v string) Value { return Value{kind: KindString, s: v} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int64 returns the value as a signed integer. ok is false for non-numeric
// values and for unsigned or float values that do not fit.
func (v Value) Int64() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindUint:
		if v.u > math.MaxInt64 {
			return 0, false
		}
		return int64(v.u), true
	case KindFloat:
		if v.f != math.Trunc(v.f) || v.f < math.MinInt64 || v.f > math.MaxInt64 {
			return 0, false
		}
		return int64(v.f), true
	}
	return 0, false
}

// Uint64 returns the value as an unsigned integer.
func (v Value) Uint64() (uint64, bool) {
	switch v.kind {
	case KindUint:
		return v.u, true
	case KindInt:
		if v.i < 0 {
			return 0, false
		}
		return uint64(v.i), true
	case KindFloat:
		if v.f != math.Trunc(v.f) || v.f < 0 || v.f > math.MaxUint64 {
			return 0, false
		}
		return uint64(v.f), true
	}
	return 0, false
}

// Float64 returns the value as a float.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	case KindUint:
		return float64(v.u), true
	}
	return 0, false
}

// Str returns the string member. ok is false when the value is not a string.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Equal reports whether both values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindUint:
		return v.u == o.u
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString:
		return v.s == o.s
	}
	return true
}

// String renders the value the way join keys and reports display it.
// Null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindUint:
		return strconv.FormatUint(v.u, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	}
	return ""
}

// wireValue is the persisted form of a Value. Exactly one field is set, or
// none for null. X carries the bits of a NaN or infinite float, which JSON
// numbers cannot express.
type wireValue struct {
	I *int64   `json:"i,omitempty"`
	U *uint64  `json:"u,omitempty"`
	F *float64 `json:"f,omitempty"`
	X *uint64  `json:"x,omitempty"`
	S *string  `json:"s,omitempty"`
}

// MarshalJSON encodes the value as a single-key object so kinds survive a
// round trip through storage.
func (v Value) MarshalJSON() ([]byte, error) {
	var w wireValue
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindInt:
		w.I = &v.i
	case KindUint:
		w.U = &v.u
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			bits := math.Float64bits(v.f)
			w.X = &bits
			break
		}
		w.F = &v.f
	case KindString:
		w.S = &v.s
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Null()
		return nil
	}
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("table: invalid value %s: %w", data, err)
	}
	switch {
	case w.I != nil:
		*v = Int(*w.I)
	case w.U != nil:
		*v = Uint(*w.U)
	case w.F != nil:
		*v = Float(*w.F)
	case w.X != nil:
		*v = Float(math.Float64frombits(*w.X))
	case w.S != nil:
		*v = String(*w.S)
	default:
		*v = Null()
	}
	return nil
}
