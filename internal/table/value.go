package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrIncomparable is returned when two values (or columns) of kinds that
// cannot be compared are tested for equality, e.g. a string and a number.
var ErrIncomparable = errors.New("table: incomparable kinds")

// Value is a single cell: an integer, a float or a string tagged with the
// kind it was read from, or the missing value.
//
// The zero Value is missing.
type Value struct {
	kind  Kind
	valid bool
	i     int64
	f     float64
	s     string
}

// Missing returns the missing value.
func Missing() Value { return Value{} }

// Int returns a present KindInt64 value.
func Int(v int64) Value { return Value{kind: KindInt64, valid: true, i: v} }

// Float returns a present KindFloat64 value. NaN is treated as missing.
func Float(v float64) Value {
	if math.IsNaN(v) {
		return Missing()
	}
	return Value{kind: KindFloat64, valid: true, f: v}
}

// Str returns a present KindString value.
func Str(s string) Value { return Value{kind: KindString, valid: true, s: s} }

func intOfKind(k Kind, v int64) Value { return Value{kind: k, valid: true, i: v} }

// Of converts a Go value to a Value. nil becomes Missing; signed and unsigned
// integers become integers, float32/float64 become floats and strings stay
// strings. Unsigned values above math.MaxInt64 become floats, as an
// oversized integer cell does when parsed. Anything else is formatted with
// fmt.Sprint.
func Of(v any) Value {
	switch t := v.(type) {
	case nil:
		return Missing()
	case Value:
		return t
	case int:
		return Int(int64(t))
	case int8:
		return intOfKind(KindInt8, int64(t))
	case int16:
		return intOfKind(KindInt16, int64(t))
	case int32:
		return intOfKind(KindInt32, int64(t))
	case int64:
		return Int(t)
	case uint8:
		return Int(int64(t))
	case uint16:
		return Int(int64(t))
	case uint32:
		return Int(int64(t))
	case uint:
		return ofUint(uint64(t))
	case uint64:
		return ofUint(t)
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case string:
		return Str(t)
	default:
		return Str(fmt.Sprint(t))
	}
}

func ofUint(u uint64) Value {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}
	return Int(int64(u))
}

// IsMissing reports whether v is the missing value.
func (v Value) IsMissing() bool { return !v.valid }

// Kind returns the kind v was stored as. It is meaningless for a missing value.
func (v Value) Kind() Kind { return v.kind }

// Int returns v as an int64 when v is a present integer.
func (v Value) Int() (int64, bool) {
	if !v.valid || !v.kind.IsInteger() {
		return 0, false
	}
	return v.i, true
}

// Float returns v as a float64 when v is a present number of any numeric kind.
func (v Value) Float() (float64, bool) {
	if !v.valid || !v.kind.IsNumeric() {
		return 0, false
	}
	if v.kind == KindFloat64 {
		return v.f, true
	}
	return float64(v.i), true
}

// Text returns the string payload when v is a present string.
func (v Value) Text() (string, bool) {
	if !v.valid || v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// String formats v for display and delimited output. Missing formats as "".
func (v Value) String() string {
	switch {
	case !v.valid:
		return ""
	case v.kind == KindString:
		return v.s
	case v.kind == KindFloat64:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	default:
		return strconv.FormatInt(v.i, 10)
	}
}

// Any returns v as a plain Go value for drivers and encoders: nil, int64,
// float64 or string.
func (v Value) Any() any {
	switch {
	case !v.valid:
		return nil
	case v.kind == KindString:
		return v.s
	case v.kind == KindFloat64:
		return v.f
	default:
		return v.i
	}
}

// Equal reports whether a and b hold the same fact. Two missing values are
// equal, a present value never equals a missing one, numbers compare by
// numeric value across kinds. Comparing a string with a number returns
// ErrIncomparable.
func Equal(a, b Value) (bool, error) {
	if !a.valid || !b.valid {
		return a.valid == b.valid, nil
	}
	if !Comparable(a.kind, b.kind) {
		return false, fmt.Errorf("%w: %s vs %s", ErrIncomparable, a.kind, b.kind)
	}
	switch {
	case a.kind == KindString:
		return a.s == b.s, nil
	case a.kind.IsInteger() && b.kind.IsInteger():
		return a.i == b.i, nil
	default:
		af, _ := a.Float()
		bf, _ := b.Float()
		return af == bf, nil
	}
}

// Less orders values for sorting: missing first, then numbers by value, then
// strings in byte order.
func Less(a, b Value) bool {
	switch {
	case !a.valid || !b.valid:
		return !a.valid && b.valid
	case a.kind == KindString && b.kind == KindString:
		return a.s < b.s
	case a.kind == KindString:
		return false
	case b.kind == KindString:
		return true
	case a.kind.IsInteger() && b.kind.IsInteger():
		return a.i < b.i
	default:
		af, _ := a.Float()
		bf, _ := b.Float()
		return af < bf
	}
}

// Integral returns v as an int64 when v is a number without fractional part
// that fits the int64 range.
func (v Value) Integral() (int64, bool) {
	if !v.valid || !v.kind.IsNumeric() {
		return 0, false
	}
	if v.kind.IsInteger() {
		return v.i, true
	}
	f := v.f
	if math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	// 2^63 is exactly representable; anything at or above it overflows.
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// convert returns v expressed in kind k. The caller guarantees the
// conversion is meaningful (see Promote); numbers become text through String.
func (v Value) convert(k Kind) Value {
	if !v.valid || v.kind == k {
		return v
	}
	switch {
	case k == KindString:
		return Str(v.String())
	case k == KindFloat64:
		f, _ := v.Float()
		return Float(f)
	case v.kind.IsInteger():
		return intOfKind(k, v.i)
	default:
		return intOfKind(k, int64(v.f))
	}
}
