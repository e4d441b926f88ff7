// Package table holds the in-memory tabular model shared by every stage of the
// merge pipeline.
//
// A Table is an ordered set of equally long columns plus the name of its key
// column. Each Column stores its values in a slice of its storage kind
// ([]int8 … []int64, []float64 or []string) next to a validity bitmap, so a
// value can be missing regardless of kind. Columns also carry provenance: the
// base name they were derived from and the ordinal of the source that produced
// them, which is how the coalescing stage finds variants of the same field
// without re-parsing names.
//
// Tables and columns are immutable once built. Every transformation returns a
// new value and may share untouched column storage with its input.
package table

import "math"

// Kind is the storage kind of a column.
type Kind uint8

const (
	// KindString is the opaque kind used for text and categorical data.
	KindString Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindFloat64
)

var kindNames = [...]string{
	KindString:  "string",
	KindInt8:    "int8",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindFloat64: "float64",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsNumeric reports whether k is an integer kind or KindFloat64.
func (k Kind) IsNumeric() bool { return k != KindString }

// IsInteger reports whether k is one of the signed integer kinds.
func (k Kind) IsInteger() bool { return k >= KindInt8 && k <= KindInt64 }

// Width is the number of bytes one value of kind k occupies in column
// storage. Strings report the size of the string header; their payload is
// accounted separately by MemoryUsage.
func (k Kind) Width() int {
	switch k {
	case KindInt8:
		return 1
	case KindInt16:
		return 2
	case KindInt32:
		return 4
	case KindInt64, KindFloat64:
		return 8
	default:
		return 16
	}
}

// Comparable reports whether values of kinds a and b can be tested for
// equality: numeric kinds compare with each other, strings only with strings.
func Comparable(a, b Kind) bool {
	return a.IsNumeric() == b.IsNumeric()
}

// Promote returns the narrowest kind able to hold values of both a and b.
// Integers widen to the larger integer kind, an integer mixed with a float
// becomes KindFloat64 and anything mixed with a string becomes KindString.
func Promote(a, b Kind) Kind {
	switch {
	case a == b:
		return a
	case a == KindString || b == KindString:
		return KindString
	case a.IsInteger() && b.IsInteger():
		return max(a, b)
	default:
		return KindFloat64
	}
}

// IntKindFor returns the narrowest signed integer kind whose range contains
// both lo and hi.
func IntKindFor(lo, hi int64) Kind {
	switch {
	case lo >= math.MinInt8 && hi <= math.MaxInt8:
		return KindInt8
	case lo >= math.MinInt16 && hi <= math.MaxInt16:
		return KindInt16
	case lo >= math.MinInt32 && hi <= math.MaxInt32:
		return KindInt32
	default:
		return KindInt64
	}
}
