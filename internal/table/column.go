package table

import (
	"fmt"

	"tablemerge/internal/bitmap"
)

// Column is a named, typed vector of values with per-row validity.
type Column struct {
	name   string
	base   string
	origin int
	kind   Kind
	n      int

	i8  []int8
	i16 []int16
	i32 []int32
	i64 []int64
	f64 []float64
	str []string

	// valid is nil when every row is present.
	valid *bitmap.Bitmap
}

// NewColumn builds a column of kind k from vals, converting each present
// value to k. Provenance is derived from name with SplitProvenance.
func NewColumn(name string, k Kind, vals []Value) *Column {
	b := NewBuilder(name, k, len(vals))
	for _, v := range vals {
		b.Append(v)
	}
	return b.Column()
}

// FromAny is NewColumn over plain Go values (see Of).
func FromAny(name string, k Kind, vals ...any) *Column {
	vs := make([]Value, len(vals))
	for i, v := range vals {
		vs[i] = Of(v)
	}
	return NewColumn(name, k, vs)
}

func (c *Column) Name() string { return c.name }

// Base is the field name this column is a variant of.
func (c *Column) Base() string { return c.base }

// Origin is the 1-based ordinal of the source that produced this column when
// it was renamed during merging, and 0 otherwise.
func (c *Column) Origin() int { return c.origin }

func (c *Column) Kind() Kind { return c.kind }
func (c *Column) Len() int   { return c.n }

// IsMissing reports whether row i holds no value.
func (c *Column) IsMissing(i int) bool {
	return c.valid != nil && !c.valid.Has(i)
}

// MissingCount returns the number of rows without a value.
func (c *Column) MissingCount() int {
	if c.valid == nil {
		return 0
	}
	return c.n - c.valid.Count()
}

// Value returns row i.
func (c *Column) Value(i int) Value {
	if c.IsMissing(i) {
		return Missing()
	}
	switch c.kind {
	case KindInt8:
		return intOfKind(KindInt8, int64(c.i8[i]))
	case KindInt16:
		return intOfKind(KindInt16, int64(c.i16[i]))
	case KindInt32:
		return intOfKind(KindInt32, int64(c.i32[i]))
	case KindInt64:
		return intOfKind(KindInt64, c.i64[i])
	case KindFloat64:
		return Value{kind: KindFloat64, valid: true, f: c.f64[i]}
	default:
		return Str(c.str[i])
	}
}

// Values returns every row in order.
func (c *Column) Values() []Value {
	out := make([]Value, c.n)
	for i := range out {
		out[i] = c.Value(i)
	}
	return out
}

// WithName returns a copy of c under a new name with provenance reset to the
// plain name.
func (c *Column) WithName(name string) *Column {
	return c.WithProvenance(name, name, 0)
}

// WithProvenance returns a copy of c with explicit name and provenance. The
// copy shares storage with c.
func (c *Column) WithProvenance(name, base string, origin int) *Column {
	cp := *c
	cp.name, cp.base, cp.origin = name, base, origin
	return &cp
}

// Take returns a column whose row j is row rows[j] of c. A negative index
// yields a missing value.
func (c *Column) Take(rows []int) *Column {
	out := &Column{name: c.name, base: c.base, origin: c.origin, kind: c.kind, n: len(rows)}
	valid := bitmap.New(len(rows))
	for j, r := range rows {
		if r >= 0 && !c.IsMissing(r) {
			valid.Set(j)
		}
	}
	switch c.kind {
	case KindInt8:
		out.i8 = gather(c.i8, rows)
	case KindInt16:
		out.i16 = gather(c.i16, rows)
	case KindInt32:
		out.i32 = gather(c.i32, rows)
	case KindInt64:
		out.i64 = gather(c.i64, rows)
	case KindFloat64:
		out.f64 = gather(c.f64, rows)
	default:
		out.str = gather(c.str, rows)
	}
	if !valid.All() {
		out.valid = valid
	}
	return out
}

func gather[T any](src []T, rows []int) []T {
	out := make([]T, len(rows))
	for j, r := range rows {
		if r >= 0 {
			out[j] = src[r]
		}
	}
	return out
}

// Cast converts c to kind k. Narrowing an integer column fails when a value
// does not fit; converting a float column to an integer kind fails when a
// value has a fractional part. Any kind casts to KindString.
func (c *Column) Cast(k Kind) (*Column, error) {
	if k == c.kind {
		return c, nil
	}
	if c.kind == KindString && k != KindString {
		return nil, fmt.Errorf("table: cast %q: %w: %s to %s", c.name, ErrIncomparable, c.kind, k)
	}
	if k.IsInteger() {
		for i := 0; i < c.n; i++ {
			v := c.Value(i)
			if v.IsMissing() {
				continue
			}
			iv, ok := v.Integral()
			if !ok || IntKindFor(iv, iv) > k {
				return nil, fmt.Errorf("table: cast %q to %s: row %d value %s out of range", c.name, k, i, v)
			}
		}
	}
	b := NewBuilder(c.name, k, c.n)
	for i := 0; i < c.n; i++ {
		b.Append(c.Value(i))
	}
	out := b.Column()
	out.base, out.origin = c.base, c.origin
	return out, nil
}

// MemoryUsage estimates the bytes held by c, counting string payloads.
func (c *Column) MemoryUsage() int64 {
	size := int64(c.n) * int64(c.kind.Width())
	for _, s := range c.str {
		size += int64(len(s))
	}
	if c.valid != nil {
		size += int64(c.valid.Bytes())
	}
	return size
}

// Builder accumulates values into a new Column.
type Builder struct {
	col      *Column
	valid    *bitmap.Bitmap
	allValid bool
}

// NewBuilder starts a column of kind k with room for capacity rows.
func NewBuilder(name string, k Kind, capacity int) *Builder {
	base, origin := SplitProvenance(name)
	c := &Column{name: name, base: base, origin: origin, kind: k}
	switch k {
	case KindInt8:
		c.i8 = make([]int8, 0, capacity)
	case KindInt16:
		c.i16 = make([]int16, 0, capacity)
	case KindInt32:
		c.i32 = make([]int32, 0, capacity)
	case KindInt64:
		c.i64 = make([]int64, 0, capacity)
	case KindFloat64:
		c.f64 = make([]float64, 0, capacity)
	default:
		c.str = make([]string, 0, capacity)
	}
	return &Builder{col: c, valid: bitmap.WithCapacity(capacity), allValid: true}
}

// Append adds v, converted to the builder's kind.
func (b *Builder) Append(v Value) {
	c := b.col
	present := !v.IsMissing()
	v = v.convert(c.kind)
	switch c.kind {
	case KindInt8:
		c.i8 = append(c.i8, int8(v.i))
	case KindInt16:
		c.i16 = append(c.i16, int16(v.i))
	case KindInt32:
		c.i32 = append(c.i32, int32(v.i))
	case KindInt64:
		c.i64 = append(c.i64, v.i)
	case KindFloat64:
		c.f64 = append(c.f64, v.f)
	default:
		c.str = append(c.str, v.s)
	}
	b.valid.Append(present)
	b.allValid = b.allValid && present
	c.n++
}

// Len is the number of values appended so far.
func (b *Builder) Len() int { return b.col.n }

// Column finishes the builder. The builder must not be used afterwards.
func (b *Builder) Column() *Column {
	c := b.col
	if !b.allValid {
		c.valid = b.valid
	}
	b.col = nil
	return c
}
