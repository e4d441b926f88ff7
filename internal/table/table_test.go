package table

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
TestEqualNullAware pins the equality used by the merge predicate: two missing
values are equal, a missing value never equals a present one, and numbers
compare across integer and float kinds.
*/
func TestEqualNullAware(t *testing.T) {
	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"both missing", Missing(), Missing(), true},
		{"missing vs present", Missing(), Int(1), false},
		{"present vs missing", Str("x"), Missing(), false},
		{"int int", Int(3), Int(3), true},
		{"int float integral", Int(3), Float(3.0), true},
		{"int float fractional", Int(3), Float(3.5), false},
		{"narrow int vs wide", Of(int8(7)), Int(7), true},
		{"strings", Str("a"), Str("a"), true},
		{"strings differ", Str("a"), Str("A"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Equal(tc.a, tc.b)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEqualIncomparable(t *testing.T) {
	_, err := Equal(Str("1"), Int(1))
	require.ErrorIs(t, err, ErrIncomparable)
}

func TestFloatNaNIsMissing(t *testing.T) {
	assert.True(t, Float(math.NaN()).IsMissing())
}

func TestPromote(t *testing.T) {
	assert.Equal(t, KindInt32, Promote(KindInt8, KindInt32))
	assert.Equal(t, KindFloat64, Promote(KindInt64, KindFloat64))
	assert.Equal(t, KindString, Promote(KindFloat64, KindString))
	assert.Equal(t, KindInt16, Promote(KindInt16, KindInt16))
}

func TestIntKindFor(t *testing.T) {
	assert.Equal(t, KindInt8, IntKindFor(-128, 127))
	assert.Equal(t, KindInt16, IntKindFor(0, 128))
	assert.Equal(t, KindInt32, IntKindFor(-40000, 0))
	assert.Equal(t, KindInt64, IntKindFor(0, math.MaxInt32+1))
}

/*
TestSplitProvenance checks that exactly one trailing _file<n> marker is
recognised and that names which merely contain the marker are left alone.
*/
func TestSplitProvenance(t *testing.T) {
	cases := []struct {
		in     string
		base   string
		origin int
	}{
		{"X", "X", 0},
		{"X_file2", "X", 2},
		{"Score_file12", "Score", 12},
		{"X_file2_file3", "X_file2", 3},
		{"_file2", "_file2", 0},
		{"X_file", "X_file", 0},
		{"X_filea", "X_filea", 0},
		{"my_file_name", "my_file_name", 0},
	}
	for _, tc := range cases {
		base, origin := SplitProvenance(tc.in)
		assert.Equal(t, tc.base, base, tc.in)
		assert.Equal(t, tc.origin, origin, tc.in)
	}
	assert.Equal(t, "X_file4", ProvenanceName("X", 4))
}

func TestColumnBuilderValidity(t *testing.T) {
	c := FromAny("A", KindInt64, 1, nil, 3)
	require.Equal(t, 3, c.Len())
	assert.True(t, c.IsMissing(1))
	assert.Equal(t, 1, c.MissingCount())
	v, ok := c.Value(2).Int()
	require.True(t, ok)
	assert.Equal(t, int64(3), v)

	full := FromAny("B", KindFloat64, 1.5, 2.5)
	assert.Equal(t, 0, full.MissingCount())
	assert.Nil(t, full.valid)
}

func TestColumnTake(t *testing.T) {
	c := FromAny("S", KindString, "a", "b", nil)
	got := c.Take([]int{2, -1, 0, 1})
	assert.Equal(t, []Value{Missing(), Missing(), Str("a"), Str("b")}, got.Values())
	assert.Equal(t, 2, got.MissingCount())

	full := c.Take([]int{1, 0})
	assert.Nil(t, full.valid, "no validity mask when every row is present")

	// Spans several bitmap words.
	rows := make([]int, 130)
	for i := range rows {
		rows[i] = i % 3
	}
	wide := c.Take(rows)
	assert.Equal(t, 43, wide.MissingCount())
	assert.True(t, wide.IsMissing(128))
	assert.False(t, wide.IsMissing(129))
}

func TestColumnCast(t *testing.T) {
	f := FromAny("F", KindFloat64, 1.0, nil, -4.0)
	i, err := f.Cast(KindInt64)
	require.NoError(t, err)
	assert.Equal(t, KindInt64, i.Kind())
	assert.True(t, i.IsMissing(1))
	v, _ := i.Value(2).Int()
	assert.Equal(t, int64(-4), v)

	_, err = FromAny("F", KindFloat64, 1.5).Cast(KindInt64)
	require.Error(t, err)

	_, err = FromAny("I", KindInt64, 300).Cast(KindInt8)
	require.Error(t, err)

	s, err := FromAny("I", KindInt64, 7).Cast(KindString)
	require.NoError(t, err)
	assert.Equal(t, Str("7"), s.Value(0))
}

func TestColumnProvenance(t *testing.T) {
	c := FromAny("X_file2", KindInt64, 1)
	assert.Equal(t, "X", c.Base())
	assert.Equal(t, 2, c.Origin())

	r := c.WithProvenance("X_file5", "X", 5)
	assert.Equal(t, 5, r.Origin())
	assert.Equal(t, 2, c.Origin(), "original column must not change")

	p := r.WithName("Y")
	assert.Equal(t, "Y", p.Base())
	assert.Equal(t, 0, p.Origin())
}

func TestNewTableValidation(t *testing.T) {
	_, err := New("K", FromAny("K", KindInt64, 1, 2), FromAny("A", KindInt64, 1))
	require.ErrorIs(t, err, ErrLengthMismatch)

	_, err = New("K", FromAny("K", KindInt64, 1), FromAny("K", KindInt64, 1))
	require.ErrorIs(t, err, ErrDuplicateColumn)
}

func TestTableDropKeepsKey(t *testing.T) {
	tbl := MustNew("K",
		FromAny("K", KindInt64, 1, 2),
		FromAny("A", KindString, "x", "y"),
		FromAny("B", KindInt64, 5, 6),
	)
	got := tbl.Drop("K", "A", "missing")
	assert.Equal(t, []string{"K", "B"}, got.Names())
	assert.Equal(t, 3, tbl.NumCols(), "input table is immutable")
}

func TestTableEqualAndMemory(t *testing.T) {
	a := MustNew("K", FromAny("K", KindInt8, 1, 2), FromAny("S", KindString, "ab", nil))
	b := MustNew("K", FromAny("K", KindInt8, 1, 2), FromAny("S", KindString, "ab", nil))
	assert.True(t, a.Equal(b))

	c := MustNew("K", FromAny("K", KindInt16, 1, 2), FromAny("S", KindString, "ab", nil))
	assert.False(t, a.Equal(c), "kinds differ")

	// 2 int8 + 2 string headers + 2 payload bytes + one validity word.
	assert.Equal(t, int64(2+32+2+8), a.MemoryUsage())
}

func TestPreview(t *testing.T) {
	tbl := MustNew("K",
		FromAny("K", KindInt64, 1, 2, 3),
		FromAny("Name", KindString, "alpha", nil, "gamma"),
	)
	var buf bytes.Buffer
	require.NoError(t, tbl.Preview(&buf, 2))
	out := buf.String()
	assert.Contains(t, out, "alpha")
	assert.NotContains(t, out, "gamma")
}

func TestOfUnsigned(t *testing.T) {
	v := Of(uint(42))
	i, ok := v.Int()
	require.True(t, ok)
	assert.Equal(t, int64(42), i)

	v = Of(uint64(math.MaxInt64))
	i, ok = v.Int()
	require.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), i)

	// Past int64 the value is kept as a number, not text.
	v = Of(uint64(math.MaxUint64))
	assert.Equal(t, KindFloat64, v.Kind())
	f, ok := v.Float()
	require.True(t, ok)
	assert.Equal(t, float64(math.MaxUint64), f)
}
