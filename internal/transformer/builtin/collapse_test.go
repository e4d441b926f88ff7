package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablemerge/internal/table"
	"tablemerge/internal/transformer"
)

func collapse(t *testing.T, in *table.Table) *table.Table {
	t.Helper()
	out, err := Collapse{Log: quiet()}.Apply(context.Background(), in)
	require.NoError(t, err)
	return out
}

/*
TestCollapse_FirstPresentWins covers the two reference cases: the first
present value wins even when later rows have values, and a leading missing
value is skipped.
*/
func TestCollapse_FirstPresentWins(t *testing.T) {
	out := collapse(t, table.MustNew(teamNo, ints(teamNo, 1, 1, 1), ints("v", 5, nil, 7)))
	assert.Equal(t, []any{int64(5)}, column(t, out, "v"))

	out = collapse(t, table.MustNew(teamNo, ints(teamNo, 1, 1), ints("v", nil, 7)))
	assert.Equal(t, []any{int64(7)}, column(t, out, "v"))
}

/*
TestCollapse_PerColumnNotPerRow: cells of one output row may come from
different input rows.
*/
func TestCollapse_PerColumnNotPerRow(t *testing.T) {
	in := table.MustNew(teamNo,
		ints(teamNo, 2, 1, 2, 1),
		strs("Team", nil, "Lions", "Bears", nil),
		ints("Score", 3, nil, 9, 4),
	)
	out := collapse(t, in)
	require.Equal(t, 2, out.NumRows())
	assert.Equal(t, []any{int64(1), int64(2)}, column(t, out, teamNo))
	assert.Equal(t, []any{"Lions", "Bears"}, column(t, out, "Team"))
	assert.Equal(t, []any{int64(4), int64(3)}, column(t, out, "Score"))
}

/*
TestCollapse_Cardinality: n rows spanning k keys yield k rows, all missing
cells stay missing, and column kinds are preserved.
*/
func TestCollapse_Cardinality(t *testing.T) {
	in := table.MustNew(teamNo,
		table.FromAny(teamNo, table.KindInt16, 3, 1, 3, 2, 1, 3),
		floats("f", nil, nil, nil, 1.5, nil, nil),
	)
	out := collapse(t, in)
	assert.Equal(t, 3, out.NumRows())
	assert.Equal(t, []any{nil, 1.5, nil}, column(t, out, "f"))
	k, _ := out.Column(teamNo)
	assert.Equal(t, table.KindInt16, k.Kind())
}

func TestCollapse_DropsMissingKeys(t *testing.T) {
	var diag transformer.Diagnostics
	in := table.MustNew(teamNo, ints(teamNo, 1, nil, 1), ints("v", nil, 8, 2))
	out, err := Collapse{Log: quiet(), Diag: &diag}.Apply(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1)}, column(t, out, teamNo))
	assert.Equal(t, []any{int64(2)}, column(t, out, "v"))
	assert.Equal(t, 1, diag.Len())
}

func TestCollapse_StringKeysSorted(t *testing.T) {
	in := table.MustNew(teamNo, strs(teamNo, "b", "a", "b"), ints("v", 1, 2, 3))
	out := collapse(t, in)
	assert.Equal(t, []any{"a", "b"}, column(t, out, teamNo))
	assert.Equal(t, []any{int64(2), int64(1)}, column(t, out, "v"))
}

func TestCollapse_Idempotent(t *testing.T) {
	in := table.MustNew(teamNo, ints(teamNo, 2, 1, 2), ints("v", nil, 1, 5))
	once := collapse(t, in)
	twice := collapse(t, once)
	assert.True(t, once.Equal(twice))
}

func TestCollapse_KeyNotFound(t *testing.T) {
	_, err := Collapse{Log: quiet()}.Apply(context.Background(), table.MustNew(teamNo, ints("v", 1)))
	require.ErrorIs(t, err, ErrKeyNotFound)
}
