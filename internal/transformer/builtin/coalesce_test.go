package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablemerge/internal/table"
	"tablemerge/internal/transformer"
)

func coalesce(t *testing.T, diag *transformer.Diagnostics, in *table.Table) *table.Table {
	t.Helper()
	out, err := Coalesce{Workers: 2, Log: quiet(), Diag: diag}.Apply(context.Background(), in)
	require.NoError(t, err)
	return out
}

/*
TestCoalesce_IdenticalVariantsDropped: variants equal to the master on every
row (missing equals missing) are dropped.
*/
func TestCoalesce_IdenticalVariantsDropped(t *testing.T) {
	in := table.MustNew(teamNo,
		ints(teamNo, 1, 2),
		ints("X", 10, nil),
		ints("Y", 1, 2),
		ints("X_file2", 10, nil),
	)
	out := coalesce(t, nil, in)
	assert.Equal(t, []string{teamNo, "X", "Y"}, out.Names())
	assert.Equal(t, []any{int64(10), nil}, column(t, out, "X"))
}

/*
TestCoalesce_FoldFirstPresent: differing variants are folded row by row, the
master first, into a column named after the base at the master's position.
*/
func TestCoalesce_FoldFirstPresent(t *testing.T) {
	in := table.MustNew(teamNo,
		ints(teamNo, 1, 2, 3),
		ints("X", 10, nil, nil),
		ints("Y", 0, 0, 0),
		ints("X_file2", 99, 20, nil),
		floats("X_file3", nil, nil, 3.5),
	)
	out := coalesce(t, nil, in)
	assert.Equal(t, []string{teamNo, "X", "Y"}, out.Names())
	assert.Equal(t, []any{10.0, 20.0, 3.5}, column(t, out, "X"))

	x, _ := out.Column("X")
	assert.Equal(t, table.KindFloat64, x.Kind())
	assert.Equal(t, 0, x.Origin())
}

/*
TestCoalesce_MasterWithSuffix: when only suffixed variants exist, the folded
column still takes the base name.
*/
func TestCoalesce_MasterWithSuffix(t *testing.T) {
	in := table.MustNew(teamNo,
		ints(teamNo, 1),
		ints("S_file2", 4),
		ints("S_file3", 4),
	)
	out := coalesce(t, nil, in)
	assert.Equal(t, []string{teamNo, "S"}, out.Names())
}

/*
TestCoalesce_Idempotent: running the stage on its own output changes nothing.
*/
func TestCoalesce_Idempotent(t *testing.T) {
	in := table.MustNew(teamNo,
		ints(teamNo, 1, 2),
		ints("X", 1, nil),
		ints("X_file2", 2, 3),
		strs("N", "a", "b"),
		strs("N_file2", "a", "b"),
	)
	once := coalesce(t, nil, in)
	twice := coalesce(t, nil, once)
	assert.True(t, once.Equal(twice))
	assert.Equal(t, []string{teamNo, "X", "N"}, once.Names())
}

/*
TestCoalesce_IncomparableGroupIsolated: a group mixing text and numbers is
left untouched and reported, the other groups are still coalesced.
*/
func TestCoalesce_IncomparableGroupIsolated(t *testing.T) {
	var diag transformer.Diagnostics
	in := table.MustNew(teamNo,
		ints(teamNo, 1),
		strs("A", "x"),
		ints("A_file2", 1),
		ints("B", 5),
		ints("B_file2", 5),
	)
	out := coalesce(t, &diag, in)
	assert.Equal(t, []string{teamNo, "A", "A_file2", "B"}, out.Names())
	require.Equal(t, 1, diag.Len())
	var cce *ColumnComparisonError
	require.ErrorAs(t, diag.All()[0].Err, &cce)
	assert.Equal(t, "A", cce.Column)
	assert.Equal(t, "A_file2", cce.Variant)
}

/*
TestCoalesce_UsesExplicitProvenance: grouping follows column metadata, so a
variant renamed by the merger groups with its base even when the name alone
would not say so.
*/
func TestCoalesce_UsesExplicitProvenance(t *testing.T) {
	variant := ints("points from b", 7).WithProvenance("points from b", "P", 2)
	in := table.MustNew(teamNo, ints(teamNo, 1), ints("P", nil), variant)
	out := coalesce(t, nil, in)
	assert.Equal(t, []string{teamNo, "P"}, out.Names())
	assert.Equal(t, []any{int64(7)}, column(t, out, "P"))
}
