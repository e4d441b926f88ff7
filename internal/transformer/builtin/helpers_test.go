package builtin

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"tablemerge/internal/table"
)

const teamNo = "TEAM NO"

func ints(name string, vals ...any) *table.Column {
	return table.FromAny(name, table.KindInt64, vals...)
}

func floats(name string, vals ...any) *table.Column {
	return table.FromAny(name, table.KindFloat64, vals...)
}

func strs(name string, vals ...any) *table.Column {
	return table.FromAny(name, table.KindString, vals...)
}

func src(name string, cols ...*table.Column) Source {
	return Source{Name: name, Table: table.MustNew(teamNo, cols...)}
}

// column returns the values of name as plain Go values (nil for missing).
func column(t *testing.T, tbl *table.Table, name string) []any {
	t.Helper()
	c, ok := tbl.Column(name)
	require.Truef(t, ok, "column %q not in %v", name, tbl.Names())
	out := make([]any, c.Len())
	for i := range out {
		out[i] = c.Value(i).Any()
	}
	return out
}

func quiet() zerolog.Logger { return zerolog.Nop() }
