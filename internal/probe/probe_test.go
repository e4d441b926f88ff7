package probe

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablemerge/internal/ddl"
	"tablemerge/internal/table"
)

func sample() *table.Table {
	return table.MustNew("TEAM NO",
		table.FromAny("TEAM NO", table.KindInt16, 1, 2, 3),
		table.FromAny("Name", table.KindString, nil, "b", "b"),
		table.FromAny("Score", table.KindFloat64, 1.5, nil, nil),
	)
}

func TestTable(t *testing.T) {
	p := Table("a.csv", sample())

	assert.Equal(t, "a.csv", p.Source)
	assert.Equal(t, 3, p.Rows)
	assert.True(t, p.KeyUnique)
	require.Len(t, p.Columns, 3)

	assert.Equal(t, ColumnProfile{Name: "TEAM NO", Kind: table.KindInt16, Missing: 0, Distinct: 3, Sample: "1"}, p.Columns[0])
	assert.Equal(t, ColumnProfile{Name: "Name", Kind: table.KindString, Missing: 1, Distinct: 1, Sample: "b"}, p.Columns[1])
	assert.Equal(t, ColumnProfile{Name: "Score", Kind: table.KindFloat64, Missing: 2, Distinct: 1, Sample: "1.5"}, p.Columns[2])
}

func TestTableDuplicateKey(t *testing.T) {
	tbl := table.MustNew("K", table.FromAny("K", table.KindInt64, 1, 1))
	assert.False(t, Table("dup.csv", tbl).KeyUnique)

	missing := table.MustNew("K", table.FromAny("K", table.KindInt64, 1, nil))
	assert.False(t, Table("gap.csv", missing).KeyUnique)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Table("a.csv", sample())))

	out := buf.String()
	assert.Contains(t, out, `a.csv: 3 rows, 3 columns`)
	assert.Contains(t, out, `key "TEAM NO" unique`)
	assert.Contains(t, out, "Score")
	assert.Contains(t, out, "float64")
	assert.Contains(t, out, "1.5")
}

func TestCreateTable(t *testing.T) {
	sql, err := CreateTable("teams", sample(), ddl.Generic)
	require.NoError(t, err)
	assert.Contains(t, sql, "CREATE TABLE teams (")
	assert.Contains(t, sql, "TEAM NO SMALLINT NOT NULL")
	assert.Contains(t, sql, "Score DOUBLE PRECISION")
	assert.Contains(t, sql, "PRIMARY KEY (TEAM NO)")

	_, err = CreateTable("", sample(), ddl.Generic)
	assert.Error(t, err)
}
