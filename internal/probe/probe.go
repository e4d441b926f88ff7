// Package probe profiles loaded input tables so a user can check how each
// file was read before merging it: the inferred kind of every column, how
// many cells are missing and how many distinct values it holds.
package probe

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/zeebo/xxh3"

	"tablemerge/internal/ddl"
	"tablemerge/internal/table"
)

// ColumnProfile summarizes one column.
type ColumnProfile struct {
	Name     string
	Kind     table.Kind
	Missing  int
	Distinct int
	// Sample is the first present value, formatted.
	Sample string
}

// Profile summarizes one source table.
type Profile struct {
	Source    string
	Rows      int
	Memory    int64
	Key       string
	KeyUnique bool
	Columns   []ColumnProfile
}

// Table profiles t, loaded from source.
func Table(source string, t *table.Table) Profile {
	p := Profile{
		Source: source,
		Rows:   t.NumRows(),
		Memory: t.MemoryUsage(),
		Key:    t.Key(),
	}
	for _, c := range t.Columns() {
		cp := profileColumn(c)
		if c.Name() == t.Key() {
			p.KeyUnique = cp.Missing == 0 && cp.Distinct == c.Len()
		}
		p.Columns = append(p.Columns, cp)
	}
	return p
}

func profileColumn(c *table.Column) ColumnProfile {
	cp := ColumnProfile{Name: c.Name(), Kind: c.Kind(), Missing: c.MissingCount()}
	seen := make(map[uint64]struct{}, c.Len())
	for i := 0; i < c.Len(); i++ {
		v := c.Value(i)
		if v.IsMissing() {
			continue
		}
		s := v.String()
		if cp.Sample == "" {
			cp.Sample = s
		}
		seen[xxh3.HashString(s)] = struct{}{}
	}
	cp.Distinct = len(seen)
	return cp
}

// Render writes p as a heading line followed by one table row per column.
func Render(w io.Writer, p Profile) error {
	key := "unique"
	if !p.KeyUnique {
		key = "not unique"
	}
	if _, err := fmt.Fprintf(w, "%s: %s rows, %d columns, %s, key %q %s\n",
		p.Source, humanize.Comma(int64(p.Rows)), len(p.Columns), humanize.Bytes(uint64(p.Memory)), p.Key, key); err != nil {
		return err
	}

	config := tablewriter.Config{}
	config.Row.Alignment = tw.CellAlignment{PerColumn: []tw.Align{tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignLeft}}
	tbl := tablewriter.NewTable(w, tablewriter.WithConfig(config))
	tbl.Header("column", "kind", "missing", "distinct", "sample")
	for _, c := range p.Columns {
		if err := tbl.Append(c.Name, c.Kind.String(), humanize.Comma(int64(c.Missing)), humanize.Comma(int64(c.Distinct)), c.Sample); err != nil {
			return fmt.Errorf("probe: render %s: %w", c.Name, err)
		}
	}
	return tbl.Render()
}

// CreateTable returns the CREATE TABLE statement the table would get from
// dialect d, guarded so it is safe to run against an existing table.
func CreateTable(fqn string, t *table.Table, d ddl.Dialect) (string, error) {
	def, err := ddl.FromTable(fqn, t, d)
	if err != nil {
		return "", fmt.Errorf("probe: %w", err)
	}
	return ddl.BuildCreateTableSQL(def, d)
}
