package table

import (
	"errors"
	"fmt"
)

var (
	ErrLengthMismatch  = errors.New("table: column length mismatch")
	ErrDuplicateColumn = errors.New("table: duplicate column name")
)

// Table is an immutable ordered collection of equally long columns. Key names
// the column rows are identified by; a table read from a source that lacks
// it still records the expected key name.
type Table struct {
	key     string
	columns []*Column
	index   map[string]int
	rows    int
}

// New assembles a table. Every column must have the same length and names
// must be unique.
func New(key string, cols ...*Column) (*Table, error) {
	t := &Table{key: key, columns: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrLengthMismatch, c.Name(), c.Len(), t.rows)
		}
		if _, dup := t.index[c.Name()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name())
		}
		t.index[c.Name()] = i
	}
	return t, nil
}

// MustNew is New for statically known inputs; it panics on error.
func MustNew(key string, cols ...*Column) *Table {
	t, err := New(key, cols...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Key() string  { return t.key }
func (t *Table) NumRows() int { return t.rows }
func (t *Table) NumCols() int { return len(t.columns) }

// HasKey reports whether the key column is present.
func (t *Table) HasKey() bool { return t.Has(t.key) }

// KeyColumn returns the key column, or nil when absent.
func (t *Table) KeyColumn() *Column {
	c, _ := t.Column(t.key)
	return c
}

func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

func (t *Table) ColumnAt(i int) *Column { return t.columns[i] }

// Columns returns the columns in order. The slice is a copy.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.columns...)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Name()
	}
	return out
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.columns))
	for j, c := range t.columns {
		out[j] = c.Value(i)
	}
	return out
}

// WithColumns returns a table with the same key over cols.
func (t *Table) WithColumns(cols []*Column) (*Table, error) {
	return New(t.key, cols...)
}

// Drop returns a table without the named columns. The key column is never
// dropped; unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		if n != t.key {
			skip[n] = true
		}
	}
	kept := make([]*Column, 0, len(t.columns))
	for _, c := range t.columns {
		if !skip[c.Name()] {
			kept = append(kept, c)
		}
	}
	return MustNew(t.key, kept...)
}

// Take returns a table whose row j is row rows[j] of t; negative indexes
// produce all-missing rows.
func (t *Table) Take(rows []int) *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.Take(rows)
	}
	out := MustNew(t.key, cols...)
	out.rows = len(rows)
	return out
}

// MemoryUsage estimates the bytes held by every column.
func (t *Table) MemoryUsage() int64 {
	var n int64
	for _, c := range t.columns {
		n += c.MemoryUsage()
	}
	return n
}

// Equal reports whether t and o have the same key, the same columns in the
// same order with the same kinds, and equal values row by row.
func (t *Table) Equal(o *Table) bool {
	if t.key != o.key || t.rows != o.rows || len(t.columns) != len(o.columns) {
		return false
	}
	for i, c := range t.columns {
		oc := o.columns[i]
		if c.Name() != oc.Name() || c.Kind() != oc.Kind() {
			return false
		}
		for r := 0; r < t.rows; r++ {
			eq, err := Equal(c.Value(r), oc.Value(r))
			if err != nil || !eq {
				return false
			}
		}
	}
	return true
}
