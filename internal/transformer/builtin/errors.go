package builtin

import (
	"errors"
	"fmt"

	"tablemerge/internal/table"
)

var (
	// ErrNoMatchingSources means none of the sources handed to the merger
	// carries the key column.
	ErrNoMatchingSources = errors.New("no matching sources")

	// ErrNameCollision means a conflicting column could not be renamed
	// because the provenance name is already taken.
	ErrNameCollision = errors.New("column name collision")

	// ErrKeyNotFound means a stage that groups by key got a table without
	// its key column.
	ErrKeyNotFound = errors.New("key column not found")
)

// ColumnComparisonError reports two variants of a column whose kinds cannot
// be compared. It wraps table.ErrIncomparable.
type ColumnComparisonError struct {
	Column  string
	Variant string
	Left    table.Kind
	Right   table.Kind
}

func (e *ColumnComparisonError) Error() string {
	return fmt.Sprintf("compare %q with %q: %s vs %s: %v", e.Column, e.Variant, e.Left, e.Right, table.ErrIncomparable)
}

func (e *ColumnComparisonError) Unwrap() error { return table.ErrIncomparable }
