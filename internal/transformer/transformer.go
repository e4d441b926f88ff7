// Package transformer defines the Table-in/Table-out stage contract used by
// the merge pipeline and a collector for the non-fatal diagnostics stages
// emit while they run.
package transformer

import (
	"context"
	"fmt"

	"tablemerge/internal/table"
)

// Stage transforms one table into a new one. Implementations must not
// mutate their input.
type Stage interface {
	Name() string
	Apply(ctx context.Context, in *table.Table) (*table.Table, error)
}

// Chain is an ordered list of stages.
type Chain []Stage

// Apply runs every stage in order, threading the output of one into the
// next. It stops at the first error or when ctx is done.
func (c Chain) Apply(ctx context.Context, in *table.Table) (*table.Table, error) {
	out := in
	for _, s := range c {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := s.Apply(ctx, out)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name(), err)
		}
		out = next
	}
	return out, nil
}
