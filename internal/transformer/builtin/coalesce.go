package builtin

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tablemerge/internal/table"
	"tablemerge/internal/transformer"
)

// Coalesce folds columns that share a base name into one column named after
// the base.
//
// The first member of a group (in column order) is the master. When every
// other variant equals the master on every row (missing equals missing), the
// variants are dropped. Otherwise each row takes the first present value
// scanning the group in order, master first. The folded column takes the
// master's position.
//
// A group whose variants cannot be compared is left as is and reported as a
// *ColumnComparisonError diagnostic. Groups are processed concurrently.
type Coalesce struct {
	Workers int
	Log     zerolog.Logger
	Diag    *transformer.Diagnostics
}

func (Coalesce) Name() string { return "coalesce" }

type coalesced struct {
	col *table.Column // nil when the group was left untouched
	err error
}

func (c Coalesce) Apply(ctx context.Context, in *table.Table) (*table.Table, error) {
	cols := in.Columns()

	// Group members by base name, in order of first appearance.
	var bases []string
	members := make(map[string][]int)
	for i, col := range cols {
		b := col.Base()
		if _, ok := members[b]; !ok {
			bases = append(bases, b)
		}
		members[b] = append(members[b], i)
	}

	results := make([]coalesced, len(bases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(c.Workers))
	for gi, b := range bases {
		idx := members[b]
		if len(idx) < 2 {
			continue
		}
		group := make([]*table.Column, len(idx))
		for j, i := range idx {
			group[j] = cols[i]
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			col, err := coalesceGroup(b, group)
			results[gi] = coalesced{col: col, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	folded := make(map[string]*table.Column, len(bases))
	for gi, b := range bases {
		res := results[gi]
		var cce *ColumnComparisonError
		switch {
		case errors.As(res.err, &cce):
			c.Log.Warn().Err(res.err).Str("column", b).Msg("variants left uncoalesced")
			c.Diag.Add(transformer.Diagnostic{Stage: c.Name(), Subject: b, Message: "variants left uncoalesced", Err: res.err})
		case res.err != nil:
			return nil, res.err
		case res.col != nil:
			folded[b] = res.col
			c.Log.Debug().Str("column", b).Int("variants", len(members[b])).Msg("variants coalesced")
		}
	}

	// Original column order; a folded group sits where its master was.
	out := make([]*table.Column, 0, len(cols))
	for i, col := range cols {
		f, ok := folded[col.Base()]
		switch {
		case !ok:
			out = append(out, col)
		case members[col.Base()][0] == i:
			out = append(out, f)
		}
	}
	return in.WithColumns(out)
}

// coalesceGroup folds group (master first) into a single column named base.
func coalesceGroup(base string, group []*table.Column) (*table.Column, error) {
	master := group[0]
	kind := master.Kind()
	for _, v := range group[1:] {
		if !table.Comparable(master.Kind(), v.Kind()) {
			return nil, &ColumnComparisonError{Column: master.Name(), Variant: v.Name(), Left: master.Kind(), Right: v.Kind()}
		}
		kind = table.Promote(kind, v.Kind())
	}

	identical := true
	for _, v := range group[1:] {
		if !sameValues(master, v) {
			identical = false
			break
		}
	}
	if identical {
		return master.WithName(base), nil
	}

	n := master.Len()
	b := table.NewBuilder(base, kind, n)
	for r := 0; r < n; r++ {
		val := table.Missing()
		for _, v := range group {
			if !v.IsMissing(r) {
				val = v.Value(r)
				break
			}
		}
		b.Append(val)
	}
	return b.Column().WithName(base), nil
}

func sameValues(a, b *table.Column) bool {
	for r := 0; r < a.Len(); r++ {
		eq, err := table.Equal(a.Value(r), b.Value(r))
		if err != nil || !eq {
			return false
		}
	}
	return true
}
