package builtin

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tablemerge/internal/table"
	"tablemerge/internal/transformer"
)

// Optimize stores numeric columns in the narrowest kind that holds their
// values exactly.
//
//   - Float64 columns whose present values are all integral (and fit int64)
//     become Int64.
//   - Integer columns narrow to Int8, Int16 or Int32 when their min and max
//     allow it. They never widen.
//   - Columns with no present values and string columns are left alone.
//
// Missing values stay missing. A float column converted to Int64 is not
// narrowed further in the same pass.
type Optimize struct {
	Workers int
	Log     zerolog.Logger
	Diag    *transformer.Diagnostics
}

func (Optimize) Name() string { return "optimize" }

func (o Optimize) Apply(ctx context.Context, in *table.Table) (*table.Table, error) {
	cols := in.Columns()
	out := make([]*table.Column, len(cols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(o.Workers))
	for i, col := range cols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			target, ok := optimalKind(col)
			if !ok {
				out[i] = col
				return nil
			}
			cast, err := col.Cast(target)
			if err != nil {
				// optimalKind only proposes lossless targets.
				o.Diag.Add(transformer.Diagnostic{Stage: o.Name(), Subject: col.Name(), Message: "left unchanged", Err: err})
				out[i] = col
				return nil
			}
			o.Log.Debug().Str("column", col.Name()).Stringer("from", col.Kind()).Stringer("to", target).Msg("column narrowed")
			out[i] = cast
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res, err := in.WithColumns(out)
	if err != nil {
		return nil, err
	}
	before, after := in.MemoryUsage(), res.MemoryUsage()
	o.Log.Info().
		Str("before", humanize.Bytes(uint64(before))).
		Str("after", humanize.Bytes(uint64(after))).
		Int64("saved_bytes", before-after).
		Msg("memory footprint")
	return res, nil
}

// optimalKind returns the kind col should be stored as and whether it
// differs from the current one.
func optimalKind(col *table.Column) (table.Kind, bool) {
	k := col.Kind()
	if !k.IsNumeric() {
		return k, false
	}

	var lo, hi int64
	seen := false
	for r := 0; r < col.Len(); r++ {
		v := col.Value(r)
		if v.IsMissing() {
			continue
		}
		n, ok := v.Integral()
		if !ok {
			return k, false
		}
		if !seen {
			lo, hi, seen = n, n, true
			continue
		}
		lo, hi = min(lo, n), max(hi, n)
	}
	if !seen {
		return k, false
	}
	if k == table.KindFloat64 {
		return table.KindInt64, true
	}
	target := table.IntKindFor(lo, hi)
	return target, target < k
}
