package builtin

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"tablemerge/internal/table"
	"tablemerge/internal/transformer"
)

// Source is one input table together with the name it was loaded from.
type Source struct {
	Name  string
	Table *table.Table
}

// Merger folds sources into a single table with an outer join on Key.
//
// For every column shared by the accumulated table and the next source, the
// merger looks at the rows the two sides have in common (equal, present
// key) where both carry a value. If there is at least one such pair and all
// of them agree, the column is treated as the same fact and joins the merge
// predicate, so the join produces one column. Otherwise the incoming column
// is kept apart under <name>_file<i>, where i is the 1-based position of the
// source among those that have the key.
//
// Sources are folded strictly in order; the outcome for source i depends on
// everything merged before it.
type Merger struct {
	Key  string
	Log  zerolog.Logger
	Diag *transformer.Diagnostics
}

const mergeStage = "merge"

// Merge folds sources in order. Sources lacking the key column are skipped
// with a diagnostic; if none has it, Merge returns ErrNoMatchingSources.
func (m Merger) Merge(ctx context.Context, sources []Source) (*table.Table, error) {
	var acc *table.Table
	pos := 0
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if src.Table == nil || !src.Table.Has(m.Key) {
			m.Log.Warn().Str("source", src.Name).Str("key", m.Key).Msg("source has no key column, skipped")
			m.Diag.Add(transformer.Diagnostic{
				Stage:   mergeStage,
				Subject: src.Name,
				Message: fmt.Sprintf("no key column %q, skipped", m.Key),
			})
			continue
		}
		pos++
		if acc == nil {
			acc = src.Table
		} else {
			next, err := m.fold(acc, src, pos)
			if err != nil {
				return nil, fmt.Errorf("%s: %s: %w", mergeStage, src.Name, err)
			}
			acc = next
		}
		m.Log.Info().
			Str("source", src.Name).
			Int("position", pos).
			Int("rows", acc.NumRows()).
			Int("cols", acc.NumCols()).
			Msg("source merged")
	}
	if acc == nil {
		return nil, fmt.Errorf("%s: %w: key %q", mergeStage, ErrNoMatchingSources, m.Key)
	}
	return acc, nil
}

// fold merges src (at 1-based position pos) into acc.
func (m Merger) fold(acc *table.Table, src Source, pos int) (*table.Table, error) {
	right := src.Table
	predicate, renames, err := m.decide(acc, src, pos)
	if err != nil {
		return nil, err
	}

	leftCols := columnsByName(acc, predicate)
	rightCols := columnsByName(right, predicate)
	idx := newRowIndex(rightCols, false)

	// Phase 1: every accumulator row, once per matching source row.
	var leftRows, rightRows []int
	matched := make([]bool, right.NumRows())
	for r := 0; r < acc.NumRows(); r++ {
		hits := idx.lookup(leftCols, r)
		if len(hits) == 0 {
			leftRows = append(leftRows, r)
			rightRows = append(rightRows, -1)
			continue
		}
		for _, h := range hits {
			matched[h] = true
			leftRows = append(leftRows, r)
			rightRows = append(rightRows, h)
		}
	}
	// Phase 2: source rows nobody matched, in source order.
	for r, ok := range matched {
		if !ok {
			leftRows = append(leftRows, -1)
			rightRows = append(rightRows, r)
		}
	}

	inPredicate := make(map[string]bool, len(predicate))
	for _, p := range predicate {
		inPredicate[p] = true
	}

	out := make([]*table.Column, 0, acc.NumCols()+right.NumCols())
	for _, lc := range acc.Columns() {
		if !inPredicate[lc.Name()] {
			out = append(out, lc.Take(leftRows))
			continue
		}
		rc, _ := right.Column(lc.Name())
		out = append(out, joinPredicateColumn(lc, rc, leftRows, rightRows))
	}
	for _, rc := range right.Columns() {
		if inPredicate[rc.Name()] {
			continue
		}
		col := rc.Take(rightRows)
		if newName, ok := renames[rc.Name()]; ok {
			col = col.WithProvenance(newName, rc.Name(), pos)
		}
		out = append(out, col)
	}
	return table.New(m.Key, out...)
}

// decide returns the join predicate (key first, then agreeing columns in
// accumulator order) and the renames for conflicting source columns.
func (m Merger) decide(acc *table.Table, src Source, pos int) ([]string, map[string]string, error) {
	right := src.Table
	var common []string
	for _, name := range acc.Names() {
		if name != m.Key && right.Has(name) {
			common = append(common, name)
		}
	}

	verdicts := make(map[string]*agreement, len(common))
	for _, name := range common {
		lc, _ := acc.Column(name)
		rc, _ := right.Column(name)
		v := &agreement{left: lc, right: rc}
		if !table.Comparable(lc.Kind(), rc.Kind()) {
			v.err = &ColumnComparisonError{Column: name, Variant: name, Left: lc.Kind(), Right: rc.Kind()}
		}
		verdicts[name] = v
	}

	if len(common) > 0 {
		lk := acc.KeyColumn()
		rk := right.KeyColumn()
		idx := newRowIndex([]*table.Column{rk}, true)
		probe := []*table.Column{lk}
		for r := 0; r < acc.NumRows(); r++ {
			if lk.IsMissing(r) {
				continue
			}
			for _, h := range idx.lookup(probe, r) {
				for _, name := range common {
					verdicts[name].observe(r, h)
				}
			}
		}
	}

	predicate := []string{m.Key}
	renames := make(map[string]string)
	for _, name := range common {
		v := verdicts[name]
		if v.agrees() {
			predicate = append(predicate, name)
			continue
		}
		newName := table.ProvenanceName(name, pos)
		if acc.Has(newName) || right.Has(newName) {
			return nil, nil, fmt.Errorf("%w: %q renamed to %q", ErrNameCollision, name, newName)
		}
		renames[name] = newName

		reason := "conflicting values"
		switch {
		case v.err != nil:
			reason = "incomparable kinds"
			m.Diag.Add(transformer.Diagnostic{Stage: mergeStage, Subject: name, Message: "incomparable variants kept apart", Err: v.err})
		case v.pairs == 0:
			reason = "no comparable overlap"
		}
		m.Log.Debug().
			Str("source", src.Name).
			Str("column", name).
			Str("renamed", newName).
			Str("reason", reason).
			Msg("column kept apart")
	}
	return predicate, renames, nil
}

// agreement accumulates the comparison of one shared column over the rows
// both sides have in common. Pairs with a missing value on either side are
// left out; they neither confirm nor refute.
type agreement struct {
	left, right *table.Column
	pairs       int
	conflict    bool
	err         error
}

func (a *agreement) observe(l, r int) {
	if a.conflict || a.err != nil {
		return
	}
	lv, rv := a.left.Value(l), a.right.Value(r)
	if lv.IsMissing() || rv.IsMissing() {
		return
	}
	a.pairs++
	eq, err := table.Equal(lv, rv)
	if err != nil {
		a.err = err
		return
	}
	if !eq {
		a.conflict = true
	}
}

func (a *agreement) agrees() bool {
	return a.err == nil && !a.conflict && a.pairs > 0
}

func columnsByName(t *table.Table, names []string) []*table.Column {
	out := make([]*table.Column, len(names))
	for i, n := range names {
		out[i], _ = t.Column(n)
	}
	return out
}

// joinPredicateColumn builds the single output column for a predicate
// column: the accumulator value where the row came from the accumulator,
// the source value otherwise.
func joinPredicateColumn(lc, rc *table.Column, leftRows, rightRows []int) *table.Column {
	kind := table.Promote(lc.Kind(), rc.Kind())
	b := table.NewBuilder(lc.Name(), kind, len(leftRows))
	for i, l := range leftRows {
		if l >= 0 {
			b.Append(lc.Value(l))
		} else {
			b.Append(rc.Value(rightRows[i]))
		}
	}
	return b.Column().WithProvenance(lc.Name(), lc.Base(), lc.Origin())
}
