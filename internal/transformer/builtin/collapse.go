package builtin

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"

	"tablemerge/internal/table"
	"tablemerge/internal/transformer"
)

// Collapse reduces a table to one row per key value.
//
// The reduction is per column, not per row: for each key and each column the
// first present value among that key's rows (in input order) is kept, so two
// cells of an output row may come from different input rows. Rows whose key
// is missing cannot be grouped and are dropped. Output rows are ordered by
// ascending key.
type Collapse struct {
	Log  zerolog.Logger
	Diag *transformer.Diagnostics
}

func (Collapse) Name() string { return "collapse" }

type keyGroup struct {
	key  table.Value
	rows []int
}

func (c Collapse) Apply(ctx context.Context, in *table.Table) (*table.Table, error) {
	keyCol := in.KeyColumn()
	if keyCol == nil {
		return nil, fmt.Errorf("%s: %w: %q", c.Name(), ErrKeyNotFound, in.Key())
	}

	groups, dropped := groupByKey(keyCol)
	if dropped > 0 {
		c.Log.Warn().Int("rows", dropped).Msg("rows without key dropped")
		c.Diag.Add(transformer.Diagnostic{
			Stage:   c.Name(),
			Subject: in.Key(),
			Message: fmt.Sprintf("%d rows without key dropped", dropped),
		})
	}
	sort.SliceStable(groups, func(i, j int) bool { return table.Less(groups[i].key, groups[j].key) })

	cols := in.Columns()
	out := make([]*table.Column, len(cols))
	pick := make([]int, len(groups))
	for i, col := range cols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for g, grp := range groups {
			pick[g] = firstPresent(col, grp.rows)
		}
		out[i] = col.Take(pick)
	}

	c.Log.Debug().Int("rows_in", in.NumRows()).Int("rows_out", len(groups)).Msg("rows collapsed")
	return in.WithColumns(out)
}

// groupByKey partitions rows by key value in order of first appearance.
func groupByKey(key *table.Column) (groups []keyGroup, dropped int) {
	buckets := make(map[uint64][]int, key.Len())
	var buf []byte
	for r := 0; r < key.Len(); r++ {
		v := key.Value(r)
		if v.IsMissing() {
			dropped++
			continue
		}
		buf = appendKey(buf[:0], v)
		h := xxh3.Hash(buf)
		found := false
		for _, g := range buckets[h] {
			if eq, err := table.Equal(groups[g].key, v); err == nil && eq {
				groups[g].rows = append(groups[g].rows, r)
				found = true
				break
			}
		}
		if !found {
			buckets[h] = append(buckets[h], len(groups))
			groups = append(groups, keyGroup{key: v, rows: []int{r}})
		}
	}
	return groups, dropped
}

// firstPresent returns the first row in rows where col has a value, or -1.
func firstPresent(col *table.Column, rows []int) int {
	for _, r := range rows {
		if !col.IsMissing(r) {
			return r
		}
	}
	return -1
}
