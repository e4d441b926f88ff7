package builtin

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"

	"tablemerge/internal/table"
)

// Tags keep values of different shapes from sharing an encoding.
const (
	tagMissing byte = iota
	tagInt
	tagFloat
	tagString
)

// appendKey appends a canonical encoding of v to dst. Values that are equal
// under table.Equal encode identically: integral floats are encoded as
// integers so that 10 and 10.0 land in the same bucket.
func appendKey(dst []byte, v table.Value) []byte {
	if v.IsMissing() {
		return append(dst, tagMissing)
	}
	if i, ok := v.Integral(); ok {
		dst = append(dst, tagInt)
		return binary.LittleEndian.AppendUint64(dst, uint64(i))
	}
	if f, ok := v.Float(); ok {
		dst = append(dst, tagFloat)
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(f))
	}
	s, _ := v.Text()
	dst = append(dst, tagString)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(s)))
	return append(dst, s...)
}

// rowIndex maps the tuple of values in cols to the rows that hold it.
// Lookups are verified with null-aware equality so hash collisions never
// produce false matches.
type rowIndex struct {
	cols    []*table.Column
	buckets map[uint64][]int
	buf     []byte
}

// newRowIndex indexes every row of cols. When presentOnly is set, rows with
// a missing value in any indexed column are left out.
func newRowIndex(cols []*table.Column, presentOnly bool) *rowIndex {
	n := 0
	if len(cols) > 0 {
		n = cols[0].Len()
	}
	x := &rowIndex{cols: cols, buckets: make(map[uint64][]int, n)}
rows:
	for r := 0; r < n; r++ {
		if presentOnly {
			for _, c := range cols {
				if c.IsMissing(r) {
					continue rows
				}
			}
		}
		h := x.hash(cols, r)
		x.buckets[h] = append(x.buckets[h], r)
	}
	return x
}

func (x *rowIndex) hash(cols []*table.Column, row int) uint64 {
	x.buf = x.buf[:0]
	for _, c := range cols {
		x.buf = appendKey(x.buf, c.Value(row))
	}
	return xxh3.Hash(x.buf)
}

// lookup returns the indexed rows whose tuple equals the tuple at row of
// probe, in ascending row order. probe must be parallel to the indexed
// columns.
func (x *rowIndex) lookup(probe []*table.Column, row int) []int {
	cand := x.buckets[x.hash(probe, row)]
	if len(cand) == 0 {
		return nil
	}
	out := make([]int, 0, len(cand))
	for _, r := range cand {
		if x.matches(probe, row, r) {
			out = append(out, r)
		}
	}
	return out
}

func (x *rowIndex) matches(probe []*table.Column, prow, irow int) bool {
	for i, c := range x.cols {
		eq, err := table.Equal(probe[i].Value(prow), c.Value(irow))
		if err != nil || !eq {
			return false
		}
	}
	return true
}
