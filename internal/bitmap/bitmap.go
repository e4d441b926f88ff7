// Package bitmap provides a compact bitset used as the per-row validity mask
// of table columns. Bit i set means row i holds a value.
package bitmap

import "math/bits"

// Bitmap is a growable bitset backed by a slice of uint64 words.
type Bitmap struct {
	data []uint64
	n    int
}

// New returns a bitmap of n cleared bits.
//
// If n <= 0, no backing storage is allocated and the bitmap is empty.
func New(n int) *Bitmap {
	if n <= 0 {
		return &Bitmap{}
	}
	return &Bitmap{data: make([]uint64, (n+63)/64), n: n}
}

// WithCapacity returns an empty bitmap with room for n bits before growing.
func WithCapacity(n int) *Bitmap {
	if n < 0 {
		n = 0
	}
	return &Bitmap{data: make([]uint64, 0, (n+63)/64)}
}

// Len is the number of bits in the bitmap.
func (b *Bitmap) Len() int { return b.n }

// Append adds one bit at the end.
func (b *Bitmap) Append(set bool) {
	if b.n%64 == 0 {
		b.data = append(b.data, 0)
	}
	if set {
		b.data[b.n/64] |= 1 << uint(b.n%64)
	}
	b.n++
}

// Set sets bit i. Indices outside [0, Len) are ignored.
func (b *Bitmap) Set(i int) {
	if i < 0 || i >= b.n {
		return
	}
	b.data[i/64] |= 1 << uint(i%64)
}

// Has reports whether bit i is set. Indices outside [0, Len) report false.
func (b *Bitmap) Has(i int) bool {
	if i < 0 || i >= b.n {
		return false
	}
	return b.data[i/64]&(1<<uint(i%64)) != 0
}

// Count returns the number of set bits.
func (b *Bitmap) Count() int {
	c := 0
	for _, w := range b.data {
		c += bits.OnesCount64(w)
	}
	return c
}

// All reports whether every bit is set.
func (b *Bitmap) All() bool { return b.Count() == b.n }

// Bytes is the size of the backing storage.
func (b *Bitmap) Bytes() int { return len(b.data) * 8 }
