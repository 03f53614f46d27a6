package bitset

import (
	"math/bits"
	"sync/atomic"
)

// BitSet is a fixed-length bitset that many goroutines may set at once.
// Indices at or past Len are ignored.
type BitSet struct {
	words []atomic.Uint64
	n     uint64
}

// New returns a cleared BitSet of n bits.
func New(n uint64) *BitSet {
	return &BitSet{words: make([]atomic.Uint64, (n+63)/64), n: n}
}

// Len returns the number of bits.
func (b *BitSet) Len() uint64 { return b.n }

// Set sets bit i.
func (b *BitSet) Set(i uint64) {
	if i < b.n {
		b.words[i/64].Or(1 << (i % 64))
	}
}

// TestAndSet sets bit i and reports whether it was already set. Of several
// goroutines racing on the same bit exactly one sees false.
func (b *BitSet) TestAndSet(i uint64) bool {
	if i >= b.n {
		return false
	}
	mask := uint64(1) << (i % 64)
	return b.words[i/64].Or(mask)&mask != 0
}

// Test reports whether bit i is set.
func (b *BitSet) Test(i uint64) bool {
	return i < b.n && b.words[i/64].Load()&(1<<(i%64)) != 0
}

// AndNot clears the bits of b that are set in other. Both must have the
// same length.
func (b *BitSet) AndNot(other *BitSet) {
	for i := range b.words {
		if v := other.words[i].Load(); v != 0 {
			b.words[i].And(^v)
		}
	}
}

// Count returns the number of set bits.
func (b *BitSet) Count() int {
	n := 0
	for i := range b.words {
		n += bits.OnesCount64(b.words[i].Load())
	}
	return n
}

// Words copies the bits out in rank directory layout: bit i is bit i%64 of
// word i/64.
func (b *BitSet) Words() []uint64 {
	out := make([]uint64, len(b.words))
	for i := range b.words {
		out[i] = b.words[i].Load()
	}
	return out
}
