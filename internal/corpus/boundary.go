package corpus

import (
	"io"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/saidx/internal/rank"
)

// Boundaries is the boundary bit vector plus a rank directory over it.
// It is immutable and safe for concurrent readers.
type Boundaries struct {
	bits *bitset.BitSet
	dir  *rank.Directory
}

// NewBoundaries indexes bits for rank queries. bits must not be modified
// afterwards.
func NewBoundaries(bits *bitset.BitSet) *Boundaries {
	return &Boundaries{
		bits: bits,
		dir:  rank.New(bits.Words(), uint64(bits.Len())),
	}
}

// ReadBoundaries loads a bit vector written by WriteTo.
func ReadBoundaries(r io.Reader) (*Boundaries, error) {
	bits := &bitset.BitSet{}
	if _, err := bits.ReadFrom(r); err != nil {
		return nil, err
	}
	return NewBoundaries(bits), nil
}

// WriteTo writes the bit vector in the bitset package's native format.
func (b *Boundaries) WriteTo(w io.Writer) (int64, error) {
	return b.bits.WriteTo(w)
}

// Len returns the number of positions covered.
func (b *Boundaries) Len() uint64 { return b.dir.Len() }

// Count returns the number of set bits, one per sequence.
func (b *Boundaries) Count() uint64 { return b.dir.Ones() }

// Test reports whether position i is the last residue of a sequence.
func (b *Boundaries) Test(i uint64) bool { return b.dir.Test(i) }

// Rank returns the number of boundaries in [0, i].
func (b *Boundaries) Rank(i uint64) uint64 { return b.dir.Rank(i) }

// Locate returns the id of the sequence owning text offset off: the smallest
// id whose last residue is at or after off. A sentinel offset resolves to the
// id after the sequence it terminates.
func (b *Boundaries) Locate(off uint64) int {
	return int(b.dir.RankExclusive(off))
}

// Between returns the number of boundaries in [lo, hi).
func (b *Boundaries) Between(lo, hi uint64) uint64 {
	if hi <= lo {
		return 0
	}
	return b.dir.RankExclusive(hi) - b.dir.RankExclusive(lo)
}

// End returns the first boundary at or after off, i.e. the last residue of
// the sequence owning off.
func (b *Boundaries) End(off uint64) (uint64, bool) {
	return b.dir.Select(b.dir.RankExclusive(off) + 1)
}

// Equal reports whether both vectors have the same length and bits.
func (b *Boundaries) Equal(o *Boundaries) bool {
	return b.bits.Len() == o.bits.Len() && b.bits.Equal(o.bits)
}
