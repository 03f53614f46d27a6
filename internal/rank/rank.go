// Package rank answers rank queries over a plain []uint64 bit vector.
//
// The directory samples the running popcount every 512 bits (8 words), so a
// query touches one sample and at most 8 words. Space overhead is 12.5%.
package rank

import "math/bits"

const (
	wordsPerBlock = 8
	bitsPerBlock  = wordsPerBlock * 64
)

// Directory is an immutable rank index over words. The words must not change
// after the directory is built.
type Directory struct {
	words  []uint64
	blocks []uint64 // blocks[b] = popcount(words[:b*wordsPerBlock])
	nbits  uint64
}

// New builds a directory over the first nbits bits of words.
func New(words []uint64, nbits uint64) *Directory {
	nblocks := (len(words) + wordsPerBlock - 1) / wordsPerBlock
	blocks := make([]uint64, nblocks+1)
	var total uint64
	for b := 0; b < nblocks; b++ {
		blocks[b] = total
		end := min((b+1)*wordsPerBlock, len(words))
		for _, w := range words[b*wordsPerBlock : end] {
			total += uint64(bits.OnesCount64(w))
		}
	}
	blocks[nblocks] = total
	return &Directory{words: words, blocks: blocks, nbits: nbits}
}

// Len returns the number of addressable bits.
func (d *Directory) Len() uint64 { return d.nbits }

// Ones returns the total number of set bits.
func (d *Directory) Ones() uint64 { return d.blocks[len(d.blocks)-1] }

// Test reports whether bit i is set.
func (d *Directory) Test(i uint64) bool {
	if i >= d.nbits {
		return false
	}
	return d.words[i/64]&(1<<(i%64)) != 0
}

// Rank returns the number of set bits in [0, i]. Positions past the end
// count every bit.
func (d *Directory) Rank(i uint64) uint64 {
	if i >= d.nbits {
		return d.Ones()
	}
	return d.rankExclusive(i + 1)
}

// RankExclusive returns the number of set bits in [0, i).
func (d *Directory) RankExclusive(i uint64) uint64 {
	if i >= d.nbits {
		return d.Ones()
	}
	return d.rankExclusive(i)
}

func (d *Directory) rankExclusive(i uint64) uint64 {
	w := i / 64
	b := w / wordsPerBlock
	r := d.blocks[b]
	for j := b * wordsPerBlock; j < w; j++ {
		r += uint64(bits.OnesCount64(d.words[j]))
	}
	if off := i % 64; off != 0 {
		r += uint64(bits.OnesCount64(d.words[w] & (uint64(1)<<off - 1)))
	}
	return r
}

// Select returns the position of the set bit with the given 1-based rank.
// It reports false if fewer than r bits are set.
func (d *Directory) Select(r uint64) (uint64, bool) {
	if r == 0 || r > d.Ones() {
		return 0, false
	}
	// last block whose preceding count is < r
	lo, hi := 0, len(d.blocks)-1
	for lo < hi {
		mid := int(uint(lo+hi+1) >> 1)
		if d.blocks[mid] < r {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	need := r - d.blocks[lo]
	for j := lo * wordsPerBlock; j < len(d.words); j++ {
		c := uint64(bits.OnesCount64(d.words[j]))
		if c < need {
			need -= c
			continue
		}
		w := d.words[j]
		for k := uint64(1); k < need; k++ {
			w &= w - 1
		}
		return uint64(j)*64 + uint64(bits.TrailingZeros64(w)), true
	}
	return 0, false
}

// Words returns the underlying bit vector. Callers must not modify it.
func (d *Directory) Words() []uint64 { return d.words }
