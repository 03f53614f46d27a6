// Package search answers exact substring queries over a suffix array.
//
// Suffixes are compared only up to the end of the sequence they start in,
// as marked by the boundary vector, so no match spans two sequences even
// when the text carries no separators.
package search

import (
	"sort"

	"github.com/hupe1980/saidx/internal/corpus"
	"github.com/hupe1980/saidx/internal/interval"
	"github.com/hupe1980/saidx/internal/suffixarray"
	"github.com/hupe1980/saidx/kmer"
)

// Engine is a read-only query view over persisted structures. It holds no
// mutable state and is safe for any number of concurrent callers.
type Engine[T suffixarray.Offset] struct {
	text   []byte
	sa     []T
	bounds *corpus.Boundaries
	index  interval.Index[T]
	codec  kmer.Codec
}

// New returns an Engine. bounds may be nil, in which case the text is one
// sequence. index may be nil, in which case Find uses Range and Lookup
// always misses.
func New[T suffixarray.Offset](text []byte, sa []T, bounds *corpus.Boundaries, index interval.Index[T], codec kmer.Codec) *Engine[T] {
	return &Engine[T]{text: text, sa: sa, bounds: bounds, index: index, codec: codec}
}

// Len returns the number of suffixes.
func (e *Engine[T]) Len() int { return len(e.sa) }

// Offset returns SA[i].
func (e *Engine[T]) Offset(i int64) int64 { return int64(e.sa[i]) }

// Range returns the SA range [left, left+count) of suffixes that start with
// pattern. left is only meaningful when count > 0. An empty pattern matches
// every suffix.
func (e *Engine[T]) Range(pattern []byte) (left, count int64) {
	return e.rangeWithin(pattern, 0, int64(len(e.sa)))
}

// Lookup returns the SA interval of the k-mer with the given code.
func (e *Engine[T]) Lookup(code uint64) (interval.Interval[T], bool) {
	if e.index == nil {
		return interval.Interval[T]{}, false
	}
	return e.index.Lookup(code)
}

// Find is Range accelerated by the k-mer index: the first k bases select an
// interval and the rest of the pattern is resolved inside it. Patterns
// shorter than k, or whose seed is not k plain bases, use Range.
func (e *Engine[T]) Find(pattern []byte) (left, count int64) {
	k := e.codec.K()
	if e.index == nil || k == 0 || len(pattern) < k {
		return e.Range(pattern)
	}
	code, ok := e.codec.Encode(pattern[:k])
	if !ok {
		return e.Range(pattern)
	}
	iv, ok := e.index.Lookup(code)
	if !ok {
		return 0, 0
	}
	return e.rangeWithin(pattern, int64(iv.Start), int64(iv.Stop))
}

// rangeWithin runs both binary searches over SA[lo:hi).
func (e *Engine[T]) rangeWithin(pattern []byte, lo, hi int64) (int64, int64) {
	left := lo + int64(sort.Search(int(hi-lo), func(i int) bool {
		return e.compare(int64(e.sa[lo+int64(i)]), pattern) >= 0
	}))
	right := left + int64(sort.Search(int(hi-left), func(i int) bool {
		return e.compare(int64(e.sa[left+int64(i)]), pattern) > 0
	}))
	return left, right - left
}

// compare orders the suffix at p, cut at its sequence end, against pattern.
// It returns 0 when pattern is a prefix of the cut suffix. A cut suffix that
// is a proper prefix of pattern sorts before it.
func (e *Engine[T]) compare(p int64, pattern []byte) int {
	s := e.text[p : p+e.span(p, int64(len(pattern)))]
	for i := range s {
		if s[i] != pattern[i] {
			if s[i] < pattern[i] {
				return -1
			}
			return 1
		}
	}
	if len(s) == len(pattern) {
		return 0
	}
	return -1
}

// span returns the length of the suffix at p up to and including its
// sequence's last residue, capped at limit. A suffix starting at a
// separator belongs to no sequence and has length 0.
func (e *Engine[T]) span(p, limit int64) int64 {
	limit = min(limit, int64(len(e.text))-p)
	if limit > 0 && e.text[p] == kmer.Sentinel {
		return 0
	}
	if e.bounds == nil || limit <= 1 {
		return limit
	}
	// A boundary before the last compared byte cuts the suffix short.
	if e.bounds.Between(uint64(p), uint64(p+limit-1)) == 0 {
		return limit
	}
	end, _ := e.bounds.End(uint64(p))
	return int64(end) - p + 1
}
