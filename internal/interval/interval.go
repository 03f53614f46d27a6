// Package interval maps k-mer codes to the suffix array range of suffixes
// that start with that k-mer.
//
// Two tables implement Index: Dense, an open-addressed hash table, and
// Perfect, a minimal perfect hash with stored keys. The choice is made once
// at build time; readers only see Index.
package interval

import (
	"fmt"

	"github.com/hupe1980/saidx/internal/suffixarray"
)

// Interval is the half-open suffix array range [Start, Stop).
type Interval[T suffixarray.Offset] struct {
	Start T
	Stop  T
}

// Len returns Stop - Start.
func (iv Interval[T]) Len() int64 { return int64(iv.Stop) - int64(iv.Start) }

// Widen returns iv as an int64 interval.
func (iv Interval[T]) Widen() Interval[int64] {
	return Interval[int64]{Start: int64(iv.Start), Stop: int64(iv.Stop)}
}

func (iv Interval[T]) String() string { return fmt.Sprintf("[%d,%d)", iv.Start, iv.Stop) }

// Index answers exact k-mer lookups. Implementations are immutable once
// built and safe for concurrent readers.
type Index[T suffixarray.Offset] interface {
	// Lookup returns the interval of code. A miss is not an error.
	Lookup(code uint64) (Interval[T], bool)
	// Len returns the number of distinct k-mers.
	Len() int
	// Each calls fn for every entry until fn returns false.
	Each(fn func(code uint64, iv Interval[T]) bool)
}

// Strategy selects the table built by Build.
type Strategy uint8

const (
	// StrategyDense builds an open-addressed hash table.
	StrategyDense Strategy = iota
	// StrategyPerfect builds a minimal perfect hash.
	StrategyPerfect
)

func (s Strategy) String() string {
	switch s {
	case StrategyDense:
		return "dense"
	case StrategyPerfect:
		return "perfect"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// Equal reports whether a and b hold the same entries.
func Equal[T suffixarray.Offset](a, b Index[T]) bool {
	if a.Len() != b.Len() {
		return false
	}
	eq := true
	a.Each(func(code uint64, iv Interval[T]) bool {
		got, ok := b.Lookup(code)
		eq = ok && got == iv
		return eq
	})
	return eq
}
