package interval

import (
	"context"
	"fmt"

	"github.com/hupe1980/saidx/internal/mph"
	"github.com/hupe1980/saidx/internal/suffixarray"
)

// Perfect is an immutable table addressed by a minimal perfect hash. Keys are
// stored alongside intervals so lookups of absent codes miss reliably.
type Perfect[T suffixarray.Offset] struct {
	table *mph.Table
	keys  []uint64
	vals  []Interval[T]
}

// perfectBuilder accumulates entries until every code is known.
type perfectBuilder[T suffixarray.Offset] struct {
	keys []uint64
	vals []Interval[T]
	pos  map[uint64]int
}

func newPerfectBuilder[T suffixarray.Offset]() *perfectBuilder[T] {
	return &perfectBuilder[T]{pos: make(map[uint64]int)}
}

func (b *perfectBuilder[T]) Insert(code uint64, iv Interval[T]) (Interval[T], bool, error) {
	if i, ok := b.pos[code]; ok {
		return b.vals[i], true, nil
	}
	b.pos[code] = len(b.keys)
	b.keys = append(b.keys, code)
	b.vals = append(b.vals, iv)
	return Interval[T]{}, false, nil
}

// build hands the key set to the perfect hash builder and lays the entries
// out in hash order.
func (b *perfectBuilder[T]) build(ctx context.Context, threads int) (*Perfect[T], error) {
	table, err := mph.Build(ctx, b.keys, mph.Options{Threads: threads})
	if err != nil {
		return nil, err
	}
	keys := make([]uint64, len(b.keys))
	vals := make([]Interval[T], len(b.vals))
	for i, k := range b.keys {
		idx, _ := table.Find(k)
		keys[idx] = k
		vals[idx] = b.vals[i]
	}
	return &Perfect[T]{table: table, keys: keys, vals: vals}, nil
}

// NewPerfect builds a Perfect table from parallel key and interval slices.
func NewPerfect[T suffixarray.Offset](ctx context.Context, keys []uint64, vals []Interval[T], threads int) (*Perfect[T], error) {
	if len(keys) != len(vals) {
		return nil, fmt.Errorf("interval: %d keys but %d values", len(keys), len(vals))
	}
	b := newPerfectBuilder[T]()
	for i, k := range keys {
		if _, dup, _ := b.Insert(k, vals[i]); dup {
			return nil, fmt.Errorf("%w: %d", mph.ErrDuplicateKey, k)
		}
	}
	return b.build(ctx, threads)
}

// PerfectFrom reassembles a table from its persisted parts. keys and vals
// must be in hash order, as returned by Entries.
func PerfectFrom[T suffixarray.Offset](table *mph.Table, keys []uint64, vals []Interval[T]) (*Perfect[T], error) {
	if len(keys) != len(vals) || uint64(len(keys)) != table.Len() {
		return nil, fmt.Errorf("interval: perfect hash over %d keys with %d keys and %d values",
			table.Len(), len(keys), len(vals))
	}
	return &Perfect[T]{table: table, keys: keys, vals: vals}, nil
}

// Lookup implements Index.
func (p *Perfect[T]) Lookup(code uint64) (Interval[T], bool) {
	idx, ok := p.table.Find(code)
	if !ok || idx >= uint64(len(p.keys)) || p.keys[idx] != code {
		return Interval[T]{}, false
	}
	return p.vals[idx], true
}

// Len implements Index.
func (p *Perfect[T]) Len() int { return len(p.keys) }

// Each implements Index. Entries are visited in hash order.
func (p *Perfect[T]) Each(fn func(code uint64, iv Interval[T]) bool) {
	for i, k := range p.keys {
		if !fn(k, p.vals[i]) {
			return
		}
	}
}

// Table returns the perfect hash function.
func (p *Perfect[T]) Table() *mph.Table { return p.table }

// Entries returns the keys and intervals in hash order.
func (p *Perfect[T]) Entries() ([]uint64, []Interval[T]) { return p.keys, p.vals }
