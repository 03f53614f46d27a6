package interval

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/zeebo/xxh3"

	"github.com/hupe1980/saidx/internal/suffixarray"
)

// EmptyKey marks a free slot. No code of k <= 31 bases can equal it.
const EmptyKey = math.MaxUint64

const minSlots = 16

// ErrReservedKey is returned when inserting EmptyKey.
var ErrReservedKey = errors.New("interval: key collides with the empty-slot marker")

// Dense is a linear-probing hash table from code to Interval. The load
// factor stays at or below one half.
type Dense[T suffixarray.Offset] struct {
	keys []uint64
	vals []Interval[T]
	n    int
}

// NewDense returns a table sized for hint entries.
func NewDense[T suffixarray.Offset](hint int) *Dense[T] {
	d := &Dense[T]{}
	d.alloc(slotsFor(hint))
	return d
}

func slotsFor(n int) int {
	if n < minSlots/2 {
		return minSlots
	}
	return 1 << bits.Len(uint(2*n-1))
}

func (d *Dense[T]) alloc(slots int) {
	d.keys = make([]uint64, slots)
	for i := range d.keys {
		d.keys[i] = EmptyKey
	}
	d.vals = make([]Interval[T], slots)
}

func denseHash(code uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], code)
	return xxh3.Hash(buf[:])
}

// find returns the slot holding code or the empty slot ending its probe run.
func (d *Dense[T]) find(code uint64) int {
	mask := uint64(len(d.keys) - 1)
	for i := denseHash(code) & mask; ; i = (i + 1) & mask {
		if k := d.keys[i]; k == code || k == EmptyKey {
			return int(i)
		}
	}
}

// Insert stores iv under code. If code is already present the table is left
// unchanged and the existing interval is returned with dup set.
func (d *Dense[T]) Insert(code uint64, iv Interval[T]) (existing Interval[T], dup bool, err error) {
	if code == EmptyKey {
		return Interval[T]{}, false, ErrReservedKey
	}
	if 2*(d.n+1) > len(d.keys) {
		d.rehash(2 * len(d.keys))
	}
	i := d.find(code)
	if d.keys[i] == code {
		return d.vals[i], true, nil
	}
	d.keys[i] = code
	d.vals[i] = iv
	d.n++
	return Interval[T]{}, false, nil
}

func (d *Dense[T]) rehash(slots int) {
	keys, vals := d.keys, d.vals
	d.alloc(slots)
	for i, k := range keys {
		if k != EmptyKey {
			j := d.find(k)
			d.keys[j] = k
			d.vals[j] = vals[i]
		}
	}
}

// Lookup implements Index.
func (d *Dense[T]) Lookup(code uint64) (Interval[T], bool) {
	if code == EmptyKey || len(d.keys) == 0 {
		return Interval[T]{}, false
	}
	i := d.find(code)
	if d.keys[i] != code {
		return Interval[T]{}, false
	}
	return d.vals[i], true
}

// Len implements Index.
func (d *Dense[T]) Len() int { return d.n }

// Each implements Index. Entries are visited in slot order.
func (d *Dense[T]) Each(fn func(code uint64, iv Interval[T]) bool) {
	for i, k := range d.keys {
		if k != EmptyKey && !fn(k, d.vals[i]) {
			return
		}
	}
}

// Slots exposes the raw slot arrays for persistence.
func (d *Dense[T]) Slots() ([]uint64, []Interval[T]) { return d.keys, d.vals }

// DenseFromSlots wraps slot arrays produced by Slots. The slices are used
// in place and must not be modified afterwards.
func DenseFromSlots[T suffixarray.Offset](keys []uint64, vals []Interval[T]) (*Dense[T], error) {
	if len(keys) != len(vals) {
		return nil, fmt.Errorf("interval: %d keys but %d values", len(keys), len(vals))
	}
	if len(keys) < minSlots || len(keys)&(len(keys)-1) != 0 {
		return nil, fmt.Errorf("interval: slot count %d is not a power of two >= %d", len(keys), minSlots)
	}
	d := &Dense[T]{keys: keys, vals: vals}
	for _, k := range keys {
		if k != EmptyKey {
			d.n++
		}
	}
	if 2*d.n > len(keys) {
		return nil, fmt.Errorf("interval: %d entries overload %d slots", d.n, len(keys))
	}
	return d, nil
}
