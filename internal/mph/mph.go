// Package mph builds minimal perfect hash functions over distinct uint64
// keys using the BBHash cascade.
//
// Each level hashes the remaining keys into a bit array of gamma*n bits.
// Keys that land alone keep their bit; colliding keys fall through to the
// next level. Keys still colliding after MaxLevels go to a small fallback
// map. The index of a key is the rank of its bit across all levels.
//
// Find on a key that was not in the build set returns an arbitrary index.
// Callers that need membership must store the keys and compare.
package mph

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/saidx/internal/bitset"
	"github.com/hupe1980/saidx/internal/rank"
)

const (
	// DefaultGamma trades space for build speed.
	DefaultGamma = 2.0
	// DefaultMaxLevels bounds the cascade depth.
	DefaultMaxLevels = 32

	magic   = 0x4842424d // "MBBH"
	version = 1
)

// ErrDuplicateKey is returned when the key set contains a repeated key.
var ErrDuplicateKey = errors.New("mph: duplicate key")

// ErrCorrupt is returned when serialized data cannot be decoded.
var ErrCorrupt = errors.New("mph: corrupt table")

// Options configure Build.
type Options struct {
	Gamma     float64
	Threads   int
	MaxLevels int
}

func (o Options) withDefaults() Options {
	if o.Gamma < 1 {
		o.Gamma = DefaultGamma
	}
	if o.Threads <= 0 {
		o.Threads = runtime.GOMAXPROCS(0)
	}
	if o.MaxLevels <= 0 {
		o.MaxLevels = DefaultMaxLevels
	}
	return o
}

type level struct {
	seed uint64
	dir  *rank.Directory
	base uint64 // ones in all previous levels
}

// Table is an immutable minimal perfect hash over n keys.
type Table struct {
	levels   []level
	fallback map[uint64]uint64
	n        uint64
}

// Build constructs a table over keys. Keys must be distinct.
func Build(ctx context.Context, keys []uint64, opts Options) (*Table, error) {
	opts = opts.withDefaults()

	t := &Table{fallback: make(map[uint64]uint64)}
	remaining := keys
	var base uint64

	for l := 0; l < opts.MaxLevels && len(remaining) > 0; l++ {
		size := levelSize(len(remaining), opts.Gamma)
		seed := uint64(l)
		occupied := bitset.New(size)
		collided := bitset.New(size)

		if err := parallel(ctx, remaining, opts.Threads, func(chunk []uint64) {
			for _, k := range chunk {
				pos := hashKey(k, seed) % size
				if occupied.TestAndSet(pos) {
					collided.Set(pos)
				}
			}
		}); err != nil {
			return nil, err
		}
		occupied.AndNot(collided)

		next := make([]uint64, 0, len(remaining)/4)
		for _, k := range remaining {
			if collided.Test(hashKey(k, seed) % size) {
				next = append(next, k)
			}
		}

		dir := rank.New(occupied.Words(), size)
		t.levels = append(t.levels, level{seed: seed, dir: dir, base: base})
		base += dir.Ones()
		remaining = next
	}

	for _, k := range remaining {
		if _, ok := t.fallback[k]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateKey, k)
		}
		t.fallback[k] = base
		base++
	}

	if base != uint64(len(keys)) {
		// Duplicates collide forever and are caught above; anything else is a bug.
		return nil, fmt.Errorf("mph: placed %d of %d keys", base, len(keys))
	}
	t.n = base
	return t, nil
}

func levelSize(n int, gamma float64) uint64 {
	size := uint64(math.Ceil(float64(n) * gamma))
	size = (size + 63) &^ 63
	return max(size, 64)
}

func hashKey(k, seed uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], k)
	return xxh3.HashSeed(buf[:], seed)
}

func parallel(ctx context.Context, keys []uint64, threads int, fn func([]uint64)) error {
	g, ctx := errgroup.WithContext(ctx)
	chunk := (len(keys) + threads - 1) / threads
	for start := 0; start < len(keys); start += chunk {
		part := keys[start:min(start+chunk, len(keys))]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(part)
			return nil
		})
	}
	return g.Wait()
}

// Len returns the number of keys.
func (t *Table) Len() uint64 { return t.n }

// Levels returns the cascade depth.
func (t *Table) Levels() int { return len(t.levels) }

// Find returns the index in [0, Len()) assigned to key. It reports false
// only when key cannot belong to the build set.
func (t *Table) Find(key uint64) (uint64, bool) {
	for _, l := range t.levels {
		pos := hashKey(key, l.seed) % l.dir.Len()
		if l.dir.Test(pos) {
			return l.base + l.dir.Rank(pos) - 1, true
		}
	}
	idx, ok := t.fallback[key]
	return idx, ok
}

// WriteTo serializes the table.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	put := func(v uint64) { _ = binary.Write(cw, binary.LittleEndian, v) }

	put(magic<<32 | version)
	put(t.n)
	put(uint64(len(t.levels)))
	for _, l := range t.levels {
		put(l.seed)
		put(l.dir.Len())
		_ = binary.Write(cw, binary.LittleEndian, l.dir.Words())
	}
	put(uint64(len(t.fallback)))
	for k, v := range t.fallback {
		put(k)
		put(v)
	}
	return cw.n, cw.err
}

// ReadFrom decodes a table written by WriteTo.
func ReadFrom(r io.Reader) (*Table, error) {
	var err error
	get := func() uint64 {
		var v uint64
		if err == nil {
			err = binary.Read(r, binary.LittleEndian, &v)
		}
		return v
	}

	if hdr := get(); err == nil && hdr != magic<<32|version {
		return nil, fmt.Errorf("%w: bad magic %#x", ErrCorrupt, hdr)
	}
	t := &Table{n: get(), fallback: make(map[uint64]uint64)}
	nlevels := get()
	if err == nil && nlevels > DefaultMaxLevels*4 {
		return nil, fmt.Errorf("%w: %d levels", ErrCorrupt, nlevels)
	}

	var base uint64
	for i := uint64(0); i < nlevels && err == nil; i++ {
		seed := get()
		size := get()
		if err != nil {
			break
		}
		words := make([]uint64, (size+63)/64)
		if err = binary.Read(r, binary.LittleEndian, words); err != nil {
			break
		}
		dir := rank.New(words, size)
		t.levels = append(t.levels, level{seed: seed, dir: dir, base: base})
		base += dir.Ones()
	}

	nfallback := get()
	for i := uint64(0); i < nfallback && err == nil; i++ {
		k := get()
		t.fallback[k] = get()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if base+uint64(len(t.fallback)) != t.n {
		return nil, fmt.Errorf("%w: %d keys placed, header says %d", ErrCorrupt, base+uint64(len(t.fallback)), t.n)
	}
	return t, nil
}

type countWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
