package bitset

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitSet(t *testing.T) {
	b := New(130)
	assert.Equal(t, uint64(130), b.Len())
	assert.Len(t, b.Words(), 3)

	b.Set(0)
	b.Set(64)
	b.Set(129)
	b.Set(130) // out of range
	assert.True(t, b.Test(0))
	assert.True(t, b.Test(64))
	assert.True(t, b.Test(129))
	assert.False(t, b.Test(1))
	assert.False(t, b.Test(130))
	assert.Equal(t, 3, b.Count())

	assert.False(t, b.TestAndSet(5))
	assert.True(t, b.TestAndSet(5))
	assert.False(t, b.TestAndSet(1000))

	w := b.Words()
	assert.Equal(t, uint64(1|1<<5), w[0])
	assert.Equal(t, uint64(1), w[1])
	assert.Equal(t, uint64(1<<1), w[2])
}

func TestAndNot(t *testing.T) {
	occupied, collided := New(100), New(100)
	for _, i := range []uint64{1, 2, 3, 70, 99} {
		occupied.Set(i)
	}
	collided.Set(2)
	collided.Set(99)

	occupied.AndNot(collided)
	assert.Equal(t, 3, occupied.Count())
	assert.False(t, occupied.Test(2))
	assert.False(t, occupied.Test(99))
	assert.True(t, occupied.Test(70))
}

func TestTestAndSet_Concurrent(t *testing.T) {
	const (
		goroutines = 8
		size       = 4096
	)
	b := New(size)
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first = make(map[uint64]int)
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var won []uint64
			for i := range uint64(size) {
				if !b.TestAndSet(i) {
					won = append(won, i)
				}
			}
			mu.Lock()
			for _, i := range won {
				first[i]++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, first, size)
	for i, n := range first {
		require.Equal(t, 1, n, "bit %d", i)
	}
	assert.Equal(t, size, b.Count())
}
