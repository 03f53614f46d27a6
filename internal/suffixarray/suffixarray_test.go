package suffixarray

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectWidth_Boundary(t *testing.T) {
	assert.Equal(t, Width32, SelectWidth(0))
	assert.Equal(t, Width32, SelectWidth(math.MaxInt32-1))
	assert.Equal(t, Width64, SelectWidth(math.MaxInt32))
	assert.Equal(t, Width64, SelectWidth(1<<40))
	assert.True(t, Width64.Large())
	assert.False(t, Width32.Large())
}

func TestWidthOf(t *testing.T) {
	assert.Equal(t, Width32, WidthOf[int32]())
	assert.Equal(t, Width64, WidthOf[int64]())
}

func TestBuild_BothWidths(t *testing.T) {
	text := []byte("ACGT$GGC$TTTTA$")
	sa32, err := Build[int32](text, nil)
	require.NoError(t, err)
	require.NoError(t, Validate(text, sa32))

	sa64, err := Build[int64](text, SAIS)
	require.NoError(t, err)
	require.NoError(t, Validate(text, sa64))
	assert.Equal(t, Widen(sa32), sa64)
}

func TestBuild_SorterFailure(t *testing.T) {
	failing := SorterFunc(func([]byte) ([]int, int) { return nil, -2 })
	_, err := Build[int32]([]byte("ACGT"), failing)
	var se *SortError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, -2, se.Status)
	assert.Contains(t, err.Error(), "-2")
}

func TestBuild_SorterWrongLength(t *testing.T) {
	short := SorterFunc(func([]byte) ([]int, int) { return []int{0}, 0 })
	_, err := Build[int64]([]byte("ACGT"), short)
	require.ErrorIs(t, err, ErrLength)
}

func TestNarrow_Overflow(t *testing.T) {
	_, err := Narrow[int32]([]int{0, math.MaxInt32 + 1})
	require.ErrorIs(t, err, ErrOverflow)
}

func TestValidate_Detects(t *testing.T) {
	text := []byte("ACGTAGCCT")
	require.NoError(t, Validate(text, []int32{0, 4, 6, 1, 7, 5, 2, 8, 3}))
	require.ErrorIs(t, Validate(text, []int32{0, 4, 6, 1, 7, 5, 2, 8, 8}), ErrNotPermutation)
	require.ErrorIs(t, Validate(text, []int32{4, 0, 6, 1, 7, 5, 2, 8, 3}), ErrNotSorted)
	require.ErrorIs(t, Validate(text, []int32{0}), ErrLength)
}
