// Package suffixarray builds and checks suffix arrays over a corpus text.
//
// Offsets are stored in a width chosen once per text: int32 when the text
// fits, int64 otherwise. Conversions between widths are explicit and
// checked.
package suffixarray

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/saidx/internal/sais"
)

// Offset is a suffix array element type.
type Offset interface {
	~int32 | ~int64
}

// Width is the stored offset width.
type Width uint8

const (
	// Width32 stores offsets as int32.
	Width32 Width = 32
	// Width64 stores offsets as int64.
	Width64 Width = 64
)

func (w Width) String() string { return fmt.Sprintf("%d-bit", uint8(w)) }

// Large reports whether w is the 64-bit width.
func (w Width) Large() bool { return w == Width64 }

// SelectWidth returns Width32 when tlen+1 fits a signed 32-bit integer.
func SelectWidth(tlen int64) Width {
	if tlen+1 <= math.MaxInt32 {
		return Width32
	}
	return Width64
}

// WidthOf returns the width of T.
func WidthOf[T Offset]() Width {
	var zero T
	switch any(zero).(type) {
	case int32:
		return Width32
	default:
		return Width64
	}
}

// Sorter is the suffix-sorting primitive. It returns the suffix array of
// text and a status that is zero on success.
type Sorter interface {
	SortSuffixes(text []byte) (sa []int, status int)
}

// SorterFunc adapts a function to Sorter.
type SorterFunc func(text []byte) ([]int, int)

// SortSuffixes implements Sorter.
func (f SorterFunc) SortSuffixes(text []byte) ([]int, int) { return f(text) }

// SAIS is the default in-process sorter.
var SAIS Sorter = SorterFunc(func(text []byte) ([]int, int) {
	return sais.Sort(text), 0
})

// SortError reports a failing sorter status.
type SortError struct {
	Status int
}

func (e *SortError) Error() string {
	return fmt.Sprintf("suffix sort failed with status %d", e.Status)
}

var (
	// ErrLength is returned when a sorter yields the wrong number of offsets.
	ErrLength = errors.New("suffix array length does not match text length")
	// ErrOverflow is returned when an offset does not fit the chosen width.
	ErrOverflow = errors.New("suffix array offset overflows width")
	// ErrNotPermutation is returned by Validate for repeated or out-of-range offsets.
	ErrNotPermutation = errors.New("suffix array is not a permutation")
	// ErrNotSorted is returned by Validate for out-of-order suffixes.
	ErrNotSorted = errors.New("suffix array is not sorted")
)

// Build sorts the suffixes of text with sorter and narrows them to T.
func Build[T Offset](text []byte, sorter Sorter) ([]T, error) {
	if sorter == nil {
		sorter = SAIS
	}
	raw, status := sorter.SortSuffixes(text)
	if status != 0 {
		return nil, &SortError{Status: status}
	}
	if len(raw) != len(text) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLength, len(raw), len(text))
	}
	return Narrow[T](raw)
}

// Narrow converts int offsets to T, failing on values that do not fit.
func Narrow[T Offset](raw []int) ([]T, error) {
	out := make([]T, len(raw))
	for i, v := range raw {
		t := T(v)
		if int(t) != v {
			return nil, fmt.Errorf("%w: %d at %d", ErrOverflow, v, i)
		}
		out[i] = t
	}
	return out, nil
}

// Widen copies sa into int64 offsets.
func Widen[T Offset](sa []T) []int64 {
	out := make([]int64, len(sa))
	for i, v := range sa {
		out[i] = int64(v)
	}
	return out
}

// Validate checks that sa is a permutation of [0, len(text)) and that
// successive suffixes are non-decreasing.
func Validate[T Offset](text []byte, sa []T) error {
	n := len(text)
	if len(sa) != n {
		return fmt.Errorf("%w: got %d, want %d", ErrLength, len(sa), n)
	}
	seen := make([]bool, n)
	for i, v := range sa {
		p := int64(v)
		if p < 0 || p >= int64(n) || seen[p] {
			return fmt.Errorf("%w: offset %d at %d", ErrNotPermutation, p, i)
		}
		seen[p] = true
	}
	for i := 1; i < n; i++ {
		if bytes.Compare(text[int64(sa[i-1]):], text[int64(sa[i]):]) > 0 {
			return fmt.Errorf("%w: SA[%d]=%d > SA[%d]=%d", ErrNotSorted, i-1, sa[i-1], i, sa[i])
		}
	}
	return nil
}
