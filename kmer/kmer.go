// Package kmer packs fixed-length DNA words into 2-bit integer codes.
//
// A Codec carries its word length explicitly; there is no process-wide k.
// Codes are most-significant-base first, so numeric order of codes equals
// lexicographic order of the words they encode.
package kmer

import (
	"errors"
	"fmt"
)

const (
	// MaxK is the largest word length whose code leaves math.MaxUint64 unused.
	MaxK = 31

	// Sentinel separates sequences in a concatenated corpus. It is never a base.
	Sentinel byte = '$'
)

// ErrInvalidK is returned for word lengths outside [1, MaxK].
var ErrInvalidK = errors.New("kmer: k must be in [1, 31]")

// Bases in code order.
var Bases = [4]byte{'A', 'C', 'G', 'T'}

var codes = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	t['A'], t['C'], t['G'], t['T'] = 0, 1, 2, 3
	return t
}()

// Code returns the 2-bit code of an uppercase base.
func Code(b byte) (uint64, bool) {
	c := codes[b]
	if c < 0 {
		return 0, false
	}
	return uint64(c), true
}

// IsBase reports whether b is one of A, C, G, T.
func IsBase(b byte) bool { return codes[b] >= 0 }

// Codec encodes and decodes words of a fixed length k.
type Codec struct {
	k    int
	mask uint64
}

// NewCodec returns a codec for words of length k.
func NewCodec(k int) (Codec, error) {
	if k < 1 || k > MaxK {
		return Codec{}, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	return Codec{k: k, mask: (uint64(1) << (2 * uint(k))) - 1}, nil
}

// MustCodec is NewCodec for constant k. It panics on invalid k.
func MustCodec(k int) Codec {
	c, err := NewCodec(k)
	if err != nil {
		panic(err)
	}
	return c
}

// K returns the word length.
func (c Codec) K() int { return c.k }

// Mask returns the bit mask covering a full code.
func (c Codec) Mask() uint64 { return c.mask }

// Encode packs word. It fails if len(word) != k or word holds a non-base byte,
// which includes the sentinel.
func (c Codec) Encode(word []byte) (uint64, bool) {
	if c.k == 0 || len(word) != c.k {
		return 0, false
	}
	var code uint64
	for _, b := range word {
		v := codes[b]
		if v < 0 {
			return 0, false
		}
		code = code<<2 | uint64(v)
	}
	return code, true
}

// EncodeString is Encode for strings.
func (c Codec) EncodeString(word string) (uint64, bool) {
	if c.k == 0 || len(word) != c.k {
		return 0, false
	}
	var code uint64
	for i := 0; i < len(word); i++ {
		v := codes[word[i]]
		if v < 0 {
			return 0, false
		}
		code = code<<2 | uint64(v)
	}
	return code, true
}

// Decode unpacks code into its word.
func (c Codec) Decode(code uint64) string {
	buf := make([]byte, c.k)
	for i := c.k - 1; i >= 0; i-- {
		buf[i] = Bases[code&3]
		code >>= 2
	}
	return string(buf)
}

// Valid reports whether word is exactly k bases long and sentinel free.
func (c Codec) Valid(word []byte) bool {
	_, ok := c.Encode(word)
	return ok
}
