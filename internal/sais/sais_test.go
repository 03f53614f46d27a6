package sais

import (
	"bytes"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func naive(text []byte) []int {
	sa := make([]int, len(text))
	for i := range sa {
		sa[i] = i
	}
	sort.Slice(sa, func(i, j int) bool {
		return bytes.Compare(text[sa[i]:], text[sa[j]:]) < 0
	})
	return sa
}

func TestSort_Known(t *testing.T) {
	assert.Equal(t, []int{0, 4, 6, 1, 7, 5, 2, 8, 3}, Sort([]byte("ACGTAGCCT")))
	assert.Equal(t, []int{5, 3, 1, 0, 4, 2}, Sort([]byte("banana")))
	assert.Equal(t, []int{}, Sort(nil))
	assert.Equal(t, []int{0}, Sort([]byte("A")))
}

func TestSort_Repetitive(t *testing.T) {
	for _, s := range []string{
		"AAAAAAAAAAAAAAAA",
		"ACACACACACACACAC",
		"mississippi",
		"ACGT$ACGT$ACGT$",
		"AAAA$AAAA$AAA$",
	} {
		require.Equal(t, naive([]byte(s)), Sort([]byte(s)), s)
	}
}

func TestSort_RandomMatchesNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	alphabets := []string{"AC", "ACGT", "ACGT$", "ab"}
	for iter := range 200 {
		alpha := alphabets[iter%len(alphabets)]
		n := 1 + rng.Intn(300)
		text := make([]byte, n)
		for i := range text {
			text[i] = alpha[rng.Intn(len(alpha))]
		}
		require.Equal(t, naive(text), Sort(text), "text=%q", text)
	}
}
