package testutil

import (
	"bytes"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
)

// Bases is the nucleotide alphabet.
const Bases = "ACGT"

// Transcript is a named sequence.
type Transcript struct {
	Header   string
	Residues []byte
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Int63 returns a non-negative pseudo-random int64.
func (r *RNG) Int63() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int63()
}

// DNA returns n random bases.
func (r *RNG) DNA(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dnaLocked(n)
}

func (r *RNG) dnaLocked(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = Bases[r.rand.Intn(4)]
	}
	return out
}

// NoisyDNA returns n residues where roughly rate of them are lowercase,
// IUPAC ambiguity codes or unprintable bytes.
func (r *RNG) NoisyDNA(n int, rate float64) []byte {
	const noise = "acgtNnRYKM\x01\x7f"
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.dnaLocked(n)
	for i := range out {
		if r.rand.Float64() < rate {
			out[i] = noise[r.rand.Intn(len(noise))]
		}
	}
	return out
}

// Transcripts returns num sequences with lengths in [minLen, maxLen] and
// headers "tx<i> len=<n>".
func (r *RNG) Transcripts(num, minLen, maxLen int) []Transcript {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Transcript, num)
	for i := range out {
		n := minLen + r.rand.Intn(maxLen-minLen+1)
		out[i] = Transcript{
			Header:   fmt.Sprintf("tx%d len=%d", i, n),
			Residues: r.dnaLocked(n),
		}
	}
	return out
}

// Substring returns a random non-empty slice of seq of at most maxLen bytes.
func (r *RNG) Substring(seq []byte, maxLen int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.rand.Intn(len(seq))
	n := 1 + r.rand.Intn(min(maxLen, len(seq)-start))
	return seq[start : start+n]
}

// NaiveSuffixArray sorts all suffixes of text by direct comparison.
func NaiveSuffixArray(text []byte) []int {
	sa := make([]int, len(text))
	for i := range sa {
		sa[i] = i
	}
	sort.Slice(sa, func(i, j int) bool {
		return bytes.Compare(text[sa[i]:], text[sa[j]:]) < 0
	})
	return sa
}

// CountOccurrences counts the (possibly overlapping) occurrences of pattern
// inside each sequence, never across two.
func CountOccurrences(seqs [][]byte, pattern []byte) int64 {
	var n int64
	for _, s := range seqs {
		for i := 0; i+len(pattern) <= len(s); i++ {
			if bytes.Equal(s[i:i+len(pattern)], pattern) {
				n++
			}
		}
	}
	return n
}

// FASTA renders transcripts with residues wrapped at width columns.
func FASTA(txs []Transcript, width int) string {
	var sb strings.Builder
	for _, tx := range txs {
		sb.WriteByte('>')
		sb.WriteString(tx.Header)
		sb.WriteByte('\n')
		for i := 0; i < len(tx.Residues); i += width {
			sb.Write(tx.Residues[i:min(i+width, len(tx.Residues))])
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
