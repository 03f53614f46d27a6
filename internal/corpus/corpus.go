// Package corpus concatenates normalized sequences into one searchable text.
//
// Each accepted sequence is followed by kmer.Sentinel, so no k-mer and no
// pattern can match across two sequences. A boundary bit marks the last
// residue of every sequence.
package corpus

import (
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/saidx/kmer"
)

// Corpus is the immutable output of a Builder.
type Corpus struct {
	// Text is the concatenation of all sequences, each followed by the sentinel.
	Text []byte
	// Names holds the sequence names indexed by sequence id.
	Names []string
	// Starts holds the text offset of each sequence's first residue.
	Starts []int64
	// Boundaries marks the last residue of each sequence.
	Boundaries *Boundaries
}

// NumSequences returns the number of sequences in the corpus.
func (c *Corpus) NumSequences() int { return len(c.Names) }

// SequenceLen returns the residue count of sequence id.
func (c *Corpus) SequenceLen(id int) int64 {
	end, _ := c.Boundaries.End(uint64(c.Starts[id]))
	return int64(end) - c.Starts[id] + 1
}

// Sequence returns the residues of sequence id, aliasing Text.
func (c *Corpus) Sequence(id int) []byte {
	start := c.Starts[id]
	return c.Text[start : start+c.SequenceLen(id)]
}

// Builder accumulates sequences in encounter order. It is not safe for
// concurrent use.
type Builder struct {
	text   []byte
	names  []string
	starts []int64
	ends   []uint64
}

// NewBuilder returns a Builder with room for sizeHint bytes of text.
func NewBuilder(sizeHint int) *Builder {
	return &Builder{text: make([]byte, 0, max(sizeHint, 0))}
}

// Add appends residues under the given header and returns the new sequence id.
// The stored name is the header up to its first space or tab.
func (b *Builder) Add(header string, residues []byte) int {
	id := len(b.names)
	b.names = append(b.names, Name(header))
	b.starts = append(b.starts, int64(len(b.text)))
	b.text = append(b.text, residues...)
	b.ends = append(b.ends, uint64(len(b.text)-1))
	b.text = append(b.text, kmer.Sentinel)
	return id
}

// NumSequences returns the number of sequences added so far.
func (b *Builder) NumSequences() int { return len(b.names) }

// TextLen returns the current text length including sentinels.
func (b *Builder) TextLen() int { return len(b.text) }

// Finish freezes the builder into a Corpus. The builder must not be reused.
func (b *Builder) Finish() *Corpus {
	bits := bitset.New(uint(len(b.text)))
	for _, p := range b.ends {
		bits.Set(uint(p))
	}
	c := &Corpus{
		Text:       b.text,
		Names:      b.names,
		Starts:     b.starts,
		Boundaries: NewBoundaries(bits),
	}
	*b = Builder{}
	return c
}

// Name truncates a FASTA header at its first space or tab.
func Name(header string) string {
	if i := strings.IndexAny(header, " \t"); i >= 0 {
		return header[:i]
	}
	return header
}
