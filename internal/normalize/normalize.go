// Package normalize cleans raw transcript residues before indexing.
package normalize

import (
	"bytes"
	"context"
	"log/slog"
	"math/rand"

	"github.com/hupe1980/saidx/kmer"
)

const (
	// PolyAClipLength is the trailing run of A's that triggers poly-A clipping.
	PolyAClipLength = 10

	// LongSequenceThreshold is the length above which a sequence is reported as
	// possibly genomic. Titin, the longest known transcript, is ~109kb.
	LongSequenceThreshold = 200000
)

// Outcome tells what happened to a normalized sequence.
type Outcome int

const (
	// Kept means the sequence goes into the corpus.
	Kept Outcome = iota
	// DiscardedAllA means poly-A clipping removed every residue.
	DiscardedAllA
	// DiscardedShort means the sequence is shorter than k.
	DiscardedShort
)

func (o Outcome) String() string {
	switch o {
	case Kept:
		return "kept"
	case DiscardedAllA:
		return "discarded_all_a"
	case DiscardedShort:
		return "discarded_short"
	default:
		return "unknown"
	}
}

// Stats are running counters over all sequences seen by a Normalizer.
type Stats struct {
	Sequences uint64
	Kept      uint64
	Discarded uint64
	Replaced  uint64 // non-ACGT residues replaced by random bases
	Clipped   uint64 // sequences with a clipped poly-A tail
	Long      uint64 // sequences above LongSequenceThreshold
}

// Options configures a Normalizer.
type Options struct {
	// K is the k-mer length; shorter sequences are discarded.
	K int
	// ClipPolyA enables poly-A tail clipping.
	ClipPolyA bool
	// Rand draws replacement bases. Nil uses a time-seeded source.
	Rand *rand.Rand
	// Logger receives per-record warnings. Nil discards them.
	Logger *slog.Logger
}

// Normalizer is single-threaded; it owns mutable counters and an RNG.
type Normalizer struct {
	k         int
	clipPolyA bool
	rng       *rand.Rand
	log       *slog.Logger
	stats     Stats
}

var polyA = bytes.Repeat([]byte{'A'}, PolyAClipLength)

// New creates a Normalizer.
func New(opts Options) *Normalizer {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Normalizer{
		k:         opts.K,
		clipPolyA: opts.ClipPolyA,
		rng:       rng,
		log:       log,
	}
}

// Normalize rewrites residues in place and returns the cleaned slice.
// The header is only used for diagnostics.
func (n *Normalizer) Normalize(ctx context.Context, header string, residues []byte) ([]byte, Outcome) {
	n.stats.Sequences++

	seq := stripNonPrintable(residues)

	for i, b := range seq {
		if b >= 'a' && b <= 'z' {
			b -= 'a' - 'A'
			seq[i] = b
		}
		if !kmer.IsBase(b) {
			seq[i] = kmer.Bases[n.rng.Intn(4)]
			n.stats.Replaced++
		}
	}

	if n.clipPolyA && len(seq) > 0 {
		end := lastNonA(seq)
		switch {
		case end < 0:
			n.log.WarnContext(ctx, "entry appeared to be all A's; it will be removed from the index",
				"header", header)
			n.stats.Clipped++
			n.stats.Discarded++
			return seq[:0], DiscardedAllA
		case len(seq) > PolyAClipLength && bytes.HasSuffix(seq, polyA):
			n.stats.Clipped++
			seq = seq[:end+1]
		}
	}

	if len(seq) < n.k {
		n.log.WarnContext(ctx, "discarding entry shorter than the k-mer length (perhaps after poly-A clipping)",
			"header", header, "length", len(seq), "k", n.k)
		n.stats.Discarded++
		return seq, DiscardedShort
	}

	if len(seq) > LongSequenceThreshold {
		n.log.WarnContext(ctx, "entry is longer than expected for a transcript; are you indexing a genome?",
			"header", header, "length", len(seq), "threshold", LongSequenceThreshold)
		n.stats.Long++
	}

	n.stats.Kept++
	return seq, Kept
}

// Stats returns a snapshot of the counters.
func (n *Normalizer) Stats() Stats { return n.stats }

// stripNonPrintable removes bytes outside the printable ASCII range in place.
func stripNonPrintable(b []byte) []byte {
	out := b[:0]
	for _, c := range b {
		if c >= 0x20 && c <= 0x7e {
			out = append(out, c)
		}
	}
	return out
}

func lastNonA(seq []byte) int {
	for i := len(seq) - 1; i >= 0; i-- {
		if seq[i] != 'A' {
			return i
		}
	}
	return -1
}
