package saidx

import (
	"fmt"
	"runtime"

	"github.com/hupe1980/saidx/internal/fasta"
	"github.com/hupe1980/saidx/kmer"
)

// DefaultK is the default k-mer length.
const DefaultK = kmer.MaxK

// BuildConfig describes one index build.
type BuildConfig struct {
	// Inputs are FASTA files, optionally gzip, zstd or lz4 compressed.
	// "-" reads standard input.
	Inputs []string
	// Output is the index directory. It is created if missing. Ignored when
	// the build writes to a store given by WithStore.
	Output string
	// K is the k-mer length of the lookup table, in [1, 31].
	K int
	// ClipPolyA removes poly-A tails of at least 10 bases.
	ClipPolyA bool
	// PerfectHash selects the minimal perfect hash table over the dense one.
	PerfectHash bool
	// HashThreads is the worker count of the perfect hash builder.
	HashThreads int
	// BatchSize is the number of records handed over per reader batch.
	BatchSize int
	// Readers is the number of input files read concurrently.
	Readers int
}

// DefaultBuildConfig returns the defaults of the indexer command.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		K:           DefaultK,
		ClipPolyA:   true,
		HashThreads: 4,
		BatchSize:   fasta.DefaultBatchSize,
		Readers:     min(2, runtime.GOMAXPROCS(0)),
	}
}

// Validate reports the first invalid field.
func (c BuildConfig) Validate() error {
	if _, err := kmer.NewCodec(c.K); err != nil {
		return fmt.Errorf("%w: got %d", ErrInvalidK, c.K)
	}
	if c.K%2 == 0 {
		return fmt.Errorf("%w: got %d", ErrEvenK, c.K)
	}
	if len(c.Inputs) == 0 {
		return ErrNoInput
	}
	if c.HashThreads < 0 {
		return fmt.Errorf("saidx: hash threads must not be negative: %d", c.HashThreads)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("saidx: batch size must not be negative: %d", c.BatchSize)
	}
	if c.Readers < 0 {
		return fmt.Errorf("saidx: readers must not be negative: %d", c.Readers)
	}
	return nil
}
