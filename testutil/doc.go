// Package testutil provides testing utilities for saidx.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random DNA, building reference
// answers the slow way, and rendering FASTA input.
//
// # Random Sequences
//
//	rng := testutil.NewRNG(seed)
//	seq := rng.DNA(500)                      // A, C, G, T only
//	txs := rng.Transcripts(100, 50, 2000)    // named sequences
//
// # Ground Truth
//
//	sa := testutil.NaiveSuffixArray(text)
//	n := testutil.CountOccurrences(seqs, pattern)
package testutil
