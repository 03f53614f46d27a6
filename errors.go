package saidx

import (
	"errors"
	"fmt"

	"github.com/hupe1980/saidx/blobstore"
	"github.com/hupe1980/saidx/internal/interval"
	"github.com/hupe1980/saidx/internal/suffixarray"
	"github.com/hupe1980/saidx/kmer"
	"github.com/hupe1980/saidx/persistence"
)

var (
	// ErrInvalidK is returned when k is outside [1, 31].
	ErrInvalidK = kmer.ErrInvalidK

	// ErrEvenK is returned for an even k. It wraps ErrInvalidK.
	ErrEvenK = fmt.Errorf("%w: k must be odd", ErrInvalidK)

	// ErrNoInput is returned when a build has no input files.
	ErrNoInput = errors.New("no input files")

	// ErrOutputIsFile is returned when the output path exists and is not a directory.
	ErrOutputIsFile = errors.New("output path exists and is not a directory")

	// ErrEmptyIndex is returned when normalization leaves no sequence to index.
	ErrEmptyIndex = errors.New("no sequence survived normalization")

	// ErrIndexIncomplete is returned when an index has no header or misses an artifact.
	ErrIndexIncomplete = errors.New("index is incomplete")

	// ErrCorruptIndex is returned when artifacts disagree with each other.
	ErrCorruptIndex = errors.New("index artifacts are inconsistent")

	// ErrUnsupportedVersion is returned for a header this version cannot read.
	ErrUnsupportedVersion = persistence.ErrUnsupportedIndex

	// ErrClosed is returned by operations on a closed Index.
	ErrClosed = errors.New("index is closed")
)

// SortError is the suffix sorter failure type.
type SortError = suffixarray.SortError

// DuplicateKmerError is returned when the interval scan sees a k-mer twice.
type DuplicateKmerError = interval.DuplicateKmerError

// ErrStage wraps a failure with the build stage it happened in.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrStage struct {
	Stage Stage
	cause error
}

func (e *ErrStage) Error() string {
	return fmt.Sprintf("saidx: %s: %v", e.Stage, e.cause)
}

func (e *ErrStage) Unwrap() error { return e.cause }

// ErrArtifact wraps a failure to read or write one index artifact.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrArtifact struct {
	Name  string
	cause error
}

func (e *ErrArtifact) Error() string {
	return fmt.Sprintf("artifact %s: %v", e.Name, e.cause)
}

func (e *ErrArtifact) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// A missing artifact or header means the build never finished.
	if errors.Is(err, blobstore.ErrNotFound) && !errors.Is(err, ErrIndexIncomplete) {
		return fmt.Errorf("%w: %w", ErrIndexIncomplete, err)
	}

	return err
}
