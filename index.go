package saidx

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/saidx/blobstore"
	"github.com/hupe1980/saidx/internal/corpus"
	"github.com/hupe1980/saidx/internal/interval"
	"github.com/hupe1980/saidx/internal/search"
	"github.com/hupe1980/saidx/internal/suffixarray"
	"github.com/hupe1980/saidx/kmer"
	"github.com/hupe1980/saidx/persistence"
)

// Match is a run of suffix array positions whose suffixes start with a
// pattern. Left is only meaningful when Count > 0.
type Match struct {
	Left  int64
	Count int64
}

// Empty reports whether the match holds no suffix.
func (m Match) Empty() bool { return m.Count <= 0 }

// Hit is one occurrence of a pattern.
type Hit struct {
	SequenceID int
	Name       string
	// Position is the 0-based offset within the sequence.
	Position int64
}

// Index is a loaded, read-only index. Queries are safe for concurrent use;
// Close must not race with them.
type Index struct {
	header  persistence.IndexHeader
	codec   kmer.Codec
	view    view
	blobs   []blobstore.Blob
	log     *Logger
	metrics MetricsCollector
	closed  atomic.Bool
}

// view hides the offset width of the loaded arrays.
type view interface {
	rangeOf(pattern []byte) (int64, int64)
	find(pattern []byte) (int64, int64)
	lookup(code uint64) (interval.Interval[int64], bool)
	offset(i int64) int64
	suffixes() int
	locate(off int64) (id int, pos int64, ok bool)
	names() []string
	sequence(id int) []byte
}

type engine[T suffixarray.Offset] struct {
	*search.Engine[T]
	text   []byte
	seqs   *persistence.Sequences[T]
	bounds *corpus.Boundaries
}

func (e *engine[T]) rangeOf(p []byte) (int64, int64) { return e.Range(p) }
func (e *engine[T]) find(p []byte) (int64, int64)    { return e.Find(p) }
func (e *engine[T]) suffixes() int                   { return e.Len() }
func (e *engine[T]) names() []string                 { return e.seqs.Names }

func (e *engine[T]) offset(i int64) int64 { return e.Offset(i) }

func (e *engine[T]) lookup(code uint64) (interval.Interval[int64], bool) {
	iv, ok := e.Lookup(code)
	return iv.Widen(), ok
}

func (e *engine[T]) locate(off int64) (int, int64, bool) {
	if off < 0 || off >= int64(len(e.text)) || e.text[off] == kmer.Sentinel {
		return 0, 0, false
	}
	id := e.bounds.Locate(uint64(off))
	if id >= len(e.seqs.Starts) {
		return 0, 0, false
	}
	return id, off - int64(e.seqs.Starts[id]), true
}

func (e *engine[T]) sequence(id int) []byte {
	start := int64(e.seqs.Starts[id])
	end, _ := e.bounds.End(uint64(start))
	return e.text[start : int64(end)+1]
}

// OpenDir opens the index in directory dir.
func OpenDir(ctx context.Context, dir string, optFns ...Option) (*Index, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrIndexIncomplete, err)
		}
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrOutputIsFile, dir)
	}
	store, err := blobstore.NewLocalStore(dir)
	if err != nil {
		return nil, err
	}
	return Open(ctx, store, optFns...)
}

// Open loads the index held by store. header.json is read first; an index
// without it is incomplete.
func Open(ctx context.Context, store blobstore.BlobStore, optFns ...Option) (*Index, error) {
	o := applyOptions(optFns)
	ix := &Index{log: o.logger, metrics: o.metricsCollector}

	err := ix.load(ctx, store, o)
	o.logger.LogOpen(ctx, ix.header.K, ix.header.LargeIndex, err)
	if err != nil {
		_ = ix.release()
		return nil, translateError(err)
	}
	return ix, nil
}

func (ix *Index) load(ctx context.Context, store blobstore.BlobStore, o options) error {
	raw, err := ix.read(ctx, store, persistence.FileHeaderJSON)
	if err != nil {
		return err
	}
	h, err := persistence.DecodeHeader(o.codec, raw)
	if err != nil {
		return err
	}
	ix.header = h
	ix.codec = kmer.MustCodec(h.K)
	ix.log = ix.log.WithK(h.K)

	sa, err := ix.read(ctx, store, persistence.FileSuffixArray)
	if err != nil {
		return err
	}
	w, err := persistence.PeekWidth(sa)
	if err != nil {
		return &ErrArtifact{Name: persistence.FileSuffixArray, cause: err}
	}
	if w.Large() != h.LargeIndex {
		return fmt.Errorf("%w: header says largeIndex=%t, %s has %s offsets",
			ErrCorruptIndex, h.LargeIndex, persistence.FileSuffixArray, w)
	}

	if w.Large() {
		ix.view, err = openWidth[int64](ctx, ix, store, sa, o.verifyChecksums)
	} else {
		ix.view, err = openWidth[int32](ctx, ix, store, sa, o.verifyChecksums)
	}
	return err
}

func openWidth[T suffixarray.Offset](ctx context.Context, ix *Index, store blobstore.BlobStore, saData []byte, verify bool) (view, error) {
	sa, err := persistence.ReadSuffixArray[T](saData, verify)
	if err != nil {
		return nil, &ErrArtifact{Name: persistence.FileSuffixArray, cause: err}
	}

	data, err := ix.read(ctx, store, persistence.FileSequences)
	if err != nil {
		return nil, err
	}
	seqs, err := persistence.ReadSequences[T](data, verify)
	if err != nil {
		return nil, &ErrArtifact{Name: persistence.FileSequences, cause: err}
	}

	if data, err = ix.read(ctx, store, persistence.FileBoundaries); err != nil {
		return nil, err
	}
	bounds, err := persistence.ReadBoundaries(data, verify)
	if err != nil {
		return nil, &ErrArtifact{Name: persistence.FileBoundaries, cause: err}
	}

	var table interval.Index[T]
	if ix.header.UsePerfectHash {
		info, err := ix.read(ctx, store, persistence.FilePerfectInfo)
		if err != nil {
			return nil, err
		}
		fn, err := ix.read(ctx, store, persistence.FilePerfectMPH)
		if err != nil {
			return nil, err
		}
		p, err := persistence.ReadPerfect[T](info, fn, verify)
		if err != nil {
			return nil, &ErrArtifact{Name: persistence.FilePerfectInfo, cause: err}
		}
		table = p
	} else {
		data, err := ix.read(ctx, store, persistence.FileDenseHash)
		if err != nil {
			return nil, err
		}
		d, err := persistence.ReadDense[T](data, verify)
		if err != nil {
			return nil, &ErrArtifact{Name: persistence.FileDenseHash, cause: err}
		}
		table = d
	}

	if err := checkConsistent(ix.header, seqs, sa, bounds); err != nil {
		return nil, err
	}

	return &engine[T]{
		Engine: search.New(seqs.Text, sa, bounds, table, ix.codec),
		text:   seqs.Text,
		seqs:   seqs,
		bounds: bounds,
	}, nil
}

func checkConsistent[T suffixarray.Offset](h persistence.IndexHeader, seqs *persistence.Sequences[T], sa []T, bounds *corpus.Boundaries) error {
	n := len(seqs.Text)
	switch {
	case len(sa) != n:
		return fmt.Errorf("%w: %d suffixes for %d text bytes", ErrCorruptIndex, len(sa), n)
	case bounds.Len() != uint64(n):
		return fmt.Errorf("%w: %d boundary bits for %d text bytes", ErrCorruptIndex, bounds.Len(), n)
	case bounds.Count() != uint64(len(seqs.Names)):
		return fmt.Errorf("%w: %d boundaries for %d sequences", ErrCorruptIndex, bounds.Count(), len(seqs.Names))
	case h.NumSequences != 0 && h.NumSequences != len(seqs.Names):
		return fmt.Errorf("%w: header lists %d sequences, found %d", ErrCorruptIndex, h.NumSequences, len(seqs.Names))
	case h.TextLength != 0 && h.TextLength != int64(n):
		return fmt.Errorf("%w: header lists text length %d, found %d", ErrCorruptIndex, h.TextLength, n)
	}
	return nil
}

// read returns the content of artifact name. Mapped blobs stay open until
// Close; others are copied and closed.
func (ix *Index) read(ctx context.Context, store blobstore.BlobStore, name string) ([]byte, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, &ErrArtifact{Name: name, cause: err}
	}
	data, err := blobstore.ReadAll(ctx, b)
	if err != nil {
		_ = b.Close()
		return nil, &ErrArtifact{Name: name, cause: err}
	}
	if _, ok := b.(blobstore.Mappable); ok {
		ix.blobs = append(ix.blobs, b)
	} else if err := b.Close(); err != nil {
		return nil, &ErrArtifact{Name: name, cause: err}
	}
	return data, nil
}

// Header returns the decoded header.json.
func (ix *Index) Header() persistence.IndexHeader { return ix.header }

// K returns the k-mer length of the lookup table.
func (ix *Index) K() int { return ix.header.K }

// NumSequences returns the number of indexed sequences.
func (ix *Index) NumSequences() int { return len(ix.view.names()) }

// Len returns the number of suffixes, sentinels included.
func (ix *Index) Len() int { return ix.view.suffixes() }

// Name returns the name of sequence id.
func (ix *Index) Name(id int) (string, error) {
	if err := ix.checkSequence(id); err != nil {
		return "", err
	}
	return ix.view.names()[id], nil
}

// Sequence returns the residues of sequence id. The slice aliases the index
// and must not be modified or used after Close.
func (ix *Index) Sequence(id int) ([]byte, error) {
	if err := ix.checkSequence(id); err != nil {
		return nil, err
	}
	return ix.view.sequence(id), nil
}

func (ix *Index) checkSequence(id int) error {
	if ix.closed.Load() {
		return ErrClosed
	}
	if id < 0 || id >= ix.NumSequences() {
		return fmt.Errorf("saidx: sequence id %d out of range [0, %d)", id, ix.NumSequences())
	}
	return nil
}

// Range finds the suffixes starting with pattern by binary search over the
// whole suffix array. Matches never span two sequences.
func (ix *Index) Range(ctx context.Context, pattern []byte) (Match, error) {
	return ix.query(ctx, pattern, ix.view.rangeOf)
}

// Find is Range seeded by the k-mer table when pattern is at least k long.
func (ix *Index) Find(ctx context.Context, pattern []byte) (Match, error) {
	return ix.query(ctx, pattern, ix.view.find)
}

func (ix *Index) query(ctx context.Context, pattern []byte, fn func([]byte) (int64, int64)) (Match, error) {
	if ix.closed.Load() {
		return Match{}, ErrClosed
	}
	start := time.Now()
	left, count := fn(pattern)
	ix.metrics.RecordSearch(count, time.Since(start))
	ix.log.LogSearch(ctx, len(pattern), count, nil)
	return Match{Left: left, Count: count}, nil
}

// Lookup returns the suffix array run of a k-mer. It reports false when word
// is not k plain bases or does not occur.
func (ix *Index) Lookup(word []byte) (Match, bool, error) {
	if ix.closed.Load() {
		return Match{}, false, ErrClosed
	}
	if len(word) != ix.codec.K() {
		return Match{}, false, nil
	}
	code, ok := ix.codec.Encode(word)
	if !ok {
		return Match{}, false, nil
	}
	iv, ok := ix.view.lookup(code)
	ix.metrics.RecordLookup(ok)
	if !ok {
		return Match{}, false, nil
	}
	return Match{Left: iv.Start, Count: iv.Len()}, true, nil
}

// Offset returns the text offset of suffix array position i.
func (ix *Index) Offset(i int64) (int64, error) {
	if ix.closed.Load() {
		return 0, ErrClosed
	}
	if i < 0 || i >= int64(ix.Len()) {
		return 0, fmt.Errorf("saidx: suffix array position %d out of range [0, %d)", i, ix.Len())
	}
	return ix.view.offset(i), nil
}

// Locate resolves a text offset to the sequence holding it. Sentinel offsets
// belong to no sequence.
func (ix *Index) Locate(off int64) (Hit, error) {
	if ix.closed.Load() {
		return Hit{}, ErrClosed
	}
	id, pos, ok := ix.view.locate(off)
	if !ok {
		return Hit{}, fmt.Errorf("saidx: text offset %d is not a residue", off)
	}
	return Hit{SequenceID: id, Name: ix.view.names()[id], Position: pos}, nil
}

// Hits yields the occurrences of m in suffix array order. Stop iterating to
// end early.
func (ix *Index) Hits(m Match) iter.Seq[Hit] {
	return func(yield func(Hit) bool) {
		if ix.closed.Load() {
			return
		}
		names := ix.view.names()
		lo, hi := ix.clamp(m)
		for i := lo; i < hi; i++ {
			id, pos, ok := ix.view.locate(ix.view.offset(i))
			if !ok {
				continue
			}
			if !yield(Hit{SequenceID: id, Name: names[id], Position: pos}) {
				return
			}
		}
	}
}

// Sequences returns the ids of the sequences that contain m.
func (ix *Index) Sequences(m Match) (*roaring.Bitmap, error) {
	if ix.closed.Load() {
		return nil, ErrClosed
	}
	bm := roaring.New()
	lo, hi := ix.clamp(m)
	for i := lo; i < hi; i++ {
		if id, _, ok := ix.view.locate(ix.view.offset(i)); ok {
			bm.Add(uint32(id))
		}
	}
	return bm, nil
}

// clamp bounds the SA range of m to [0, Len()).
func (ix *Index) clamp(m Match) (lo, hi int64) {
	n := int64(ix.Len())
	lo, c := m.Left, m.Count
	if lo < 0 {
		c += lo
		lo = 0
	}
	lo = min(lo, n)
	return lo, lo + min(max(c, 0), n-lo)
}

// Close releases mapped artifacts. Slices returned by the index become invalid.
func (ix *Index) Close() error {
	if ix == nil || ix.closed.Swap(true) {
		return nil
	}
	return ix.release()
}

func (ix *Index) release() error {
	var errs []error
	for _, b := range ix.blobs {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	ix.blobs = nil
	return errors.Join(errs...)
}
