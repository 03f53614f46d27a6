package saidx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unsafe"

	"github.com/hupe1980/saidx/blobstore"
	"github.com/hupe1980/saidx/internal/corpus"
	"github.com/hupe1980/saidx/internal/fasta"
	"github.com/hupe1980/saidx/internal/interval"
	"github.com/hupe1980/saidx/internal/normalize"
	"github.com/hupe1980/saidx/internal/resource"
	"github.com/hupe1980/saidx/internal/suffixarray"
	"github.com/hupe1980/saidx/kmer"
	"github.com/hupe1980/saidx/persistence"
)

// corpusProgressEvery is the debug logging period of the read stage.
const corpusProgressEvery = 10_000

// Stage names one step of a build.
type Stage uint8

const (
	// StageRead reads, normalizes and concatenates the input sequences.
	StageRead Stage = iota
	// StageSort sorts the suffixes and writes sa.bin.
	StageSort
	// StageValidate checks the suffix array.
	StageValidate
	// StageIntervals scans the suffix array and writes the k-mer table.
	StageIntervals
	// StageHeader writes header.json.
	StageHeader

	numStages
)

func (s Stage) String() string {
	switch s {
	case StageRead:
		return "read"
	case StageSort:
		return "sort"
	case StageValidate:
		return "validate"
	case StageIntervals:
		return "intervals"
	case StageHeader:
		return "header"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// BuildStats summarizes a finished build.
type BuildStats struct {
	K           int
	PerfectHash bool
	LargeIndex  bool

	Records   uint64 // input records seen
	Sequences int    // sequences in the index
	Discarded uint64
	Replaced  uint64 // non-ACGT residues replaced by random bases
	Clipped   uint64 // poly-A tails clipped
	Long      uint64 // sequences longer than a plausible transcript

	TextLength int64
	NumKmers   int
	Bytes      int64 // artifact bytes written
	PeakMemory int64 // largest reservation of text and suffix array

	Durations [numStages]time.Duration
}

// Duration returns the time spent in stage s.
func (s *BuildStats) Duration(stage Stage) time.Duration {
	if int(stage) >= len(s.Durations) {
		return 0
	}
	return s.Durations[stage]
}

// Build reads cfg.Inputs and writes a complete index.
//
// Artifacts are written as soon as they exist; header.json is written last.
// Any failure aborts the build before the header is written, so a directory
// without header.json never opens.
func Build(ctx context.Context, cfg BuildConfig, optFns ...Option) (*BuildStats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := applyOptions(optFns)

	store := o.store
	if store == nil {
		ls, err := blobstore.NewLocalStore(cfg.Output)
		if err != nil {
			if errors.Is(err, blobstore.ErrNotDirectory) {
				return nil, fmt.Errorf("%w: %s", ErrOutputIsFile, cfg.Output)
			}
			return nil, err
		}
		store = ls
	}

	b := &builder{
		cfg:     cfg,
		opts:    o,
		store:   store,
		codec:   kmer.MustCodec(cfg.K),
		rc:      resource.NewController(o.limits),
		log:     o.logger.WithK(cfg.K),
		metrics: o.metricsCollector,
		stats:   &BuildStats{K: cfg.K, PerfectHash: cfg.PerfectHash},
	}
	if err := b.run(ctx); err != nil {
		return nil, err
	}
	b.stats.PeakMemory = b.rc.Peak()
	return b.stats, nil
}

type builder struct {
	cfg     BuildConfig
	opts    options
	store   blobstore.BlobStore
	codec   kmer.Codec
	rc      *resource.Controller
	text    *resource.Reservation
	log     *Logger
	metrics MetricsCollector
	stats   *BuildStats
}

func (b *builder) run(ctx context.Context) error {
	// A header left by an earlier build would make a half-rebuilt index look complete.
	if err := b.store.Delete(ctx, persistence.FileHeaderJSON); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("saidx: remove stale header: %w", err)
	}

	var c *corpus.Corpus
	err := b.stage(ctx, StageRead, func(ctx context.Context) error {
		var err error
		c, err = b.readCorpus(ctx)
		return err
	})
	if err != nil {
		return err
	}
	defer b.text.Release()

	if suffixarray.SelectWidth(int64(len(c.Text))).Large() {
		b.stats.LargeIndex = true
		return buildWidth[int64](ctx, b, c)
	}
	return buildWidth[int32](ctx, b, c)
}

func (b *builder) readCorpus(ctx context.Context) (*corpus.Corpus, error) {
	pool := fasta.NewPool(ctx, b.cfg.Inputs, fasta.PoolOptions{
		Readers:   b.cfg.Readers,
		BatchSize: b.cfg.BatchSize,
		Logger:    b.log.Logger,
	})
	defer pool.Close()

	norm := normalize.New(normalize.Options{
		K:         b.cfg.K,
		ClipPolyA: b.cfg.ClipPolyA,
		Rand:      b.opts.rng,
		Logger:    b.log.Logger,
	})
	cb := corpus.NewBuilder(0)

	for {
		batch, err := pool.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for _, rec := range batch {
			seq, outcome := norm.Normalize(ctx, rec.Header, rec.Residues)
			if outcome != normalize.Kept {
				continue
			}
			if n := cb.Add(rec.Header, seq) + 1; n%corpusProgressEvery == 0 {
				b.log.DebugContext(ctx, "reading sequences", "sequences", n, "text_length", cb.TextLen())
			}
		}
	}

	ns := norm.Stats()
	b.stats.Records = ns.Sequences
	b.stats.Discarded = ns.Discarded
	b.stats.Replaced = ns.Replaced
	b.stats.Clipped = ns.Clipped
	b.stats.Long = ns.Long

	if cb.NumSequences() == 0 {
		return nil, ErrEmptyIndex
	}
	res, err := b.rc.Reserve("text", int64(cb.TextLen()))
	if err != nil {
		return nil, err
	}
	b.text = res
	c := cb.Finish()
	b.stats.Sequences = c.NumSequences()
	b.stats.TextLength = int64(len(c.Text))
	b.log.LogCorpus(ctx, *b.stats)
	return c, nil
}

func buildWidth[T suffixarray.Offset](ctx context.Context, b *builder, c *corpus.Corpus) error {
	b.log.InfoContext(ctx, "building suffix array",
		"width", suffixarray.WidthOf[T]().String(),
		"text_length", len(c.Text),
	)

	if err := b.write(ctx, persistence.FileBoundaries, func(w io.Writer) error {
		return persistence.WriteBoundaries(w, c.Boundaries)
	}); err != nil {
		return err
	}
	if err := b.write(ctx, persistence.FileSequences, func(w io.Writer) error {
		return persistence.WriteSequences[T](w, c)
	}); err != nil {
		return err
	}

	var zero T
	saBytes := int64(len(c.Text)) * int64(unsafe.Sizeof(zero))
	res, err := b.rc.Reserve("suffix array", saBytes)
	if err != nil {
		return err
	}
	defer res.Release()

	var sa []T
	err = b.stage(ctx, StageSort, func(ctx context.Context) error {
		var err error
		if sa, err = suffixarray.Build[T](c.Text, b.opts.sorter); err != nil {
			return err
		}
		return b.write(ctx, persistence.FileSuffixArray, func(w io.Writer) error {
			return persistence.WriteSuffixArray(w, sa)
		})
	})
	if err != nil {
		return err
	}

	if b.opts.validateSA {
		if err := b.stage(ctx, StageValidate, func(context.Context) error {
			return suffixarray.Validate(c.Text, sa)
		}); err != nil {
			return err
		}
	}

	err = b.stage(ctx, StageIntervals, func(ctx context.Context) error {
		strategy := interval.StrategyDense
		if b.cfg.PerfectHash {
			strategy = interval.StrategyPerfect
		}
		idx, err := interval.Build(ctx, b.codec, c.Text, sa, interval.Options{
			Strategy: strategy,
			Threads:  b.cfg.HashThreads,
			Logger:   b.log.Logger,
		})
		if err != nil {
			return err
		}
		b.stats.NumKmers = idx.Len()
		return writeIntervals(ctx, b, idx)
	})
	if err != nil {
		return err
	}

	return b.stage(ctx, StageHeader, func(ctx context.Context) error {
		data, err := persistence.EncodeHeader(b.opts.codec, persistence.IndexHeader{
			IndexType:      persistence.IndexType,
			FormatVersion:  persistence.FormatVersion,
			K:              b.cfg.K,
			LargeIndex:     b.stats.LargeIndex,
			UsePerfectHash: b.cfg.PerfectHash,
			Sentinel:       string(kmer.Sentinel),
			NumSequences:   c.NumSequences(),
			TextLength:     int64(len(c.Text)),
			NumKmers:       b.stats.NumKmers,
		})
		if err != nil {
			return err
		}
		return b.write(ctx, persistence.FileHeaderJSON, func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		})
	})
}

func writeIntervals[T suffixarray.Offset](ctx context.Context, b *builder, idx interval.Index[T]) error {
	switch t := idx.(type) {
	case *interval.Dense[T]:
		return b.write(ctx, persistence.FileDenseHash, func(w io.Writer) error {
			return persistence.WriteDense(w, t)
		})
	case *interval.Perfect[T]:
		if err := b.write(ctx, persistence.FilePerfectInfo, func(w io.Writer) error {
			return persistence.WritePerfectInfo(w, t)
		}); err != nil {
			return err
		}
		return b.write(ctx, persistence.FilePerfectMPH, func(w io.Writer) error {
			return persistence.WritePerfectMPH(w, t.Table())
		})
	default:
		return fmt.Errorf("saidx: unexpected k-mer table %T", idx)
	}
}

// stage runs fn as build stage s, recording its duration and outcome.
func (b *builder) stage(ctx context.Context, s Stage, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return &ErrStage{Stage: s, cause: err}
	}
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	b.stats.Durations[s] = elapsed
	b.log.LogStage(ctx, s, elapsed, err)
	b.metrics.RecordStage(s, elapsed, err)
	if err != nil {
		return &ErrStage{Stage: s, cause: err}
	}
	return nil
}

// write creates artifact name and fills it with encode. On failure the
// partial blob is discarded.
func (b *builder) write(ctx context.Context, name string, encode func(io.Writer) error) error {
	n, err := b.writeBlob(ctx, name, encode)
	b.log.LogArtifact(ctx, name, n, err)
	b.metrics.RecordArtifact(name, n, err)
	if err != nil {
		return &ErrArtifact{Name: name, cause: err}
	}
	b.stats.Bytes += n
	return nil
}

func (b *builder) writeBlob(ctx context.Context, name string, encode func(io.Writer) error) (int64, error) {
	wb, err := b.store.Create(ctx, name)
	if err != nil {
		return 0, err
	}
	cw := &resource.CountingWriter{W: resource.NewRateLimitedWriter(ctx, wb, b.rc)}
	if err := encode(cw); err != nil {
		_ = blobstore.Abort(wb)
		return cw.N, err
	}
	if err := wb.Close(); err != nil {
		return cw.N, err
	}
	return cw.N, nil
}
