package fasta

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the number of records per batch.
const DefaultBatchSize = 1000

// Source yields complete batches of records. Next returns io.EOF once the
// source is exhausted.
type Source interface {
	Next(ctx context.Context) ([]Record, error)
}

// PoolOptions configure a Pool.
type PoolOptions struct {
	// Readers is the number of files read concurrently. Defaults to 1.
	Readers int
	// BatchSize is the number of records per batch.
	BatchSize int
	Logger    *slog.Logger
}

// Pool reads files with a bounded set of goroutines. Records of one file
// keep their order; batches of different files may interleave.
type Pool struct {
	batches chan []Record
	cancel  context.CancelFunc
	wait    func() error
	once    sync.Once
	err     error
}

// NewPool starts reading paths in the background.
func NewPool(ctx context.Context, paths []string, opts PoolOptions) *Pool {
	if opts.Readers <= 0 {
		opts.Readers = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Readers)

	p := &Pool{
		batches: make(chan []Record, opts.Readers),
		cancel:  cancel,
	}

	done := make(chan error, 1)
	go func() {
		for _, path := range paths {
			g.Go(func() error {
				return readFile(gctx, path, opts, p.batches)
			})
		}
		err := g.Wait()
		close(p.batches)
		done <- err
	}()
	p.wait = func() error { return <-done }
	return p
}

func readFile(ctx context.Context, path string, opts PoolOptions, out chan<- []Record) error {
	rc, err := Open(path)
	if err != nil {
		return fmt.Errorf("fasta: open %s: %w", path, err)
	}
	defer rc.Close()

	batch := make([]Record, 0, opts.BatchSize)
	send := func() error {
		if len(batch) == 0 {
			return nil
		}
		select {
		case out <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}
		batch = make([]Record, 0, opts.BatchSize)
		return nil
	}

	n := 0
	err = Parse(ctx, rc, func(r Record) error {
		n++
		batch = append(batch, r)
		if len(batch) == opts.BatchSize {
			return send()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("fasta: read %s: %w", path, err)
	}
	if err := send(); err != nil {
		return err
	}
	opts.Logger.Debug("finished reading sequences", "path", path, "records", n)
	return nil
}

// Next implements Source.
func (p *Pool) Next(ctx context.Context) ([]Record, error) {
	select {
	case b, ok := <-p.batches:
		if ok {
			return b, nil
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	p.once.Do(func() { p.err = p.wait() })
	if p.err != nil {
		return nil, p.err
	}
	return nil, io.EOF
}

// Close stops the readers and releases their files.
func (p *Pool) Close() error {
	p.cancel()
	for range p.batches {
	}
	p.once.Do(func() { p.err = p.wait() })
	return nil
}

// SliceSource serves in-memory records, mainly for tests.
type SliceSource struct {
	records   []Record
	batchSize int
}

// NewSliceSource returns a Source over records.
func NewSliceSource(records []Record, batchSize int) *SliceSource {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &SliceSource{records: records, batchSize: batchSize}
}

// Next implements Source.
func (s *SliceSource) Next(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.records) == 0 {
		return nil, io.EOF
	}
	n := min(s.batchSize, len(s.records))
	b := s.records[:n]
	s.records = s.records[n:]
	return b, nil
}
