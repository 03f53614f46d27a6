package saidx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/saidx/blobstore"
	"github.com/hupe1980/saidx/internal/resource"
	"github.com/hupe1980/saidx/persistence"
)

// PublishStats summarizes a Publish call.
type PublishStats struct {
	Artifacts int
	Bytes     int64
}

// Publish copies the complete index in src to dst, for example from a local
// build directory to an object store. Artifacts are copied concurrently,
// bounded by WithMaxTransfers and throttled by WithIOLimit. header.json is
// copied last, so dst only becomes openable once every artifact is in place.
func Publish(ctx context.Context, src, dst blobstore.BlobStore, optFns ...Option) (*PublishStats, error) {
	o := applyOptions(optFns)
	rc := resource.NewController(o.limits)
	log := o.logger

	hb, err := src.Open(ctx, persistence.FileHeaderJSON)
	if err != nil {
		return nil, translateError(&ErrArtifact{Name: persistence.FileHeaderJSON, cause: err})
	}
	raw, err := blobstore.ReadAll(ctx, hb)
	if err == nil {
		// ReadAll may alias a mapping that Close releases.
		raw = append([]byte(nil), raw...)
	}
	_ = hb.Close()
	if err != nil {
		return nil, &ErrArtifact{Name: persistence.FileHeaderJSON, cause: err}
	}
	h, err := persistence.DecodeHeader(o.codec, raw)
	if err != nil {
		return nil, err
	}

	if err := dst.Delete(ctx, persistence.FileHeaderJSON); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		return nil, fmt.Errorf("saidx: remove stale header: %w", err)
	}

	var total atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range h.Artifacts() {
		g.Go(func() error {
			release, err := rc.AcquireTransfer(gctx)
			if err != nil {
				return err
			}
			defer release()

			n, err := blobstore.Copy(gctx, src, dst, name, func(w io.Writer) io.Writer {
				return resource.NewRateLimitedWriter(gctx, w, rc)
			})
			log.LogArtifact(gctx, name, n, err)
			o.metricsCollector.RecordArtifact(name, n, err)
			if err != nil {
				return translateError(&ErrArtifact{Name: name, cause: err})
			}
			total.Add(n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := dst.Put(ctx, persistence.FileHeaderJSON, raw); err != nil {
		return nil, &ErrArtifact{Name: persistence.FileHeaderJSON, cause: err}
	}
	stats := &PublishStats{Artifacts: len(h.Artifacts()) + 1, Bytes: total.Load() + int64(len(raw))}
	log.InfoContext(ctx, "index published",
		"artifacts", stats.Artifacts,
		"bytes", stats.Bytes,
	)
	return stats, nil
}
