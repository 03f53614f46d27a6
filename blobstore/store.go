package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrNotFound is returned when a blob does not exist.
	//
	// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
	// The default maps to `os.ErrNotExist`.
	ErrNotFound = os.ErrNotExist

	// ErrNotDirectory is returned when a local store root exists but is not a directory.
	ErrNotDirectory = errors.New("blobstore: root exists and is not a directory")
)

// BlobStore is an abstraction for reading and writing immutable index artifacts.
// Implementations must be safe for concurrent use.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create creates a blob for writing. The blob becomes visible under name
	// only after a successful Close.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the names of all blobs with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer
	// ReadAt reads len(p) bytes at off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange streams length bytes starting at off. Offsets past the end
	// of the blob return io.EOF.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a blob being written.
type WritableBlob interface {
	io.WriteCloser
	// Sync flushes buffered data to durable storage where supported.
	Sync() error
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	// This is a zero-copy operation if supported.
	Bytes() ([]byte, error)
}

// ReadAll returns the full content of b. Mappable blobs are returned without
// copying and stay valid only while b is open.
func ReadAll(ctx context.Context, b Blob) ([]byte, error) {
	if m, ok := b.(Mappable); ok {
		return m.Bytes()
	}
	if b.Size() == 0 {
		return nil, nil
	}
	rc, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	buf := bytes.NewBuffer(make([]byte, 0, b.Size()))
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, err
	}
	if int64(buf.Len()) != b.Size() {
		return nil, fmt.Errorf("blobstore: short read: %d of %d bytes", buf.Len(), b.Size())
	}
	return buf.Bytes(), nil
}

// Copy streams blob name from src to dst. A non-nil wrap decorates the
// destination writer, for example with a rate limiter. On failure the
// destination blob is aborted.
func Copy(ctx context.Context, src, dst BlobStore, name string, wrap func(io.Writer) io.Writer) (int64, error) {
	b, err := src.Open(ctx, name)
	if err != nil {
		return 0, err
	}
	defer b.Close()

	w, err := dst.Create(ctx, name)
	if err != nil {
		return 0, err
	}
	var n int64
	if b.Size() > 0 {
		rc, err := b.ReadRange(ctx, 0, b.Size())
		if err != nil {
			_ = abort(w)
			return 0, err
		}
		var out io.Writer = w
		if wrap != nil {
			out = wrap(w)
		}
		n, err = io.Copy(out, rc)
		_ = rc.Close()
		if err != nil {
			_ = abort(w)
			return n, err
		}
	}
	return n, w.Close()
}

// Aborter is implemented by writable blobs that can discard their content
// instead of publishing it.
type Aborter interface {
	Abort() error
}

func abort(w WritableBlob) error {
	if a, ok := w.(Aborter); ok {
		return a.Abort()
	}
	return w.Close()
}

// Abort discards w if it supports it and closes it otherwise.
func Abort(w WritableBlob) error { return abort(w) }

// rangeReader bounds [off, off+length) of data, clipping at the end.
func rangeReader(data []byte, off, length int64) (io.ReadCloser, error) {
	if off < 0 || length < 0 {
		return nil, fmt.Errorf("blobstore: invalid range %d+%d", off, length)
	}
	if off >= int64(len(data)) {
		if off == 0 && length == 0 {
			return io.NopCloser(bytes.NewReader(nil)), nil
		}
		return nil, io.EOF
	}
	end := min(off+length, int64(len(data)))
	return io.NopCloser(bytes.NewReader(data[off:end])), nil
}

func readAt(data []byte, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("blobstore: negative offset %d", off)
	}
	if off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
