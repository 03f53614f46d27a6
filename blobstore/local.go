package blobstore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hupe1980/saidx/internal/fs"
	"github.com/hupe1980/saidx/internal/mmap"
)

const (
	tempInfix     = ".tmp-"
	writeBufSize  = 256 * 1024
	localFileMode = 0o644
)

var tempSeq atomic.Uint64

// LocalStore implements BlobStore using a local directory.
//
// Reads are memory-mapped. Writes go to a temporary file in the same
// directory that is synced and renamed over the target on Close, so a blob
// is either absent or complete.
type LocalStore struct {
	root string
	fs   fs.FileSystem
}

// LocalOption configures a LocalStore.
type LocalOption func(*LocalStore)

// WithFileSystem routes all writes through fsys.
func WithFileSystem(fsys fs.FileSystem) LocalOption {
	return func(s *LocalStore) {
		if fsys != nil {
			s.fs = fsys
		}
	}
}

// NewLocalStore creates a LocalStore rooted at the given directory, creating
// it if needed. It fails with ErrNotDirectory if root is an existing file.
func NewLocalStore(root string, optFns ...LocalOption) (*LocalStore, error) {
	s := &LocalStore{root: root, fs: fs.Default}
	for _, fn := range optFns {
		fn(s)
	}

	fi, err := s.fs.Stat(root)
	switch {
	case err == nil && !fi.IsDir():
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	case errors.Is(err, os.ErrNotExist):
		if err := s.fs.MkdirAll(root, 0o755); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}
	return s, nil
}

// Root returns the store directory.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open opens a blob for reading.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	m, err := mmap.Open(s.path(name))
	if err != nil {
		return nil, err
	}
	// Suffix array access is binary search; readahead only wastes page cache.
	_ = m.Advise(mmap.Random)
	return &localBlob{m: m}, nil
}

// Create creates a blob that is published on Close.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	target := s.path(name)
	if err := s.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, err
	}
	tmp := fmt.Sprintf("%s%s%d-%d", target, tempInfix, time.Now().UnixNano(), tempSeq.Add(1))
	f, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, localFileMode)
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{
		fs:     s.fs,
		f:      f,
		buf:    bufio.NewWriterSize(f, writeBufSize),
		tmp:    tmp,
		target: target,
	}, nil
}

// Put writes a blob atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = abort(w)
		return err
	}
	return w.Close()
}

// Delete removes a blob.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := s.fs.Remove(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// List returns all blobs in the root directory matching the prefix.
// Temporary files of unfinished writes are skipped.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	entries, err := s.fs.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.Contains(name, tempInfix) || !strings.HasPrefix(name, prefix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

type localBlob struct {
	m *mmap.File
}

func (b *localBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return readAt(b.m.Bytes(), p, off)
}

func (b *localBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	r, err := rangeReader(b.m.Bytes(), off, length)
	if err == nil {
		// Ranges are streamed front to back, unlike search access.
		_ = b.m.AdviseRange(int(off), int(min(length, int64(b.m.Len())-off)), mmap.Sequential)
	}
	return r, err
}

func (b *localBlob) Close() error {
	return b.m.Close()
}

func (b *localBlob) Size() int64 {
	return int64(b.m.Len())
}

func (b *localBlob) Bytes() ([]byte, error) {
	if data := b.m.Bytes(); data != nil || b.m.Len() == 0 {
		return data, nil
	}
	return nil, mmap.ErrClosed
}

type localWritableBlob struct {
	fs     fs.FileSystem
	f      fs.File
	buf    *bufio.Writer
	tmp    string
	target string
	done   bool
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	if w.done {
		return 0, os.ErrClosed
	}
	return w.buf.Write(p)
}

func (w *localWritableBlob) Sync() error {
	if err := w.buf.Flush(); err != nil {
		return err
	}
	return w.f.Sync()
}

// Close flushes, syncs and renames the temporary file over the target.
// On any failure the temporary file is removed and the target is untouched.
func (w *localWritableBlob) Close() error {
	if w.done {
		return nil
	}
	w.done = true

	if err := w.Sync(); err != nil {
		_ = w.f.Close()
		_ = w.fs.Remove(w.tmp)
		return err
	}
	if err := w.f.Close(); err != nil {
		_ = w.fs.Remove(w.tmp)
		return err
	}
	if err := w.fs.Rename(w.tmp, w.target); err != nil {
		_ = w.fs.Remove(w.tmp)
		return err
	}
	fs.SyncDir(w.fs, filepath.Dir(w.target))
	return nil
}

// Abort discards the temporary file.
func (w *localWritableBlob) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	_ = w.f.Close()
	return w.fs.Remove(w.tmp)
}
