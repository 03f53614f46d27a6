package mmap

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// File is a read-only mapping of a whole artifact file.
type File struct {
	data   []byte
	closed atomic.Bool
	unmap  func() error
}

// Open maps path read-only. An empty file yields a File with no data.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if !fi.Mode().IsRegular() || int64(int(size)) != size {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	if size == 0 {
		return &File{}, nil
	}

	data, unmap, err := mapFile(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &File{data: data, unmap: unmap}, nil
}

// Bytes returns the mapped content, or nil once the File is closed. The slice
// must not be used after Close.
func (m *File) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Len returns the file size.
func (m *File) Len() int { return len(m.data) }

// Advise applies a to the whole mapping.
func (m *File) Advise(a Advice) error {
	return m.AdviseRange(0, len(m.data), a)
}

// AdviseRange applies a to the pages covering [off, off+n).
func (m *File) AdviseRange(off, n int, a Advice) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if off < 0 || n < 0 || off+n > len(m.data) {
		return ErrRange
	}
	if n == 0 {
		return nil
	}
	start, end := alignRange(off, n, len(m.data), pageSize)
	return advise(m.data[start:end], a)
}

// ReadAt implements io.ReaderAt.
func (m *File) ReadAt(p []byte, off int64) (int, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrRange
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close unmaps the file. Repeated calls return nil.
func (m *File) Close() error {
	if m.closed.Swap(true) || m.unmap == nil {
		return nil
	}
	return m.unmap()
}
