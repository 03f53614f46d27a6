package persistence

import (
	"encoding/binary"
	"fmt"
	"io"
	"unsafe"

	ihash "github.com/hupe1980/saidx/internal/hash"
)

// Writer writes one artifact: a header, raw little-endian arrays and the
// checksum footer. The first error sticks; later calls are no-ops.
type Writer struct {
	cw  *summer
	n   int64
	err error
}

// NewWriter creates a new artifact writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{cw: newSummer(w)}
}

// WriteHeader writes the file header, filling in magic and version.
func (bw *Writer) WriteHeader(header FileHeader) error {
	header.Magic = MagicNumber
	header.Version = Version
	if bw.err == nil {
		bw.err = binary.Write(bw.cw, binary.LittleEndian, &header)
		bw.n += HeaderSize
	}
	return bw.err
}

// WriteBytes writes b verbatim.
func (bw *Writer) WriteBytes(b []byte) error {
	if bw.err != nil || len(b) == 0 {
		return bw.err
	}
	n, err := bw.cw.Write(b)
	bw.n += int64(n)
	bw.err = err
	return bw.err
}

// WriteUint64 writes a single little-endian value.
func (bw *Writer) WriteUint64(v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return bw.WriteBytes(b[:])
}

// WriteSlice writes the in-memory bytes of s, so readers can map them back
// without decoding.
func WriteSlice[E any](bw *Writer, s []E) error {
	b, err := asBytes(s)
	if err != nil {
		if bw.err == nil {
			bw.err = err
		}
		return err
	}
	if len(b) == 0 {
		return bw.err
	}
	return bw.WriteBytes(b)
}

// Close writes the checksum footer. It does not close the underlying writer.
func (bw *Writer) Close() error {
	if bw.err != nil {
		return bw.err
	}
	var b [FooterSize]byte
	ihash.PutFooter(b[:], bw.cw.crc.Sum32())
	n, err := bw.cw.w.Write(b[:])
	bw.n += int64(n)
	bw.err = err
	return err
}

// Written returns the number of bytes written so far.
func (bw *Writer) Written() int64 { return bw.n }

// SliceReader provides bounds-checked reads from a byte slice.
// It is used by mmap loaders to avoid intermediate allocations.
type SliceReader struct {
	b   []byte
	off int
}

// NewSliceReader returns a reader over b.
func NewSliceReader(b []byte) *SliceReader {
	return &SliceReader{b: b, off: 0}
}

// Open validates a complete artifact and returns its header and a reader
// positioned at the start of its body. With verify set the footer checksum
// is checked first.
func Open(data []byte, kind Kind, verify bool) (FileHeader, *SliceReader, error) {
	var h FileHeader
	if len(data) < HeaderSize+FooterSize {
		return h, nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}
	if verify {
		if _, err := ihash.SplitFooter(data); err != nil {
			return h, nil, err
		}
	}
	r := NewSliceReader(data[:len(data)-FooterSize])
	h, err := r.ReadFileHeader()
	if err != nil {
		return h, nil, err
	}
	if h.Kind != kind {
		return h, nil, fmt.Errorf("%w: want %s, got %s", ErrInvalidKind, kind, h.Kind)
	}
	return h, r, nil
}

// Offset returns the current read position.
func (r *SliceReader) Offset() int {
	if r == nil {
		return 0
	}
	return r.off
}

// ReadBytes returns the next n bytes as a view.
func (r *SliceReader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.b) || r.off+n < r.off {
		return nil, fmt.Errorf("%w: %d bytes at %d, len=%d", ErrTruncated, n, r.off, len(r.b))
	}
	out := r.b[r.off : r.off+n]
	r.off += n
	return out, nil
}

// ReadUint64 reads a single little-endian value.
func (r *SliceReader) ReadUint64() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Remaining returns the unread bytes.
func (r *SliceReader) Remaining() []byte {
	if r.off >= len(r.b) {
		return nil
	}
	return r.b[r.off:]
}

// ReadFileHeader decodes and validates a FileHeader.
func (r *SliceReader) ReadFileHeader() (FileHeader, error) {
	var h FileHeader
	b, err := r.ReadBytes(HeaderSize)
	if err != nil {
		return h, err
	}
	h.Magic = binary.LittleEndian.Uint32(b[0:])
	h.Version = binary.LittleEndian.Uint32(b[4:])
	h.Kind = Kind(b[8])
	h.Width = b[9]
	h.Count = binary.LittleEndian.Uint64(b[16:])
	h.Aux = binary.LittleEndian.Uint64(b[24:])
	if h.Magic != MagicNumber {
		return h, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, h.Magic)
	}
	if h.Version != Version {
		return h, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, h.Version)
	}
	return h, nil
}

// ReadView returns the next n elements of type E. The result aliases the
// underlying buffer when it is aligned for E and is a copy otherwise.
func ReadView[E any](r *SliceReader, n uint64) ([]E, error) {
	if err := checkHost(); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	var zero E
	size := uint64(unsafe.Sizeof(zero))
	if n > uint64(len(r.b))/size {
		return nil, fmt.Errorf("%w: %d elements of %d bytes", ErrTruncated, n, size)
	}
	bb, err := r.ReadBytes(int(n * size))
	if err != nil {
		return nil, err
	}
	return fromBytes[E](bb, int(n)), nil
}
