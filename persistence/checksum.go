package persistence

import (
	"errors"
	"hash"
	"io"

	ihash "github.com/hupe1980/saidx/internal/hash"
)

// ChecksumMismatchError reports an artifact whose footer does not match its
// content. CRC32C only detects accidental corruption.
type ChecksumMismatchError = ihash.MismatchError

// IsChecksumMismatch reports whether err wraps a ChecksumMismatchError.
func IsChecksumMismatch(err error) bool {
	var target *ChecksumMismatchError
	return errors.As(err, &target)
}

// summer forwards writes to w and folds the written bytes into a CRC32C.
type summer struct {
	w   io.Writer
	crc hash.Hash32
}

func newSummer(w io.Writer) *summer { return &summer{w: w, crc: ihash.NewCRC32C()} }

func (s *summer) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.crc.Write(p[:n])
	return n, err
}
