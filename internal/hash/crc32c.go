package hash

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
)

// FooterSize is the length of the checksum trailer.
const FooterSize = 4

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// ErrShort is returned by SplitFooter for input without a complete footer.
var ErrShort = errors.New("hash: data shorter than checksum footer")

// MismatchError reports a footer that does not match its body.
type MismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

// CRC32C returns the Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}

// NewCRC32C returns a streaming Castagnoli hash.
func NewCRC32C() hash.Hash32 {
	return crc32.New(castagnoli)
}

// AppendFooter appends the checksum of body to body.
func AppendFooter(body []byte) []byte {
	return binary.LittleEndian.AppendUint32(body, CRC32C(body))
}

// PutFooter writes sum into the first FooterSize bytes of dst.
func PutFooter(dst []byte, sum uint32) {
	binary.LittleEndian.PutUint32(dst, sum)
}

// SplitFooter verifies the trailing checksum of data and returns the body.
func SplitFooter(data []byte) ([]byte, error) {
	if len(data) < FooterSize {
		return nil, ErrShort
	}
	body := data[:len(data)-FooterSize]
	expected := binary.LittleEndian.Uint32(data[len(body):])
	if actual := CRC32C(body); actual != expected {
		return nil, &MismatchError{Expected: expected, Actual: actual}
	}
	return body, nil
}
