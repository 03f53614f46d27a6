package persistence

import (
	"errors"
	"fmt"

	"github.com/hupe1980/saidx/codec"
)

const (
	// IndexType is the indexType tag of every saidx index.
	IndexType = "quasi"
	// FormatVersion is the formatVersion written by this package.
	FormatVersion = "q3"
)

// ErrUnsupportedIndex is returned for a header this package cannot read.
var ErrUnsupportedIndex = errors.New("unsupported index header")

// IndexHeader is the content of header.json. The first five fields are
// required; the rest are informational.
type IndexHeader struct {
	IndexType      string `json:"indexType"`
	FormatVersion  string `json:"formatVersion"`
	K              int    `json:"k"`
	LargeIndex     bool   `json:"largeIndex"`
	UsePerfectHash bool   `json:"usePerfectHash"`

	Sentinel     string `json:"sentinel,omitempty"`
	NumSequences int    `json:"numSequences,omitempty"`
	TextLength   int64  `json:"textLength,omitempty"`
	NumKmers     int    `json:"numKmers,omitempty"`
	Codec        string `json:"codec,omitempty"`
}

// EncodeHeader marshals h with c, recording the codec name.
func EncodeHeader(c codec.Codec, h IndexHeader) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	h.Codec = c.Name()
	return c.Marshal(h)
}

// DecodeHeader unmarshals and validates header.json.
func DecodeHeader(c codec.Codec, data []byte) (IndexHeader, error) {
	if c == nil {
		c = codec.Default
	}
	var h IndexHeader
	if err := c.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("%w: %v", ErrUnsupportedIndex, err)
	}
	if h.IndexType != IndexType {
		return h, fmt.Errorf("%w: indexType %q", ErrUnsupportedIndex, h.IndexType)
	}
	if h.FormatVersion != FormatVersion {
		return h, fmt.Errorf("%w: formatVersion %q", ErrUnsupportedIndex, h.FormatVersion)
	}
	if h.K < 1 || h.K > 31 {
		return h, fmt.Errorf("%w: k=%d", ErrUnsupportedIndex, h.K)
	}
	return h, nil
}

// Artifacts lists the binary artifacts an index with header h consists of.
func (h IndexHeader) Artifacts() []string {
	hash := []string{FileDenseHash}
	if h.UsePerfectHash {
		hash = []string{FilePerfectInfo, FilePerfectMPH}
	}
	return append([]string{FileSuffixArray, FileBoundaries, FileSequences}, hash...)
}
