package persistence

import (
	"errors"
	"fmt"

	ihash "github.com/hupe1980/saidx/internal/hash"
)

const (
	// MagicNumber identifies saidx binary artifacts (ASCII: "SAIX").
	MagicNumber = 0x53414958
	// Version is the current artifact format version (v1.0.0).
	Version = 0x00010000

	// HeaderSize is the encoded size of FileHeader.
	HeaderSize = 32
	// FooterSize is the size of the CRC32C trailer.
	FooterSize = ihash.FooterSize
)

// Artifact file names inside an index directory.
const (
	FileSuffixArray = "sa.bin"
	FileDenseHash   = "hash.bin"
	FilePerfectInfo = "hash_info.bin"
	FilePerfectMPH  = "hash_info.mph"
	FileBoundaries  = "rsd.bin"
	FileSequences   = "txpInfo.bin"
	FileHeaderJSON  = "header.json"
)

// Kind tags the content of an artifact.
type Kind uint8

const (
	KindSuffixArray Kind = iota + 1
	KindDenseHash
	KindPerfectInfo
	KindPerfectMPH
	KindBoundaries
	KindSequences
)

func (k Kind) String() string {
	switch k {
	case KindSuffixArray:
		return "suffix-array"
	case KindDenseHash:
		return "dense-hash"
	case KindPerfectInfo:
		return "perfect-info"
	case KindPerfectMPH:
		return "perfect-mph"
	case KindBoundaries:
		return "boundaries"
	case KindSequences:
		return "sequences"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrInvalidKind    = errors.New("unexpected artifact kind")
	ErrInvalidWidth   = errors.New("unexpected offset width")
	ErrTruncated      = errors.New("artifact truncated")
)

// FileHeader is the 32-byte header at the start of every artifact.
type FileHeader struct {
	Magic   uint32 // 0x53414958 ("SAIX")
	Version uint32 // File format version
	Kind    Kind
	Width   uint8 // Offset width in bits (32 or 64), 0 if not applicable
	Padding [6]byte
	Count   uint64 // Primary element count
	Aux     uint64 // Kind-specific secondary count
}
