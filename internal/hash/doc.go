// Package hash computes the CRC32-Castagnoli checksums that close every
// binary index artifact.
//
// An artifact body is followed by a 4-byte little-endian footer holding the
// CRC32C of the body:
//
//	body := ...
//	blob := hash.AppendFooter(body)
//	body, err := hash.SplitFooter(blob)
//
// Go's hash/crc32 uses the SSE4.2 and ARMv8 CRC instructions when present,
// so checking a mapped suffix array costs a single pass over memory.
package hash
