// Package persistence reads and writes the binary artifacts of an index.
//
// A .bin artifact is a 32-byte FileHeader, a body of little-endian arrays
// and a CRC32C footer over both. Loaders hand out the arrays as views into
// the input buffer when it is aligned, so an mmapped suffix array costs no
// copy. Big-endian hosts are rejected with ErrBigEndian.
//
// header.json is encoded with a codec.Codec and records k, the offset width,
// the k-mer table layout and the artifact list.
package persistence
