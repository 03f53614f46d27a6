// Package bitset provides the lock-free occupancy and collision maps that
// the perfect hash builder fills from several goroutines.
//
// The boundary vector of a corpus is single-writer and uses
// github.com/bits-and-blooms/bitset instead.
package bitset
