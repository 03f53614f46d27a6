// Package mmap maps persisted index artifacts read-only, so the query side
// uses suffix arrays and k-mer tables in place instead of decoding them.
//
//	f, err := mmap.Open("sa.bin")
//	if err != nil { ... }
//	defer f.Close()
//	_ = f.Advise(mmap.Random)
//
// Unix uses mmap(2) and madvise(2). Windows uses MapViewOfFile; advice is
// ignored there. A File is safe for concurrent reads. Slices returned by
// Bytes are invalid after Close.
package mmap
