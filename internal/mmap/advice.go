package mmap

import "errors"

// Advice tells the kernel how a mapped range will be read.
type Advice uint8

const (
	Normal     Advice = iota
	Sequential        // whole-artifact copies and checksum passes
	Random            // binary search over a suffix array
	WillNeed          // prefetch before first use
	DontNeed          // drop cached pages
)

var (
	// ErrClosed is returned when a closed File is accessed.
	ErrClosed = errors.New("mmap: file is closed")
	// ErrNotRegular is returned for directories and files too large for the address space.
	ErrNotRegular = errors.New("mmap: not a mappable regular file")
	// ErrRange is returned for a negative offset or a range past the end of the file.
	ErrRange = errors.New("mmap: range out of bounds")
)

// alignRange widens [off, off+n) to page boundaries within a mapping of size.
func alignRange(off, n, size, page int) (int, int) {
	start := off - off%page
	end := off + n
	if rem := end % page; rem != 0 {
		end += page - rem
	}
	return start, min(end, size)
}
