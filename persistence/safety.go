package persistence

import (
	"errors"
	"fmt"
	"unsafe"
)

var (
	// ErrBigEndian is returned when raw artifact arrays are read or written
	// on a big-endian host. Artifacts store offsets little-endian in place.
	ErrBigEndian = errors.New("persistence: big-endian hosts are not supported")

	// ErrUnalignedAccess is returned when a slice cannot be viewed as raw bytes.
	ErrUnalignedAccess = errors.New("persistence: unaligned memory access")
)

var littleEndianHost = func() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()

func checkHost() error {
	if !littleEndianHost {
		return ErrBigEndian
	}
	return nil
}

// validateAlignment checks that s starts at an address aligned for its element type.
func validateAlignment[E any](s []E) error {
	if len(s) == 0 {
		return nil
	}
	ptr := uintptr(unsafe.Pointer(&s[0]))
	if align := unsafe.Alignof(s[0]); ptr%align != 0 {
		return fmt.Errorf("%w: %T at 0x%x", ErrUnalignedAccess, s, ptr)
	}
	return nil
}

// asBytes reinterprets s as its in-memory bytes.
func asBytes[E any](s []E) ([]byte, error) {
	if err := checkHost(); err != nil {
		return nil, err
	}
	if len(s) == 0 {
		return nil, nil
	}
	if err := validateAlignment(s); err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(s[0]))), nil
}

// fromBytes reinterprets b as n elements of E. It aliases b when b is aligned
// for E and copies otherwise.
func fromBytes[E any](b []byte, n int) []E {
	if n == 0 {
		return nil
	}
	var zero E
	if uintptr(unsafe.Pointer(&b[0]))%unsafe.Alignof(zero) == 0 {
		return unsafe.Slice((*E)(unsafe.Pointer(&b[0])), n)
	}
	out := make([]E, n)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), len(b)), b)
	return out
}
