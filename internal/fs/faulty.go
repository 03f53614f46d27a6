package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrInjected is returned by a Fault without its own error.
var ErrInjected = errors.New("fs: injected fault")

// Op is the operation a Fault fails.
type Op uint8

const (
	OpWrite Op = iota + 1
	OpSync
	OpClose
	OpRename
)

// Fault fails one operation on matching files. For OpWrite the first After
// bytes are written normally.
type Fault struct {
	Op    Op
	After int64
	Err   error
}

// FaultyFS wraps a FileSystem and injects faults into files whose path
// contains a registered pattern. When several patterns match, the longest
// one wins.
type FaultyFS struct {
	base FileSystem

	mu       sync.Mutex
	faults   map[string]Fault
	budget   int64
	written  int64
	injected int
}

// NewFaultyFS wraps base, or Default if base is nil.
func NewFaultyFS(base FileSystem) *FaultyFS {
	if base == nil {
		base = Default
	}
	return &FaultyFS{base: base, faults: make(map[string]Fault), budget: -1}
}

// Inject registers f for paths containing pattern.
func (f *FaultyFS) Inject(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fault.Err == nil {
		fault.Err = ErrInjected
	}
	f.faults[pattern] = fault
}

// SetBudget fails every write that would take the total written through f
// past n bytes. A negative n disables the budget.
func (f *FaultyFS) SetBudget(n int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.budget = n
}

// Written returns the bytes written through f.
func (f *FaultyFS) Written() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written
}

// Injected returns the number of faults that fired.
func (f *FaultyFS) Injected() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.injected
}

func (f *FaultyFS) lookup(path string) (Fault, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var (
		best  Fault
		found bool
		n     = -1
	)
	for pattern, fault := range f.faults {
		if len(pattern) > n && strings.Contains(path, pattern) {
			best, found, n = fault, true, len(pattern)
		}
	}
	return best, found
}

func (f *FaultyFS) fire(err error) error {
	f.mu.Lock()
	f.injected++
	f.mu.Unlock()
	return err
}

// charge accounts n bytes against the budget.
func (f *FaultyFS) charge(n int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.budget >= 0 && f.written+n > f.budget {
		return false
	}
	f.written += n
	return true
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	file, err := f.base.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	fault, ok := f.lookup(name)
	return &faultyFile{File: file, fs: f, fault: fault, armed: ok}, nil
}

func (f *FaultyFS) Rename(oldpath, newpath string) error {
	if fault, ok := f.lookup(newpath); ok && fault.Op == OpRename {
		return f.fire(fault.Err)
	}
	return f.base.Rename(oldpath, newpath)
}

func (f *FaultyFS) Remove(name string) error                     { return f.base.Remove(name) }
func (f *FaultyFS) Stat(name string) (os.FileInfo, error)        { return f.base.Stat(name) }
func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error { return f.base.MkdirAll(path, perm) }
func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error)   { return f.base.ReadDir(name) }

type faultyFile struct {
	File
	fs      *FaultyFS
	fault   Fault
	armed   bool
	written int64
}

func (ff *faultyFile) fails(op Op) bool { return ff.armed && ff.fault.Op == op }

func (ff *faultyFile) Write(p []byte) (int, error) {
	if ff.fails(OpWrite) && ff.written+int64(len(p)) > ff.fault.After {
		return 0, ff.fs.fire(ff.fault.Err)
	}
	if !ff.fs.charge(int64(len(p))) {
		return 0, ff.fs.fire(ErrInjected)
	}
	n, err := ff.File.Write(p)
	ff.written += int64(n)
	return n, err
}

func (ff *faultyFile) Sync() error {
	if ff.fails(OpSync) {
		return ff.fs.fire(ff.fault.Err)
	}
	return ff.File.Sync()
}

func (ff *faultyFile) Close() error {
	err := ff.File.Close()
	if ff.fails(OpClose) {
		return ff.fs.fire(ff.fault.Err)
	}
	return err
}
