// Package fs is the file system seam of blobstore.LocalStore.
//
// Production code uses [Default]. Tests wrap it in a [FaultyFS] to fail a
// chosen artifact at a chosen point and check that a build or publish never
// leaves an openable index behind:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.Inject("sa.bin", fs.Fault{Op: fs.OpWrite, After: 1024})
//	store, _ := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
//
// Calls take no context: local file operations cannot be interrupted at the
// syscall level. Remote stores take a context through blobstore.
package fs
