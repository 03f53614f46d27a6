// Package blobstore provides storage abstraction for index artifacts.
//
// An index is a flat set of named, immutable blobs (sa.bin, rsd.bin,
// header.json, ...). BlobStore reads and writes them. Implementations must
// be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local directory with mmap reads and atomic writes
//   - MemoryStore: In-memory, for tests
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)            // Open for reading
//	    Create(ctx, name) (WritableBlob, error)  // Create for writing
//	    Put(ctx, name, data) error               // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// A written blob must not become visible before Close succeeds. Writable
// blobs that can discard a partial write implement Aborter.
//
// Blobs that can expose their bytes without copying implement Mappable;
// ReadAll uses it when present.
package blobstore
