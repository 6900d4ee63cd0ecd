// Package blobstore abstracts the storage that dictionary row files are read
// from.
//
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, read through mmap
//   - MemoryStore: in-memory, for tests and embedding
//   - s3.Store: Amazon S3, with parallel ranged downloads
//   - minio.Store: MinIO and other S3-compatible servers
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	}
//
// Stores that can download a whole blob faster than a single ranged read
// may also implement Fetcher.
package blobstore
