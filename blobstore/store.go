// Package blobstore abstracts where snapshot bytes live: sensitivity maps and
// activation snapshots are published to and fetched from a Store by key.
//
// Implementations must be safe for concurrent use. Built in:
//
//   - Memory: in-memory map, for tests
//   - Local: local filesystem with atomic writes
//   - s3.Store: Amazon S3
//   - minio.Store: MinIO and other S3-compatible object storage
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// errors.Is(err, ErrNotFound). The default maps to os.ErrNotExist.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for immutable snapshot blobs.
type Store interface {
	// Put writes a blob atomically, replacing any existing blob at key.
	Put(ctx context.Context, key string, r io.Reader) error
	// Get opens a blob for reading. The caller closes the returned reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, key string) error
	// List returns all blob keys with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
