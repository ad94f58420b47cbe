// Package blobstore provides storage abstraction for persisted model state.
//
// Store is the interface for reading and writing named blobs (snapshots).
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - Local: local filesystem with atomic writes
//   - Memory: in-memory store for testing
//   - Caching: read-through caching wrapper for remote stores
//   - minio.Store: MinIO and other S3-compatible object storage
//   - s3.Store: Amazon S3 with streaming parallel uploads
//
// Snapshots are written once and read whole, so the interface is stream
// oriented: Create returns a writer whose Close finalizes the blob, Open
// returns a reader over the full content.
package blobstore
