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

// Store is an abstraction for accessing named, write-once blobs.
type Store interface {
	// Create creates a blob for writing. The blob becomes visible to Open
	// only after the returned writer is closed without error.
	Create(ctx context.Context, name string) (io.WriteCloser, error)

	// Open opens a blob for reading. It returns ErrNotFound if the blob
	// does not exist.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
