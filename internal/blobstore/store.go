// Package blobstore keeps encrypted blobs addressed by their storage name.
//
// A blob is identified to the metadata store by its locator: an absolute
// file path for the local backend, an s3:// URL for the S3 backend.
package blobstore

import (
	"context"
	"errors"
)

// ErrBlobExists is returned by Create when the name is already taken.
var ErrBlobExists = errors.New("blob already exists")

// Store is the blob backend used by the vault.
type Store interface {
	// Locator returns the locator a blob with this name has (or would have).
	Locator(name string) string
	// Create writes a new blob and fails with ErrBlobExists when one is
	// already present under name. Readers never observe partial content.
	Create(ctx context.Context, name string, data []byte) (string, error)
	// Replace writes the blob whether or not it exists.
	Replace(ctx context.Context, name string, data []byte) (string, error)
	// Get reads a blob. A missing blob yields common.ErrNotFound.
	Get(ctx context.Context, locator string) ([]byte, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, locator string) error
}
