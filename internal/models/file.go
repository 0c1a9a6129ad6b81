// Package models defines the records persisted by the vault metadata store.
package models

import "time"

// File is one vault entry: a unique piece of plaintext content stored as an
// encrypted blob.
type File struct {
	// ID is assigned by the store on insert and is the stable external handle.
	ID int64
	// Filename is the original display name. Not unique, not used for addressing.
	Filename string

	// ContentDigest is the hex SHA-256 of the plaintext. Globally unique.
	ContentDigest string
	// PerceptualDigest is the dHash of the image, empty for non-images.
	PerceptualDigest string

	// StoragePath locates the ciphertext blob. It is derived from ContentDigest.
	StoragePath string

	// UploadedAt is set once at insert time.
	UploadedAt time.Time
	// LastScannedAt is the time of the latest leak scan, nil if never scanned.
	LastScannedAt *time.Time
}

// HasPerceptualDigest reports whether the entry is an image that can be
// leak-scanned.
func (f *File) HasPerceptualDigest() bool {
	return f.PerceptualDigest != ""
}
