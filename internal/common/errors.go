// Package common defines the sentinel errors and constants shared by every
// layer of the vault. Callers should use errors.Is to match these values;
// most of them are wrapped together with the underlying cause.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound         = errors.New("not found")
	ErrDuplicateContent = errors.New("duplicate content")

	// Upload transaction errors.
	ErrSourceNotFound    = errors.New("source file not found")
	ErrHashFailure       = errors.New("hash failure")
	ErrEncryptionFailure = errors.New("encryption failure")

	// Download transaction errors.
	ErrDecryptionFailure     = errors.New("decryption failure")
	ErrAuthenticationFailure = errors.New("authentication failure")
	ErrIntegrityFailure      = errors.New("integrity failure")

	// Generic filesystem / storage fault.
	ErrIOFailure = errors.New("i/o failure")

	// Leak scan errors.
	ErrNoPerceptualDigest = errors.New("entry has no perceptual digest")
)
