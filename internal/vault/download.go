package vault

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/leakvault/internal/common"
	"github.com/dmitrijs2005/leakvault/internal/filex"
	"github.com/dmitrijs2005/leakvault/internal/hashx"
	"github.com/dmitrijs2005/leakvault/internal/models"
)

// Download decrypts entry id into outputPath and verifies the result
// against the stored content digest. On any failure outputPath holds no
// plaintext from this call.
func (v *Vault) Download(ctx context.Context, id int64, outputPath string) error {
	log := v.log.With("file_id", id, "output", outputPath)

	f, err := v.lookup(ctx, id)
	if err != nil {
		log.Info(ctx, "download failed", "error", err)
		return err
	}

	if err := filex.EnsureParentDir(outputPath); err != nil {
		return fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}

	plaintext, err := v.open(ctx, f)
	if err != nil {
		log.Error(ctx, "decryption failed", "error", err)
		return err
	}

	if err := filex.WriteFileAtomic(outputPath, plaintext, 0o600); err != nil {
		return fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}

	got, err := hashx.ContentDigestFile(outputPath)
	if err != nil {
		v.discard(ctx, outputPath)
		return fmt.Errorf("%w: %w", common.ErrHashFailure, err)
	}
	if got != f.ContentDigest {
		v.discard(ctx, outputPath)
		log.Error(ctx, "integrity check failed", "want", f.ContentDigest, "got", got)
		return fmt.Errorf("%w: file %d digest %s, want %s", common.ErrIntegrityFailure, id, got, f.ContentDigest)
	}

	log.Info(ctx, "file downloaded")
	return nil
}

// Verify decrypts entry id in memory and checks its digest. Nothing is
// written.
func (v *Vault) Verify(ctx context.Context, id int64) error {
	f, err := v.lookup(ctx, id)
	if err != nil {
		return err
	}

	plaintext, err := v.open(ctx, f)
	if err != nil {
		return err
	}

	if got := hashx.ContentDigestBytes(plaintext); got != f.ContentDigest {
		return fmt.Errorf("%w: file %d digest %s, want %s", common.ErrIntegrityFailure, id, got, f.ContentDigest)
	}

	v.log.Info(ctx, "file verified", "file_id", id)
	return nil
}

// open reads and decrypts the blob of f. Every failure is a
// common.ErrDecryptionFailure wrapping its cause.
func (v *Vault) open(ctx context.Context, f *models.File) ([]byte, error) {
	ciphertext, err := v.blobs.Get(ctx, f.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDecryptionFailure, err)
	}

	plaintext, err := v.cipher.Decrypt(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDecryptionFailure, err)
	}
	return plaintext, nil
}

func (v *Vault) discard(ctx context.Context, path string) {
	if err := filex.RemoveIfExists(path); err != nil {
		v.log.Error(ctx, "failed to remove unverified output", "path", path, "error", err)
	}
}
