package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/leakvault/internal/blobstore"
	"github.com/dmitrijs2005/leakvault/internal/common"
	"github.com/dmitrijs2005/leakvault/internal/filex"
	"github.com/dmitrijs2005/leakvault/internal/hashx"
	"github.com/dmitrijs2005/leakvault/internal/models"
)

// Upload stores the file at sourcePath and returns the new entry id.
//
// Content already in the vault yields common.ErrDuplicateContent; nothing is
// written in that case and the existing blob is left alone. The caller's
// file is never modified.
func (v *Vault) Upload(ctx context.Context, sourcePath string) (int64, error) {
	log := v.log.With("source", sourcePath)

	fi, err := os.Stat(sourcePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", common.ErrSourceNotFound, sourcePath)
		}
		return 0, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
	if !fi.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: %s is not a regular file", common.ErrSourceNotFound, sourcePath)
	}

	staged := filepath.Join(v.uploadDir, uuid.NewString())
	if err := filex.CopyFile(staged, sourcePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", common.ErrSourceNotFound, sourcePath)
		}
		return 0, fmt.Errorf("%w: stage: %w", common.ErrIOFailure, err)
	}
	log.Debug(ctx, "staged", "path", staged)

	defer func() {
		if rerr := filex.RemoveIfExists(staged); rerr != nil {
			log.Warn(ctx, "failed to remove staged copy", "path", staged, "error", rerr)
		}
	}()

	if err := ctxErr(ctx); err != nil {
		return 0, err
	}

	digest, err := hashx.ContentDigestFile(staged)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrHashFailure, err)
	}
	log = log.With("digest", digest)

	pdigest, ok := hashx.PerceptualDigestFile(staged)
	if ok {
		log.Debug(ctx, "perceptual digest computed", "perceptual_digest", pdigest)
	} else {
		log.Info(ctx, "not an image, no perceptual digest")
	}

	plaintext, err := os.ReadFile(staged)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
	ciphertext, err := v.cipher.Encrypt(plaintext)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrEncryptionFailure, err)
	}

	if err := ctxErr(ctx); err != nil {
		return 0, err
	}

	locator, wrote, err := v.storeBlob(ctx, common.BlobName(digest), digest, ciphertext)
	if err != nil {
		log.Error(ctx, "failed to store blob", "error", err)
		return 0, err
	}
	log = log.With("path", locator)
	log.Debug(ctx, "blob stored", "written", wrote)

	f := &models.File{
		Filename:         filepath.Base(sourcePath),
		ContentDigest:    digest,
		PerceptualDigest: pdigest,
		StoragePath:      locator,
	}
	id, err := v.repos.Files(v.db).Insert(ctx, f)
	if err != nil {
		duplicate := errors.Is(err, common.ErrDuplicateContent)
		if wrote {
			v.rollbackBlob(ctx, locator, duplicate)
		}
		if duplicate {
			log.Info(ctx, "content already stored")
			return 0, err
		}
		log.Error(ctx, "failed to insert file", "error", err)
		return 0, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}

	log.Info(ctx, "file stored", "file_id", id)
	return id, nil
}

// storeBlob places the ciphertext under name. wrote reports whether this
// call put the bytes there; only then may a failed upload remove the blob.
//
// A blob that exists without a row is either left over from an interrupted
// upload or belongs to a concurrent upload of the same content that has not
// inserted its row yet. If it decrypts to this digest it is adopted as is;
// otherwise it is unusable and gets replaced.
func (v *Vault) storeBlob(ctx context.Context, name, digest string, data []byte) (locator string, wrote bool, err error) {
	locator, err = v.blobs.Create(ctx, name, data)
	if err == nil {
		return locator, true, nil
	}
	if !errors.Is(err, blobstore.ErrBlobExists) {
		return "", false, err
	}

	locator = v.blobs.Locator(name)
	owner, err := v.repos.Files(v.db).GetByStoragePath(ctx, locator)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}

	switch {
	case owner == nil && v.holds(ctx, locator, digest):
		v.log.Debug(ctx, "adopting unreferenced blob", "path", locator)
		return locator, false, nil
	case owner == nil:
		v.log.Warn(ctx, "replacing unusable orphan blob", "path", locator)
		locator, err = v.blobs.Replace(ctx, name, data)
		if err != nil {
			return "", false, err
		}
		return locator, true, nil
	case owner.ContentDigest == digest:
		// the insert reports the duplicate
		return locator, false, nil
	default:
		return "", false, fmt.Errorf("%w: %s belongs to file %d", ErrStorageCollision, locator, owner.ID)
	}
}

// holds reports whether the blob at locator decrypts to content with the
// given digest.
func (v *Vault) holds(ctx context.Context, locator, digest string) bool {
	data, err := v.blobs.Get(ctx, locator)
	if err != nil {
		return false
	}
	plaintext, err := v.cipher.Decrypt(data)
	if err != nil {
		return false
	}
	return hashx.ContentDigestBytes(plaintext) == digest
}

// rollbackBlob removes a blob written by a failed upload unless an entry
// references it by now: a concurrent upload of the same content may have
// adopted it and committed first.
func (v *Vault) rollbackBlob(ctx context.Context, locator string, duplicate bool) {
	ctx = context.WithoutCancel(ctx)

	owner, err := v.repos.Files(v.db).GetByStoragePath(ctx, locator)
	switch {
	case owner != nil:
		v.log.Info(ctx, "rollback: blob kept, referenced by another entry", "path", locator, "file_id", owner.ID)
		return
	case err != nil && duplicate:
		v.log.Warn(ctx, "rollback: blob kept, owner unknown", "path", locator, "error", err)
		return
	}

	if err := v.blobs.Delete(ctx, locator); err != nil {
		v.log.Error(ctx, "rollback: failed to delete blob", "path", locator, "error", err)
		return
	}
	v.log.Warn(ctx, "rollback: blob deleted", "path", locator)
}
