// Package vault orchestrates the vault transactions: upload, download,
// verification and leak scans. It is the only entry point the command line
// (or any other boundary) uses.
//
// Every transaction is all-or-nothing: on failure no staged copy, no
// ciphertext without a row and no unverified plaintext is left behind.
package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/leakvault/internal/blobstore"
	"github.com/dmitrijs2005/leakvault/internal/common"
	"github.com/dmitrijs2005/leakvault/internal/hashx"
	"github.com/dmitrijs2005/leakvault/internal/logging"
	"github.com/dmitrijs2005/leakvault/internal/models"
	"github.com/dmitrijs2005/leakvault/internal/repositories/repomanager"
)

// ErrStorageCollision means the blob name derived from a digest is already
// used by different content. It is an I/O failure for the caller.
var ErrStorageCollision = fmt.Errorf("%w: storage name collision", common.ErrIOFailure)

// Cipher is the encryption engine as seen by the vault.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Options tune a Vault.
type Options struct {
	// UploadDir is the staging directory for uploads. Required.
	UploadDir string
	// Threshold is the largest Hamming distance reported as a leak, in
	// 0..hashx.MaxThreshold. nil selects hashx.DefaultThreshold; 0 reports
	// identical fingerprints only.
	Threshold *int
	Logger    logging.Logger
}

type Vault struct {
	db        *sql.DB
	repos     repomanager.RepositoryManager
	blobs     blobstore.Store
	cipher    Cipher
	uploadDir string
	threshold int
	log       logging.Logger
}

// FileInfo is the read-only view of an entry handed to callers.
type FileInfo struct {
	ID               int64      `json:"id"`
	Filename         string     `json:"filename"`
	ContentDigest    string     `json:"content_digest"`
	PerceptualDigest string     `json:"perceptual_digest,omitempty"`
	UploadedAt       time.Time  `json:"uploaded_at"`
	LastScannedAt    *time.Time `json:"last_scanned_at,omitempty"`
}

func newFileInfo(f *models.File) FileInfo {
	return FileInfo{
		ID:               f.ID,
		Filename:         f.Filename,
		ContentDigest:    f.ContentDigest,
		PerceptualDigest: f.PerceptualDigest,
		UploadedAt:       f.UploadedAt,
		LastScannedAt:    f.LastScannedAt,
	}
}

// New wires a vault. db must already be migrated (see repomanager.Open).
func New(db *sql.DB, repos repomanager.RepositoryManager, blobs blobstore.Store, cipher Cipher, opts Options) (*Vault, error) {
	if opts.UploadDir == "" {
		return nil, errors.New("vault: upload directory is required")
	}
	if err := os.MkdirAll(opts.UploadDir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}

	threshold := hashx.DefaultThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	if threshold < 0 || threshold > hashx.MaxThreshold {
		return nil, fmt.Errorf("vault: threshold %d out of range 0..%d", threshold, hashx.MaxThreshold)
	}

	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	return &Vault{
		db:        db,
		repos:     repos,
		blobs:     blobs,
		cipher:    cipher,
		uploadDir: opts.UploadDir,
		threshold: threshold,
		log:       log,
	}, nil
}

// Threshold returns the match threshold in effect.
func (v *Vault) Threshold() int { return v.threshold }

// FileInfo returns the entry or (nil, nil) when id is unknown.
func (v *Vault) FileInfo(ctx context.Context, id int64) (*FileInfo, error) {
	f, err := v.repos.Files(v.db).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
	if f == nil {
		return nil, nil
	}
	fi := newFileInfo(f)
	return &fi, nil
}

// List returns every entry, most recent upload first.
func (v *Vault) List(ctx context.Context) ([]FileInfo, error) {
	rows, err := v.repos.Files(v.db).ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}

	out := make([]FileInfo, 0, len(rows))
	for _, f := range rows {
		out = append(out, newFileInfo(f))
	}
	return out, nil
}

// ScanResults returns the recorded leak matches for an entry, newest first.
func (v *Vault) ScanResults(ctx context.Context, id int64) ([]*models.ScanResult, error) {
	res, err := v.repos.ScanResults(v.db).ListByFileID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
	return res, nil
}

// lookup returns the entry or a wrapped common.ErrNotFound.
func (v *Vault) lookup(ctx context.Context, id int64) (*models.File, error) {
	f, err := v.repos.Files(v.db).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: file %d", common.ErrNotFound, id)
	}
	return f, nil
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
	return nil
}
