// Package files persists vault entries (the files table).
//
// The table's UNIQUE constraint on the content digest is the only dedup
// gate: Insert reports common.ErrDuplicateContent when it fires. Callers
// must not look the digest up first and insert afterwards.
package files

import (
	"context"
	"time"

	"github.com/dmitrijs2005/leakvault/internal/models"
)

// Repository describes the operations on vault entries. Every call is
// synchronous and durable once it returns.
type Repository interface {
	// Insert stores f, sets f.ID (and f.UploadedAt when zero) and returns the
	// new id. A digest that already exists yields common.ErrDuplicateContent.
	Insert(ctx context.Context, f *models.File) (int64, error)

	// GetByID returns the entry, or (nil, nil) when there is none.
	GetByID(ctx context.Context, id int64) (*models.File, error)

	// GetByStoragePath returns the entry owning a blob, or (nil, nil).
	GetByStoragePath(ctx context.Context, path string) (*models.File, error)

	// ListAll returns every entry, most recently uploaded first.
	ListAll(ctx context.Context) ([]*models.File, error)

	// MarkScanned moves last_scan_date forward to at (now when zero). It
	// never moves it backwards. Unknown ids yield common.ErrNotFound.
	MarkScanned(ctx context.Context, id int64, at time.Time) error
}
