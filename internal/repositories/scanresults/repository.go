// Package scanresults stores the append-only log of leak-scan matches.
package scanresults

import (
	"context"

	"github.com/dmitrijs2005/leakvault/internal/models"
)

// Repository appends and queries scan results. FileID is not validated
// against the files table.
type Repository interface {
	// Insert appends r, sets r.ID (and r.FoundAt when zero) and returns the id.
	Insert(ctx context.Context, r *models.ScanResult) (int64, error)
	// ListByFileID returns the results for one entry, newest first.
	ListByFileID(ctx context.Context, fileID int64) ([]*models.ScanResult, error)
}
