package scanresults

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/leakvault/internal/dbx"
	"github.com/dmitrijs2005/leakvault/internal/models"
)

// PostgresRepository implements Repository over a pgx-backed DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, sr *models.ScanResult) (int64, error) {
	if sr.FoundAt.IsZero() {
		sr.FoundAt = time.Now().UTC()
	}

	query := `INSERT INTO scan_results (file_id, url, found_date, similarity_score)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, sr.FileID, sr.URL, sr.FoundAt, sr.SimilarityScore).Scan(&id); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	sr.ID = id
	return id, nil
}

func (r *PostgresRepository) ListByFileID(ctx context.Context, fileID int64) ([]*models.ScanResult, error) {
	query := `SELECT id, file_id, url, found_date, similarity_score
		FROM scan_results WHERE file_id = $1 ORDER BY found_date DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.ScanResult
	for rows.Next() {
		var sr models.ScanResult
		if err := rows.Scan(&sr.ID, &sr.FileID, &sr.URL, &sr.FoundAt, &sr.SimilarityScore); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, &sr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
