package scanresults

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/leakvault/internal/dbx"
	"github.com/dmitrijs2005/leakvault/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, sr *models.ScanResult) (int64, error) {
	if sr.FoundAt.IsZero() {
		sr.FoundAt = time.Now().UTC()
	}

	query := `INSERT INTO scan_results (file_id, url, found_date, similarity_score) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, sr.FileID, sr.URL, dbx.FormatTime(sr.FoundAt), sr.SimilarityScore)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	sr.ID = id
	return id, nil
}

func (r *SQLiteRepository) ListByFileID(ctx context.Context, fileID int64) ([]*models.ScanResult, error) {
	query := `SELECT id, file_id, url, found_date, similarity_score
		FROM scan_results WHERE file_id = ? ORDER BY found_date DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to select scan results: %w", err)
	}
	defer rows.Close()

	var result []*models.ScanResult
	for rows.Next() {
		var (
			sr    models.ScanResult
			found string
		)
		if err := rows.Scan(&sr.ID, &sr.FileID, &sr.URL, &found, &sr.SimilarityScore); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		if sr.FoundAt, err = dbx.ParseTime(found); err != nil {
			return nil, fmt.Errorf("bad found_date for scan result %d: %w", sr.ID, err)
		}
		result = append(result, &sr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
