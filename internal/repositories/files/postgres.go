package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/leakvault/internal/common"
	"github.com/dmitrijs2005/leakvault/internal/dbx"
	"github.com/dmitrijs2005/leakvault/internal/models"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

const pgColumns = `id, filename, original_hash, perceptual_hash, encrypted_path, upload_date, last_scan_date`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx)
// opened with the pgx stdlib driver.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, f *models.File) (int64, error) {
	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now().UTC()
	}

	query := `INSERT INTO files (filename, original_hash, perceptual_hash, encrypted_path, upload_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		f.Filename, f.ContentDigest, nullString(f.PerceptualDigest), f.StoragePath, f.UploadedAt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, fmt.Errorf("%w: %s", common.ErrDuplicateContent, f.ContentDigest)
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	f.ID = id
	return id, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.File, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+pgColumns+` FROM files WHERE id = $1`, id)
	return scanPgOptional(row)
}

func (r *PostgresRepository) GetByStoragePath(ctx context.Context, path string) (*models.File, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+pgColumns+` FROM files WHERE encrypted_path = $1`, path)
	return scanPgOptional(row)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+pgColumns+` FROM files ORDER BY upload_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanPgFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) MarkScanned(ctx context.Context, id int64, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}

	query := `UPDATE files SET last_scan_date = GREATEST(last_scan_date, $1) WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark scanned: %w", err)
	}

	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return fmt.Errorf("%w: file %d", common.ErrNotFound, id)
	}
	return nil
}

func scanPgOptional(row *sql.Row) (*models.File, error) {
	f, err := scanPgFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return f, err
}

func scanPgFile(s rowScanner) (*models.File, error) {
	var (
		f          models.File
		perceptual sql.NullString
		scanned    sql.NullTime
	)
	if err := s.Scan(&f.ID, &f.Filename, &f.ContentDigest, &perceptual, &f.StoragePath, &f.UploadedAt, &scanned); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan file row: %w", err)
	}

	f.PerceptualDigest = perceptual.String
	if scanned.Valid {
		t := scanned.Time
		f.LastScannedAt = &t
	}
	return &f, nil
}
