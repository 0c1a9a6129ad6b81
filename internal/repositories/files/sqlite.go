package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dmitrijs2005/leakvault/internal/common"
	"github.com/dmitrijs2005/leakvault/internal/dbx"
	"github.com/dmitrijs2005/leakvault/internal/models"
)

const sqliteColumns = `id, filename, original_hash, perceptual_hash, encrypted_path, upload_date, last_scan_date`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, f *models.File) (int64, error) {
	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now().UTC()
	}

	query := `INSERT INTO files (filename, original_hash, perceptual_hash, encrypted_path, upload_date)
			VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		f.Filename, f.ContentDigest, nullString(f.PerceptualDigest), f.StoragePath, dbx.FormatTime(f.UploadedAt))
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", common.ErrDuplicateContent, f.ContentDigest)
		}
		return 0, fmt.Errorf("failed to insert file: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	f.ID = id
	return id, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.File, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM files WHERE id = ?`, id)
	return scanOptional(row)
}

func (r *SQLiteRepository) GetByStoragePath(ctx context.Context, path string) (*models.File, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM files WHERE encrypted_path = ?`, path)
	return scanOptional(row)
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sqliteColumns+` FROM files ORDER BY upload_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanSQLiteFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate files: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) MarkScanned(ctx context.Context, id int64, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	ts := dbx.FormatTime(at)

	query := `UPDATE files SET last_scan_date =
			CASE WHEN last_scan_date IS NULL OR last_scan_date < ? THEN ? ELSE last_scan_date END
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, ts, ts, id)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOptional(row *sql.Row) (*models.File, error) {
	f, err := scanSQLiteFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return f, err
}

func scanSQLiteFile(s rowScanner) (*models.File, error) {
	var (
		f          models.File
		perceptual sql.NullString
		uploaded   string
		scanned    sql.NullString
	)
	if err := s.Scan(&f.ID, &f.Filename, &f.ContentDigest, &perceptual, &f.StoragePath, &uploaded, &scanned); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan file row: %w", err)
	}

	f.PerceptualDigest = perceptual.String

	var err error
	if f.UploadedAt, err = dbx.ParseTime(uploaded); err != nil {
		return nil, fmt.Errorf("bad upload_date for file %d: %w", f.ID, err)
	}
	if f.LastScannedAt, err = dbx.ParseNullTime(scanned); err != nil {
		return nil, fmt.Errorf("bad last_scan_date for file %d: %w", f.ID, err)
	}
	return &f, nil
}

func isSQLiteUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
