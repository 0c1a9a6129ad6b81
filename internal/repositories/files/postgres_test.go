package files

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/leakvault/internal/common"
	"github.com/dmitrijs2005/leakvault/internal/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQ = `(?s)^INSERT\s+INTO\s+files\b.*RETURNING\s+id$`

func TestPostgresInsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("photo.png", "d1", sql.NullString{String: "p1", Valid: true}, "d1.enc", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	f := &models.File{Filename: "photo.png", ContentDigest: "d1", PerceptualDigest: "p1", StoragePath: "d1.enc"}
	id, err := repo.Insert(context.Background(), f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 7 || f.ID != 7 {
		t.Fatalf("want id 7, got %d / %d", id, f.ID)
	}
	if f.UploadedAt.IsZero() {
		t.Fatalf("UploadedAt must be set")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresInsert_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "files_original_hash_key"})

	_, err := repo.Insert(context.Background(), &models.File{Filename: "copy.png", ContentDigest: "d1", StoragePath: "d1.enc"})
	if !errors.Is(err, common.ErrDuplicateContent) {
		t.Fatalf("want ErrDuplicateContent, got %v", err)
	}
}

func TestPostgresInsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Insert(context.Background(), &models.File{Filename: "a", ContentDigest: "d1", StoragePath: "x"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	if errors.Is(err, common.ErrDuplicateContent) {
		t.Fatalf("generic error must not map to ErrDuplicateContent")
	}
}

func fileRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "filename", "original_hash", "perceptual_hash", "encrypted_path", "upload_date", "last_scan_date"})
}

func TestPostgresGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	up := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	sc := up.Add(time.Hour)
	mock.ExpectQuery(`(?s)^SELECT .* FROM files WHERE id = \$1$`).
		WithArgs(int64(1)).
		WillReturnRows(fileRows().AddRow(int64(1), "photo.png", "d1", "p1", "d1.enc", up, sc))

	f, err := repo.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f == nil || f.Filename != "photo.png" || f.PerceptualDigest != "p1" || !f.UploadedAt.Equal(up) {
		t.Fatalf("unexpected file: %+v", f)
	}
	if f.LastScannedAt == nil || !f.LastScannedAt.Equal(sc) {
		t.Fatalf("unexpected LastScannedAt: %v", f.LastScannedAt)
	}
}

func TestPostgresGetByID_Absent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT .* FROM files WHERE id = \$1$`).
		WithArgs(int64(9999)).
		WillReturnRows(fileRows())

	f, err := repo.GetByID(context.Background(), 9999)
	if err != nil || f != nil {
		t.Fatalf("want (nil, nil), got (%v, %v)", f, err)
	}
}

func TestPostgresGetByStoragePath(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT .* FROM files WHERE encrypted_path = \$1$`).
		WithArgs("d1.enc").
		WillReturnRows(fileRows().AddRow(int64(3), "a.png", "d1", nil, "d1.enc", time.Now(), nil))

	f, err := repo.GetByStoragePath(context.Background(), "d1.enc")
	if err != nil || f == nil || f.ID != 3 {
		t.Fatalf("unexpected result: %+v, %v", f, err)
	}
	if f.HasPerceptualDigest() || f.LastScannedAt != nil {
		t.Fatalf("NULL columns must map to zero values: %+v", f)
	}
}

func TestPostgresListAll(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^SELECT .* FROM files ORDER BY upload_date DESC, id DESC$`).
		WillReturnRows(fileRows().
			AddRow(int64(2), "b.png", "d2", "p2", "d2.enc", now, nil).
			AddRow(int64(1), "a.png", "d1", nil, "d1.enc", now.Add(-time.Hour), nil))

	list, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].ID != 2 || list[1].ID != 1 {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestPostgresListAll_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT .* FROM files ORDER BY`).WillReturnError(errors.New("boom"))

	if _, err := repo.ListAll(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPostgresMarkScanned(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`(?s)^UPDATE files SET last_scan_date = GREATEST\(last_scan_date, \$1\) WHERE id = \$2$`).
		WithArgs(at, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkScanned(context.Background(), 5, at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresMarkScanned_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE files SET`).
		WithArgs(sqlmock.AnyArg(), int64(9999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkScanned(context.Background(), 9999, time.Time{})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
