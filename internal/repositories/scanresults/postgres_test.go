package scanresults

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

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

func TestPostgresInsert(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+scan_results\b.*RETURNING\s+id$`).
		WithArgs(int64(1), "https://x.example/a.png", at, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	sr := &models.ScanResult{FileID: 1, URL: "https://x.example/a.png", FoundAt: at, SimilarityScore: 2}
	id, err := repo.Insert(context.Background(), sr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 11 || sr.ID != 11 {
		t.Fatalf("want id 11, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresInsert_Error(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+scan_results`).WillReturnError(errors.New("db down"))

	if _, err := repo.Insert(context.Background(), &models.ScanResult{FileID: 1}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPostgresListByFileID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`(?s)^SELECT .* FROM scan_results WHERE file_id = \$1 ORDER BY found_date DESC, id DESC$`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "file_id", "url", "found_date", "similarity_score"}).
			AddRow(int64(2), int64(1), "u2", now, 0).
			AddRow(int64(1), int64(1), "u1", now.Add(-time.Hour), 4))

	list, err := repo.ListByFileID(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].URL != "u2" || list[1].SimilarityScore != 4 {
		t.Fatalf("unexpected list: %+v", list)
	}
}
