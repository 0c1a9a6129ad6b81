package scanresults

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/leakvault/internal/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE scan_results (
  id               INTEGER PRIMARY KEY AUTOINCREMENT,
  file_id          INTEGER NOT NULL,
  url              TEXT NOT NULL,
  found_date       TEXT NOT NULL,
  similarity_score INTEGER NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func TestSQLite_InsertAndList(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	first := &models.ScanResult{FileID: 1, URL: "https://a.example/x.png", FoundAt: base, SimilarityScore: 3}
	second := &models.ScanResult{FileID: 1, URL: "https://b.example/y.png", FoundAt: base.Add(time.Minute), SimilarityScore: 0}
	other := &models.ScanResult{FileID: 2, URL: "https://c.example/z.png", FoundAt: base, SimilarityScore: 5}

	for _, sr := range []*models.ScanResult{first, second, other} {
		id, err := r.Insert(ctx, sr)
		require.NoError(t, err)
		assert.Equal(t, id, sr.ID)
	}

	list, err := r.ListByFileID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "https://b.example/y.png", list[0].URL)
	assert.Equal(t, 0, list[0].SimilarityScore)
	assert.Equal(t, "https://a.example/x.png", list[1].URL)
	assert.True(t, base.Equal(list[1].FoundAt))
}

func TestSQLite_Insert_UnknownFileAccepted(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	sr := &models.ScanResult{FileID: 424242, URL: "https://x.example", SimilarityScore: 1}
	_, err := r.Insert(ctx, sr)
	require.NoError(t, err)
	assert.False(t, sr.FoundAt.IsZero())

	list, err := r.ListByFileID(ctx, 424242)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSQLite_ListByFileID_Empty(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	list, err := r.ListByFileID(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}
