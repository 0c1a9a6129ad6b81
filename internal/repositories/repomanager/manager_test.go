package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/leakvault/internal/common"
	"github.com/dmitrijs2005/leakvault/internal/models"
	"github.com/dmitrijs2005/leakvault/internal/repositories/files"
	"github.com/dmitrijs2005/leakvault/internal/repositories/scanresults"
)

func TestNew(t *testing.T) {
	m, err := New(DriverSQLite)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteRepositoryManager{}, m)

	m, err = New("")
	require.NoError(t, err)
	assert.IsType(t, &SQLiteRepositoryManager{}, m)

	m, err = New(DriverPostgres)
	require.NoError(t, err)
	assert.IsType(t, &PostgresRepositoryManager{}, m)

	_, err = New("oracle")
	require.ErrorIs(t, err, ErrUnknownDriver)
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	pg := NewPostgresRepositoryManager()
	assert.IsType(t, &files.PostgresRepository{}, pg.Files(db))
	assert.IsType(t, &scanresults.PostgresRepository{}, pg.ScanResults(db))

	sl := NewSQLiteRepositoryManager()
	assert.IsType(t, &files.SQLiteRepository{}, sl.Files(db))
	assert.IsType(t, &scanresults.SQLiteRepository{}, sl.ScanResults(db))
}

func TestOpen_SQLite_RunsMigrations(t *testing.T) {
	ctx := context.Background()
	db, m, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	fr := m.Files(db)
	id, err := fr.Insert(ctx, &models.File{Filename: "a.png", ContentDigest: "abc", StoragePath: "abc.enc"})
	require.NoError(t, err)

	_, err = fr.Insert(ctx, &models.File{Filename: "b.png", ContentDigest: "abc", StoragePath: "abc.enc"})
	require.ErrorIs(t, err, common.ErrDuplicateContent)

	sr := m.ScanResults(db)
	_, err = sr.Insert(ctx, &models.ScanResult{FileID: id, URL: "https://x", SimilarityScore: 1})
	require.NoError(t, err)

	list, err := sr.ListByFileID(ctx, id)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// migrations are idempotent
	require.NoError(t, m.RunMigrations(ctx, db))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, _, err := Open(context.Background(), "oracle", "x")
	require.ErrorIs(t, err, ErrUnknownDriver)
}

func TestOpen_SQLOpenError(t *testing.T) {
	orig := sqlOpen
	sqlOpen = func(driverName, dsn string) (*sql.DB, error) {
		return nil, errors.New("no driver")
	}
	defer func() { sqlOpen = orig }()

	_, _, err := Open(context.Background(), DriverPostgres, "postgres://x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no driver")
}

func TestOpen_Postgres_UsesPgxAndMigrates(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()

	origOpen := sqlOpen
	sqlOpen = func(driverName, dsn string) (*sql.DB, error) {
		if driverName != "pgx" {
			return nil, errors.New("unexpected driver " + driverName)
		}
		return db, nil
	}
	defer func() { sqlOpen = origOpen }()

	var gotDir string
	origUp := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	defer func() { gooseUpContext = origUp }()

	got, m, err := Open(context.Background(), DriverPostgres, "postgres://x")
	require.NoError(t, err)
	assert.Same(t, db, got)
	assert.IsType(t, &PostgresRepositoryManager{}, m)
	assert.Equal(t, "postgres", gotDir)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_Error(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	err = NewPostgresRepositoryManager().RunMigrations(context.Background(), db)
	require.EqualError(t, err, "boom")
}
