package repomanager

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/leakvault/internal/dbx"
	"github.com/dmitrijs2005/leakvault/internal/migrations"
	"github.com/dmitrijs2005/leakvault/internal/repositories/files"
	"github.com/dmitrijs2005/leakvault/internal/repositories/scanresults"
)

// SQLiteRepositoryManager vends SQLite-backed repositories. It is the
// default backend: the whole vault then lives in one directory.
type SQLiteRepositoryManager struct{}

func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

func (m *SQLiteRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return files.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) ScanResults(db dbx.DBTX) scanresults.Repository {
	return scanresults.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.SQLite)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, "sqlite")
}
