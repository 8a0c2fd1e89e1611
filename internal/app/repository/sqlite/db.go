package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"mediaconv/internal/app/repository"
	"mediaconv/internal/app/util/files"
)

// SQLiteDB stores entitlements in a local SQLite file.
type SQLiteDB struct {
	*repository.CommonDB
}

// NewSQLiteDB opens (creating if needed) the database at dbPath and ensures
// the schema exists.
func NewSQLiteDB(ctx context.Context, dbPath string) (*SQLiteDB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := files.EnsureDir(dir); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; this also serializes Consume transactions.
	db.SetMaxOpenConns(1)

	common := repository.NewCommonDB(db, "sqlite3")
	if err := common.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteDB{CommonDB: common}, nil
}

var _ repository.EntitlementDAO = (*SQLiteDB)(nil)
