package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"mediaconv/internal/app/model"
	"mediaconv/internal/app/repository"
)

// DatabaseType represents the type of database to use in tests
type DatabaseType string

const (
	SQLiteDB   DatabaseType = "sqlite3"
	PostgresDB DatabaseType = "postgres"
)

// SetupTestDB creates an entitlement database with the schema applied.
// PostgreSQL is used when POSTGRES_TEST_URL is set, SQLite otherwise.
func SetupTestDB(t *testing.T) (*sql.DB, DatabaseType) {
	t.Helper()

	if pgURL := os.Getenv("POSTGRES_TEST_URL"); pgURL != "" {
		db, err := sql.Open("postgres", pgURL)
		if err != nil {
			t.Fatalf("Failed to connect to PostgreSQL test database: %v", err)
		}
		if err := db.Ping(); err != nil {
			t.Fatalf("Failed to ping PostgreSQL test database: %v", err)
		}
		if err := createTestTables(db); err != nil {
			t.Fatalf("Failed to create test tables: %v", err)
		}
		t.Cleanup(func() {
			_, _ = db.Exec("DELETE FROM entitlements")
			db.Close()
		})
		return db, PostgresDB
	}

	return SetupTestSQLite(t), SQLiteDB
}

// SetupTestSQLite creates a SQLite test database in the test's temp dir.
func SetupTestSQLite(t *testing.T) *sql.DB {
	t.Helper()

	testDBPath := filepath.Join(t.TempDir(), fmt.Sprintf("test_db_%d.sqlite", time.Now().UnixNano()))
	db, err := sql.Open("sqlite3", testDBPath)
	if err != nil {
		t.Fatalf("Failed to create SQLite test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := createTestTables(db); err != nil {
		t.Fatalf("Failed to create test tables: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// SeedEntitlements inserts rows into the entitlements table.
func SeedEntitlements(t *testing.T, db *sql.DB, driver DatabaseType, rows ...model.Entitlement) {
	t.Helper()

	query := "INSERT INTO entitlements (id, free_uses_remaining, credit_balance, unlimited, updated_at) VALUES (?, ?, ?, ?, ?)"
	if driver == PostgresDB {
		query = "INSERT INTO entitlements (id, free_uses_remaining, credit_balance, unlimited, updated_at) VALUES ($1, $2, $3, $4, $5)"
	}
	for _, e := range rows {
		if _, err := db.Exec(query, e.ID, e.FreeUsesRemaining, e.CreditBalance, e.Unlimited, e.UpdatedAt); err != nil {
			t.Fatalf("Failed to seed entitlement %s: %v", e.ID, err)
		}
	}
}

// CountEntitlements returns the number of stored rows.
func CountEntitlements(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM entitlements").Scan(&count); err != nil {
		t.Fatalf("Failed to count entitlements: %v", err)
	}
	return count
}

func createTestTables(db *sql.DB) error {
	_, err := db.Exec(repository.Schema)
	return err
}
