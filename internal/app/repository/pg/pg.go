package pg

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"mediaconv/internal/app/repository"
)

// PostgresDB stores entitlements in PostgreSQL.
type PostgresDB struct {
	*repository.CommonDB
}

// NewPostgresDB opens a connection pool for connectionString. The
// connection is verified lazily on first use.
func NewPostgresDB(connectionString string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newPostgresDB(db), nil
}

func newPostgresDB(db *sql.DB) *PostgresDB {
	return &PostgresDB{CommonDB: repository.NewCommonDB(db, "postgres")}
}

// Open connects and ensures the schema exists.
func Open(ctx context.Context, connectionString string) (*PostgresDB, error) {
	p, err := NewPostgresDB(connectionString)
	if err != nil {
		return nil, err
	}
	if err := p.DB().PingContext(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := p.EnsureSchema(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

var _ repository.EntitlementDAO = (*PostgresDB)(nil)
