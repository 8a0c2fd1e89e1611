package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "mediaconv/internal/app/errors"
	"mediaconv/internal/app/model"
)

// Schema creates the entitlements table. It is valid for both SQLite and
// PostgreSQL.
const Schema = `CREATE TABLE IF NOT EXISTS entitlements (
	id                  TEXT PRIMARY KEY,
	free_uses_remaining INTEGER NOT NULL DEFAULT 0 CHECK (free_uses_remaining >= 0),
	credit_balance      BIGINT NOT NULL DEFAULT 0 CHECK (credit_balance >= 0),
	unlimited           BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at          TIMESTAMP NOT NULL
)`

// CommonDB provides shared database functionality
type CommonDB struct {
	db           *sql.DB
	driverName   string
	placeholders PlaceholderFunc
	now          func() time.Time
}

// PlaceholderFunc generates parameter placeholders for different SQL dialects
type PlaceholderFunc func(n int) string

// NewCommonDB creates a new CommonDB instance
func NewCommonDB(db *sql.DB, driverName string) *CommonDB {
	var placeholders PlaceholderFunc

	switch driverName {
	case "postgres":
		placeholders = func(n int) string { return fmt.Sprintf("$%d", n) }
	default:
		placeholders = func(n int) string { return "?" }
	}

	return &CommonDB{
		db:           db,
		driverName:   driverName,
		placeholders: placeholders,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source used for updated_at.
func (c *CommonDB) SetClock(now func() time.Time) {
	c.now = now
}

// bind replaces each ? in query with the dialect placeholder.
func (c *CommonDB) bind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(c.placeholders(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EnsureSchema creates the tables if they are missing
func (c *CommonDB) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntitlement(row rowScanner) (*model.Entitlement, error) {
	var e model.Entitlement
	if err := row.Scan(&e.ID, &e.FreeUsesRemaining, &e.CreditBalance, &e.Unlimited, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

const selectEntitlement = `SELECT id, free_uses_remaining, credit_balance, unlimited, updated_at FROM entitlements`

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (c *CommonDB) get(ctx context.Context, q queryer, id string) (*model.Entitlement, error) {
	e, err := scanEntitlement(q.QueryRowContext(ctx, c.bind(selectEntitlement+" WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return e, nil
}

// Get retrieves the entitlement for id
func (c *CommonDB) Get(ctx context.Context, id string) (*model.Entitlement, error) {
	return c.get(ctx, c.db, id)
}

// Consume runs the admission precedence in one transaction. Each debit is a
// conditional UPDATE, so the row can never go negative or be paid twice even
// when transactions interleave.
func (c *CommonDB) Consume(ctx context.Context, id string, cost int64) (model.Charge, *model.Entitlement, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ChargeNone, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := c.get(ctx, tx, id)
	if err != nil {
		return model.ChargeNone, nil, err
	}
	if current.Unlimited {
		if err := tx.Commit(); err != nil {
			return model.ChargeNone, nil, fmt.Errorf("commit: %w", err)
		}
		return model.ChargeUnlimited, current, nil
	}

	charge := model.ChargeNone
	now := c.now()
	n, err := c.execAffected(ctx, tx,
		"UPDATE entitlements SET free_uses_remaining = free_uses_remaining - 1, updated_at = ? WHERE id = ? AND free_uses_remaining > 0",
		now, id)
	if err != nil {
		return model.ChargeNone, nil, err
	}
	if n == 1 {
		charge = model.ChargeFreeUse
	} else {
		n, err = c.execAffected(ctx, tx,
			"UPDATE entitlements SET credit_balance = credit_balance - ?, updated_at = ? WHERE id = ? AND credit_balance >= ?",
			cost, now, id, cost)
		if err != nil {
			return model.ChargeNone, nil, err
		}
		if n == 1 {
			charge = model.ChargeCredits
		}
	}

	result := current
	if charge != model.ChargeNone {
		if result, err = c.get(ctx, tx, id); err != nil {
			return model.ChargeNone, nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.ChargeNone, nil, fmt.Errorf("commit: %w", err)
	}
	return charge, result, nil
}

func (c *CommonDB) execAffected(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	res, err := tx.ExecContext(ctx, c.bind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("update failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Upsert inserts or replaces an entitlement
func (c *CommonDB) Upsert(ctx context.Context, e model.Entitlement) error {
	if e.FreeUsesRemaining < 0 || e.CreditBalance < 0 {
		return fmt.Errorf("entitlement counters cannot be negative")
	}
	query := c.bind(`INSERT INTO entitlements (id, free_uses_remaining, credit_balance, unlimited, updated_at) ` +
		`VALUES (?, ?, ?, ?, ?) ` +
		`ON CONFLICT (id) DO UPDATE SET free_uses_remaining = excluded.free_uses_remaining, ` +
		`credit_balance = excluded.credit_balance, unlimited = excluded.unlimited, updated_at = excluded.updated_at`)
	if _, err := c.db.ExecContext(ctx, query, e.ID, e.FreeUsesRemaining, e.CreditBalance, e.Unlimited, c.now()); err != nil {
		return fmt.Errorf("upsert failed: %w", err)
	}
	return nil
}

// Grant adds credits to an existing entitlement
func (c *CommonDB) Grant(ctx context.Context, id string, credits int64) (*model.Entitlement, error) {
	if credits <= 0 {
		return nil, fmt.Errorf("credits to grant must be positive")
	}
	res, err := c.db.ExecContext(ctx,
		c.bind("UPDATE entitlements SET credit_balance = credit_balance + ?, updated_at = ? WHERE id = ?"),
		credits, c.now(), id)
	if err != nil {
		return nil, fmt.Errorf("update failed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, apperrors.ErrUserNotFound
	}
	return c.Get(ctx, id)
}

// SetUnlimited toggles the unlimited flag
func (c *CommonDB) SetUnlimited(ctx context.Context, id string, unlimited bool) error {
	res, err := c.db.ExecContext(ctx,
		c.bind("UPDATE entitlements SET unlimited = ?, updated_at = ? WHERE id = ?"),
		unlimited, c.now(), id)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// List returns every entitlement ordered by id
func (c *CommonDB) List(ctx context.Context) ([]model.Entitlement, error) {
	rows, err := c.db.QueryContext(ctx, selectEntitlement+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []model.Entitlement
	for rows.Next() {
		e, err := scanEntitlement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// Close closes the database connection
func (c *CommonDB) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// DB returns the underlying database connection
func (c *CommonDB) DB() *sql.DB {
	return c.db
}
