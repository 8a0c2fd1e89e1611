package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mediaconv/internal/app/errors"
	"mediaconv/internal/app/model"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(context.Background(), filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestConsumePrecedence(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.Upsert(ctx, model.Entitlement{ID: "u1", FreeUsesRemaining: 1, CreditBalance: 60}))

	charge, e, err := db.Consume(ctx, "u1", 50)
	require.NoError(t, err)
	assert.Equal(t, model.ChargeFreeUse, charge)
	assert.Equal(t, 0, e.FreeUsesRemaining)
	assert.Equal(t, int64(60), e.CreditBalance)

	charge, e, err = db.Consume(ctx, "u1", 50)
	require.NoError(t, err)
	assert.Equal(t, model.ChargeCredits, charge)
	assert.Equal(t, int64(10), e.CreditBalance)

	charge, e, err = db.Consume(ctx, "u1", 50)
	require.NoError(t, err)
	assert.Equal(t, model.ChargeNone, charge)
	assert.Equal(t, int64(10), e.CreditBalance)

	stored, err := db.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.FreeUsesRemaining)
	assert.Equal(t, int64(10), stored.CreditBalance)
}

func TestConsumeUnlimitedDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.Upsert(ctx, model.Entitlement{ID: "pro", FreeUsesRemaining: 2, CreditBalance: 100, Unlimited: true}))

	for i := 0; i < 5; i++ {
		charge, _, err := db.Consume(ctx, "pro", 50)
		require.NoError(t, err)
		assert.Equal(t, model.ChargeUnlimited, charge)
	}
	e, err := db.Get(ctx, "pro")
	require.NoError(t, err)
	assert.Equal(t, 2, e.FreeUsesRemaining)
	assert.Equal(t, int64(100), e.CreditBalance)
}

func TestConsumeUnknownIdentity(t *testing.T) {
	_, _, err := newTestDB(t).Consume(context.Background(), "ghost", 50)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestConsumeConcurrentNeverOverdraws(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.Upsert(ctx, model.Entitlement{ID: "u1", FreeUsesRemaining: 3, CreditBalance: 100}))

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			charge, _, err := db.Consume(ctx, "u1", 50)
			if err == nil && charge != model.ChargeNone {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// three free uses plus two paid uses
	assert.Equal(t, 5, admitted)
	e, err := db.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, e.FreeUsesRemaining)
	assert.Equal(t, int64(0), e.CreditBalance)
}

func TestGrantSetUnlimitedAndList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.Upsert(ctx, model.Entitlement{ID: "b", FreeUsesRemaining: 3}))
	require.NoError(t, db.Upsert(ctx, model.Entitlement{ID: "a"}))

	e, err := db.Grant(ctx, "a", 150)
	require.NoError(t, err)
	assert.Equal(t, int64(150), e.CreditBalance)

	_, err = db.Grant(ctx, "ghost", 10)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	_, err = db.Grant(ctx, "a", 0)
	assert.Error(t, err)

	require.NoError(t, db.SetUnlimited(ctx, "b", true))
	assert.ErrorIs(t, db.SetUnlimited(ctx, "ghost", true), apperrors.ErrUserNotFound)

	all, err := db.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.True(t, all[1].Unlimited)
}

func TestUpsertRejectsNegative(t *testing.T) {
	err := newTestDB(t).Upsert(context.Background(), model.Entitlement{ID: "x", CreditBalance: -1})
	assert.Error(t, err)
}
