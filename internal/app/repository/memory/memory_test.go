package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mediaconv/internal/app/errors"
	"mediaconv/internal/app/model"
)

func TestConsume(t *testing.T) {
	ctx := context.Background()
	s := New(model.Entitlement{ID: "u1", FreeUsesRemaining: 1, CreditBalance: 50})

	charge, e, err := s.Consume(ctx, "u1", 50)
	require.NoError(t, err)
	assert.Equal(t, model.ChargeFreeUse, charge)
	assert.Equal(t, 0, e.FreeUsesRemaining)

	charge, _, err = s.Consume(ctx, "u1", 50)
	require.NoError(t, err)
	assert.Equal(t, model.ChargeCredits, charge)

	charge, e, err = s.Consume(ctx, "u1", 50)
	require.NoError(t, err)
	assert.Equal(t, model.ChargeNone, charge)
	assert.Equal(t, int64(0), e.CreditBalance)

	_, _, err = s.Consume(ctx, "ghost", 50)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestConsumeConcurrent(t *testing.T) {
	ctx := context.Background()
	s := New(model.Entitlement{ID: "u1", CreditBalance: 500})

	var wg sync.WaitGroup
	var mu sync.Mutex
	paid := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if charge, _, _ := s.Consume(ctx, "u1", 50); charge == model.ChargeCredits {
				mu.Lock()
				paid++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, paid)
}

func TestGrantAndUnlimited(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Upsert(ctx, model.Entitlement{ID: "u1", FreeUsesRemaining: 3}))

	e, err := s.Grant(ctx, "u1", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), e.CreditBalance)

	require.NoError(t, s.SetUnlimited(ctx, "u1", true))
	charge, e, err := s.Consume(ctx, "u1", 50)
	require.NoError(t, err)
	assert.Equal(t, model.ChargeUnlimited, charge)
	assert.Equal(t, 3, e.FreeUsesRemaining)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
