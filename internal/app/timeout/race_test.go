package timeout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaceReturnsResultBeforeDeadline(t *testing.T) {
	got, err := Race(context.Background(), time.Second, func(context.Context) (string, error) {
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", got)
}

func TestRacePropagatesOperationError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Race(context.Background(), time.Second, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestRaceNeverResolvingOperation(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	start := time.Now()
	_, err := Race(context.Background(), 100*time.Millisecond, func(context.Context) (int, error) {
		<-block
		return 1, nil
	})
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, 600*time.Millisecond)
}

func TestRaceDoesNotCancelOperation(t *testing.T) {
	var finished atomic.Bool
	release := make(chan struct{})

	err := Do(context.Background(), 20*time.Millisecond, func(ctx context.Context) error {
		<-release
		if ctx.Err() == nil {
			finished.Store(true)
		}
		return nil
	})
	require.ErrorIs(t, err, ErrTimeout)

	close(release)
	assert.Eventually(t, finished.Load, time.Second, 5*time.Millisecond)
}

func TestRaceZeroDurationWaits(t *testing.T) {
	got, err := Race(context.Background(), 0, func(context.Context) (int, error) {
		time.Sleep(10 * time.Millisecond)
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestRaceCallerContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Race(ctx, time.Second, func(context.Context) (int, error) {
		select {}
	})
	assert.ErrorIs(t, err, context.Canceled)
}
