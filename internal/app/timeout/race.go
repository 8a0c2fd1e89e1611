// Package timeout bounds how long a caller waits on an operation.
package timeout

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned by Race when the deadline passes first.
var ErrTimeout = errors.New("operation timed out")

type result[T any] struct {
	val T
	err error
}

// Race runs op and waits at most d for it. If op finishes first its result is
// returned; otherwise Race returns ErrTimeout at the deadline.
//
// The operation is not cancelled when the deadline passes: it keeps running
// with ctx and its eventual result is dropped. Callers must tolerate that
// orphaned work (a late file write is swept later). A d <= 0 waits for op.
func Race[T any](ctx context.Context, d time.Duration, op func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return op(ctx)
	}

	done := make(chan result[T], 1)
	go func() {
		v, err := op(ctx)
		done <- result[T]{val: v, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	var zero T
	select {
	case r := <-done:
		return r.val, r.err
	case <-timer.C:
		return zero, fmt.Errorf("%w after %s", ErrTimeout, d)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Do is Race for operations that only return an error.
func Do(ctx context.Context, d time.Duration, op func(context.Context) error) error {
	_, err := Race(ctx, d, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
