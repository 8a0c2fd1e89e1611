// Package lifecycle runs delayed tasks that must not outlive the process.
package lifecycle

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Executor schedules named tasks to run after a delay. On Shutdown every task
// that has not fired yet runs immediately, so scheduled cleanup is never lost.
type Executor struct {
	logger *zap.Logger

	mu      sync.Mutex
	pending map[uint64]*task
	nextID  uint64
	closed  bool
	wg      sync.WaitGroup
}

type task struct {
	name  string
	fn    func()
	timer *time.Timer
}

func NewExecutor(logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		logger:  logger,
		pending: make(map[uint64]*task),
	}
}

// After runs fn once d has elapsed. After Shutdown has begun, fn runs
// synchronously on the caller's goroutine.
func (e *Executor) After(d time.Duration, name string, fn func()) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.run(name, fn)
		return
	}
	id := e.nextID
	e.nextID++
	t := &task{name: name, fn: fn}
	e.pending[id] = t
	e.wg.Add(1)
	t.timer = time.AfterFunc(d, func() {
		if e.claim(id) {
			defer e.wg.Done()
			e.run(name, fn)
		}
	})
	e.mu.Unlock()
}

// Pending reports how many tasks are still waiting for their delay.
func (e *Executor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Shutdown stops accepting delayed work, runs every pending task now and
// waits for all tasks to finish or ctx to expire.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	drain := make([]*task, 0, len(e.pending))
	for id, t := range e.pending {
		if t.timer.Stop() {
			drain = append(drain, t)
			delete(e.pending, id)
		}
	}
	e.mu.Unlock()

	if len(drain) > 0 {
		e.logger.Info("Draining pending tasks", zap.Int("count", len(drain)))
	}
	for _, t := range drain {
		e.run(t.name, t.fn)
		e.wg.Done()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// claim removes id from the pending set; false means Shutdown took it.
func (e *Executor) claim(id uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.pending[id]; !ok {
		return false
	}
	delete(e.pending, id)
	return true
}

func (e *Executor) run(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Task panicked", zap.String("task", name), zap.Any("panic", r))
		}
	}()
	fn()
}
