// Package tasks runs fire-and-forget work, such as sending email, outside
// the request that triggered it.
package tasks

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner executes submitted closures in their own goroutines.  Each task
// gets a fresh context with a timeout so it outlives the HTTP request.
// Errors and panics are logged and swallowed; nothing is retried.
type Runner struct {
	g       errgroup.Group
	log     *zap.Logger
	timeout time.Duration
}

// NewRunner builds a Runner.  A non-positive timeout means 30s.
func NewRunner(log *zap.Logger, timeout time.Duration) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{log: log, timeout: timeout}
}

// Submit schedules fn and returns immediately.
func (r *Runner) Submit(name string, fn func(ctx context.Context) error) {
	r.g.Go(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		run(ctx, r.log, name, fn)
		return nil
	})
}

// Wait blocks until every submitted task has finished.
func (r *Runner) Wait() { _ = r.g.Wait() }

// Inline runs tasks synchronously in the caller's goroutine.  Tests use it
// to observe a task's effects without sleeping.
type Inline struct{ Log *zap.Logger }

func (i Inline) Submit(name string, fn func(ctx context.Context) error) {
	log := i.Log
	if log == nil {
		log = zap.NewNop()
	}
	run(context.Background(), log, name, fn)
}

func run(ctx context.Context, log *zap.Logger, name string, fn func(ctx context.Context) error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			log.Error("task panicked", zap.String("task", name), zap.Error(fmt.Errorf("%v", p)))
		}
	}()
	if err := fn(ctx); err != nil {
		log.Error("task failed", zap.String("task", name), zap.Duration("took", time.Since(start)), zap.Error(err))
		return
	}
	log.Debug("task done", zap.String("task", name), zap.Duration("took", time.Since(start)))
}
