package worker

import (
	"context"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// Runner launches detached background tasks and lets shutdown wait for them.
type Runner struct {
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewRunner constructs a Runner.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger}
}

// Go runs fn on its own goroutine with a context that keeps ctx's values but not its
// cancellation, so the task outlives the request that started it. Panics are logged.
func (r *Runner) Go(ctx context.Context, name string, fn func(ctx context.Context)) {
	detached := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("background task panicked",
					zap.String("task", name),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()))
			}
		}()
		fn(detached)
	}()
}

// Wait blocks until all tasks finish or ctx is done. It reports whether all finished.
func (r *Runner) Wait(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
