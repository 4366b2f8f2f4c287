package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/ticket-canvas/internal/events"
)

func TestGoOutlivesParentContext(t *testing.T) {
	r := NewRunner(nil)
	parent, cancel := context.WithCancel(context.Background())

	var sawCancel atomic.Bool
	release := make(chan struct{})
	r.Go(parent, "task", func(ctx context.Context) {
		<-release
		sawCancel.Store(ctx.Err() != nil)
	})
	cancel()
	close(release)

	assert.True(t, r.Wait(context.Background()))
	assert.False(t, sawCancel.Load())
}

func TestGoRecoversPanics(t *testing.T) {
	r := NewRunner(nil)
	r.Go(context.Background(), "boom", func(context.Context) { panic("boom") })
	assert.True(t, r.Wait(context.Background()))
}

func TestWaitHonoursDeadline(t *testing.T) {
	r := NewRunner(nil)
	release := make(chan struct{})
	r.Go(context.Background(), "slow", func(context.Context) { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, r.Wait(ctx))
	close(release)
	assert.True(t, r.Wait(context.Background()))
}

type registrar struct{ calls int }

func (r *registrar) RegisterHandlers(events.Dispatcher) { r.calls++ }

func TestStartNotificationWorker(t *testing.T) {
	reg := &registrar{}
	StartNotificationWorker(events.NewInMemoryDispatcher(), reg, nil)
	StartNotificationWorker(nil, reg)
	assert.Equal(t, 1, reg.calls)
}
