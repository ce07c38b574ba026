package eventmgr

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool schedules dispatch tasks.
//
// Go must either arrange for task to run exactly once or return an error;
// it must not block the caller waiting for capacity.
type Pool interface {
	Go(ctx context.Context, task func()) error
}

// GoPool runs every task on its own goroutine.
type GoPool struct{}

// Go implements Pool.
func (GoPool) Go(ctx context.Context, task func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	go task()
	return nil
}

// BoundedPool runs at most n tasks at a time. Tasks beyond the limit wait
// on their own goroutine for a slot, so scheduling never blocks.
type BoundedPool struct {
	sem  *semaphore.Weighted
	size int
}

// NewBoundedPool creates a pool running at most n tasks concurrently.
// A non-positive n uses GOMAXPROCS.
func NewBoundedPool(n int) *BoundedPool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return &BoundedPool{sem: semaphore.NewWeighted(int64(n)), size: n}
}

// Size returns the concurrency limit.
func (p *BoundedPool) Size() int {
	return p.size
}

// Go implements Pool.
func (p *BoundedPool) Go(ctx context.Context, task func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.sem.TryAcquire(1) {
		go func() {
			defer p.sem.Release(1)
			task()
		}()
		return nil
	}
	go func() {
		// Accepted tasks always run; the slot wait is not cancellable.
		_ = p.sem.Acquire(context.Background(), 1)
		defer p.sem.Release(1)
		task()
	}()
	return nil
}
