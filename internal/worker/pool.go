package worker

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Task is a unit of CPU-bound work.
type Task func(ctx context.Context) error

// Pool bounds how many tasks run at once. Transcoding is CPU-heavy, so the
// HTTP handlers and the Kafka consumer share one pool instead of each
// spawning unbounded goroutines.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// New creates a Pool with size slots. A non-positive size means GOMAXPROCS.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}

	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: size,
	}
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return p.size
}

// Submit runs task in the background once a slot is free. The returned
// channel yields exactly one error (nil on success) and is then closed.
func (p *Pool) Submit(ctx context.Context, task Task) <-chan error {
	done := make(chan error, 1)

	go func() {
		defer close(done)
		done <- p.Do(ctx, task)
	}()

	return done
}

// Do waits for a slot and runs task on the calling goroutine.
func (p *Pool) Do(ctx context.Context, task Task) (err error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire worker: %w", err)
	}
	defer p.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()

	return task(ctx)
}

// Run executes tasks concurrently within the pool's limit. The first error
// cancels the context passed to the remaining tasks and is returned.
func (p *Pool) Run(ctx context.Context, tasks ...Task) error {
	g, gCtx := errgroup.WithContext(ctx)

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			return p.Do(gCtx, task)
		})
	}

	return g.Wait()
}
