// Package workpool bounds the number of blocking jobs (password hashing,
// transactional writes) that may run at the same time, so that a burst of
// slow requests cannot starve unrelated ones.
package workpool

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool is a counting limiter for blocking work. The zero value is not usable;
// construct with New.
type Pool struct {
	sem *semaphore.Weighted
}

// New creates a pool admitting at most size concurrent jobs.
// A non-positive size defaults to GOMAXPROCS.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size))}
}

// Do waits for a free slot and runs fn on the calling goroutine.
// If ctx is done before a slot frees up, fn is not run and ctx.Err() is returned.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)

	return fn(ctx)
}

// DoValue is Do for jobs that produce a value.
func DoValue[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}
