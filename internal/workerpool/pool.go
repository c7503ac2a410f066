// Package workerpool runs a transformation over a slice with bounded
// parallelism and returns the results in input order.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ErrWorkerFailure matches every error returned by Run
var ErrWorkerFailure = errors.New("worker failure")

// WorkerFailure wraps the error of the first failing transform invocation.
type WorkerFailure struct {
	Index int   // Input position whose transform failed
	Err   error // Cause, including recovered panics
}

func (e *WorkerFailure) Error() string {
	return fmt.Sprintf("worker failure on item %d: %v", e.Index, e.Err)
}

// Unwrap returns the cause
func (e *WorkerFailure) Unwrap() error { return e.Err }

// Is reports whether target is ErrWorkerFailure
func (e *WorkerFailure) Is(target error) bool { return target == ErrWorkerFailure }

// DefaultParallelism is twice the number of CPUs
func DefaultParallelism() int {
	return 2 * runtime.NumCPU()
}

// Pool bounds how many transforms run at once. A Pool holds no goroutines
// between calls; each Run starts and joins its own.
type Pool struct {
	parallelism int
}

// New creates a pool. parallelism <= 0 means DefaultParallelism.
func New(parallelism int) *Pool {
	if parallelism <= 0 {
		parallelism = DefaultParallelism()
	}
	return &Pool{parallelism: parallelism}
}

// Parallelism returns the maximum number of concurrent transforms
func (p *Pool) Parallelism() int {
	return p.parallelism
}

// Run applies fn to every item with at most p.Parallelism() goroutines and
// returns the results in input order, whatever order they complete in.
//
// Failure handling:
//   - The first failing or panicking fn stops scheduling of items not yet started
//   - The context passed to fn is canceled so running items can return early
//   - Run waits for every started goroutine before returning
//   - Partial results are discarded
//
// Parameters:
//   - ctx: Parent context; a canceled ctx fails the call
//   - p: Pool bounding the number of concurrent fn calls
//   - items: Inputs, one fn call each
//   - fn: Transform; must not share mutable state unless it is built for concurrent access
//
// Returns:
//   - []R: One result per item, results[i] = fn(items[i])
//   - error: nil on success, otherwise a *WorkerFailure (matches ErrWorkerFailure)
//
// Example:
//
//	lengths, err := workerpool.Run(ctx, workerpool.New(4), words,
//	    func(_ context.Context, w string) (int, error) { return len(w), nil })
func Run[T, R any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)

	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		i, item := i, item
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &WorkerFailure{Index: i, Err: fmt.Errorf("panic: %v", r)}
				}
			}()
			out, err := fn(gctx, item)
			if err != nil {
				return &WorkerFailure{Index: i, Err: err}
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &WorkerFailure{Index: -1, Err: err}
	}
	return results, nil
}

// ForEach is Run for transforms without a result
func ForEach[T any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) error) error {
	_, err := Run(ctx, p, items, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	})
	return err
}
