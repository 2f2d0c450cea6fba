// Package future provides a type-safe, single-assignment Future/Promise pair.
//
// A Promise is settled exactly once, either with a value or an error. Any
// number of goroutines may Await the matching Future; all of them observe the
// same outcome.
package future

import (
	"context"
	"sync"
)

// Result holds the outcome of a completed Future
type Result[T any] struct {
	Value T
	Error error
}

// Future is the read side of a Promise
type Future[T any] struct {
	done   chan struct{}
	mu     sync.Mutex
	result Result[T]
}

// Promise is the write side; it embeds the Future it completes
type Promise[T any] struct {
	*Future[T]
}

// NewPromise creates an uncompleted promise
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{
		Future: &Future[T]{done: make(chan struct{})},
	}
}

func (f *Future[T]) settle(r Result[T]) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.done:
		return false
	default:
	}
	f.result = r
	close(f.done)
	return true
}

// TryComplete completes the promise with value; false if already settled
func (p *Promise[T]) TryComplete(value T) bool {
	return p.settle(Result[T]{Value: value})
}

// TryFail fails the promise with err; false if already settled
func (p *Promise[T]) TryFail(err error) bool {
	return p.settle(Result[T]{Error: err})
}

// TrySettle completes the promise with both a value and an error, for
// outcomes that produce a value the producer still considers a failure
func (p *Promise[T]) TrySettle(value T, err error) bool {
	return p.settle(Result[T]{Value: value, Error: err})
}

// Done is closed once the future is settled
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsComplete reports whether the future has settled
func (f *Future[T]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the outcome and whether the future has settled
func (f *Future[T]) Result() (Result[T], bool) {
	if !f.IsComplete() {
		return Result[T]{}, false
	}
	return f.result, true
}

// Await waits for the future to settle or ctx to be done.
// Provides async/await-style syntax: value, err := f.Await(ctx)
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result.Value, f.result.Error
	default:
	}

	select {
	case <-f.done:
		return f.result.Value, f.result.Error
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
