package task

import (
	"context"
	"time"
)

// Callable is a computation producing a value
type Callable[T any] func(ctx context.Context) (T, error)

// ResultTask runs a Callable and holds its result.
//
// Results are checked against the task's ResultFilter. An accepted value goes
// to SuccessHandler.OnSuccess, a rejected one to BadResultHandler.OnBadResult
// or, when the callbacks do not implement it, to OnError with an
// *UnacceptableResultError.
type ResultTask[T any] struct {
	*runtime[T]
	fn Callable[T]
}

func newResultTask[T any](fn Callable[T], opts options, filter *ResultFilter[T]) *ResultTask[T] {
	return &ResultTask[T]{
		runtime: newRuntime[T](KindResult, opts, filter),
		fn:      fn,
	}
}

// ID returns the unique id of this task
func (t *ResultTask[T]) ID() string { return t.info.ID }

// Name returns the name used in logs, metrics and spans
func (t *ResultTask[T]) Name() string { return t.info.Name }

// Execute starts the task on its executor.
//
// It fails with ErrIllegalState when the task is already running and with
// ErrIllegalArgument once it settled. When the executor rejects the job, the
// task settles FINISHED through OnError and the rejection is returned too.
func (t *ResultTask[T]) Execute() (*ResultTask[T], error) {
	if err := t.execute(t.fn); err != nil {
		return t, err
	}
	return t, nil
}

// GetResult blocks until the result is available or ctx is done.
//
// A failed computation yields a *ComputationError, a cancelled task
// ErrCancelled. A rejected result is returned along with an
// *UnacceptableResultError.
func (t *ResultTask[T]) GetResult(ctx context.Context) (T, error) {
	return t.wait(ctx)
}

// GetResultTimeout is GetResult bounded by d. ErrTimeout leaves the task running.
func (t *ResultTask[T]) GetResultTimeout(d time.Duration) (T, error) {
	return t.waitTimeout(d)
}
