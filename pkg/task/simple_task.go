package task

import (
	"context"
	"time"
)

// Runnable is a computation with no result
type Runnable func(ctx context.Context) error

// SimpleTask runs a Runnable. A normal completion fires OnFinished only;
// an error fires OnError and then OnFinished.
type SimpleTask struct {
	*runtime[struct{}]
	fn Callable[struct{}]
}

func newSimpleTask(fn Runnable, opts options) *SimpleTask {
	return &SimpleTask{
		runtime: newRuntime[struct{}](KindSimple, opts, nil),
		fn: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, fn(ctx)
		},
	}
}

// ID returns the unique id of this task
func (t *SimpleTask) ID() string { return t.info.ID }

// Name returns the name used in logs, metrics and spans
func (t *SimpleTask) Name() string { return t.info.Name }

// Execute starts the task; see ResultTask.Execute
func (t *SimpleTask) Execute() (*SimpleTask, error) {
	if err := t.execute(t.fn); err != nil {
		return t, err
	}
	return t, nil
}

// Wait blocks until the task settles or ctx is done. It returns nil on
// success, a *ComputationError on failure and ErrCancelled after a cancel.
func (t *SimpleTask) Wait(ctx context.Context) error {
	_, err := t.wait(ctx)
	return err
}

// WaitTimeout is Wait bounded by d
func (t *SimpleTask) WaitTimeout(d time.Duration) error {
	_, err := t.waitTimeout(d)
	return err
}
