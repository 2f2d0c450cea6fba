package task

import (
	"errors"
	"fmt"

	"github.com/fluxorio/asyncworker/pkg/core/failfast"
)

var (
	// ErrIllegalState reports a transition the state machine forbids,
	// such as executing a running task or moving a task backwards.
	ErrIllegalState = errors.New("illegal state")

	// ErrIllegalArgument reports misuse with a bad argument: re-running a
	// settled task, or a nil executor, lifecycle or computation. Builder
	// panics wrap it, so errors.Is works on the recovered value.
	ErrIllegalArgument = failfast.ErrInvalidArgument

	// ErrSettled is returned by the transition guard when the task already
	// reached a terminal state. It never reaches callers of the public API.
	ErrSettled = errors.New("task already settled")

	// ErrCancelled means the task was cancelled and will never produce a result
	ErrCancelled = errors.New("task cancelled")

	// ErrTimeout is returned by GetResultTimeout when the wait elapses.
	// The task keeps running; the caller may wait again.
	ErrTimeout = errors.New("timed out waiting for task result")
)

// ComputationError wraps the error a task's computation returned or panicked with
type ComputationError struct {
	Task string
	Err  error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.Task, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// PanicError carries a value recovered from a panicking computation
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error, e.g. a runtime.Error
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// UnacceptableResultError is reported when a produced value fails the result filter
type UnacceptableResultError[T any] struct {
	Value T
}

func (e *UnacceptableResultError[T]) Error() string {
	return fmt.Sprintf("the result of the executed task was not approved, result: %v", e.Value)
}
