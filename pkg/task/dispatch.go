package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Dispatcher is the completion context callbacks are delivered on.
//
// Functions posted by one goroutine must run in post order, one at a time.
// Post may queue fn or run it before returning; tasks never hold their lock
// while posting. reactor.Reactor satisfies this interface and reactor.Main()
// is the default.
type Dispatcher interface {
	Post(fn func()) error
}

// DispatcherFunc adapts a function to Dispatcher
type DispatcherFunc func(fn func()) error

func (f DispatcherFunc) Post(fn func()) error { return f(fn) }

// Lifecycle is an external resource whose destruction cancels attached tasks.
//
// OnDestroy registers fn to run once when the resource is destroyed, or
// immediately if it already was. The returned detach func unregisters fn and
// reports whether it was still registered.
type Lifecycle interface {
	OnDestroy(fn func()) (detach func() bool)
}

// Kind distinguishes value-producing tasks from simple ones
type Kind string

const (
	KindResult Kind = "result"
	KindSimple Kind = "simple"
)

// Info identifies a task run for observers
type Info struct {
	ID      string
	Name    string
	Kind    Kind
	Started time.Time
}

// Outcome is how a task run ended
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeRejected  Outcome = "rejected"
	OutcomeError     Outcome = "error"
	OutcomeCancelled Outcome = "cancelled"
)

// Observer watches task runs; used for metrics and tracing.
//
// TaskStarted is called when a task starts running; the context it returns is
// the one handed to the computation. TaskSettled is called once per started
// task, from whichever goroutine settled it.
type Observer interface {
	TaskStarted(ctx context.Context, info Info) context.Context
	TaskSettled(ctx context.Context, info Info, outcome Outcome, err error)
}

func newInfo(name string, kind Kind) Info {
	id := uuid.NewString()
	if name == "" {
		name = string(kind) + "-" + id[:8]
	}
	return Info{ID: id, Name: name, Kind: kind}
}
