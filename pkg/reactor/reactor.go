package reactor

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/fluxorio/asyncworker/pkg/core"
	"github.com/fluxorio/asyncworker/pkg/core/concurrency"
)

// Reactor runs posted functions one at a time, in post order, on a single
// event-loop goroutine. It is the delivery thread for task callbacks.
type Reactor struct {
	name    string
	mailbox concurrency.Mailbox
	logger  core.Logger
	started int32
	done    chan struct{}
}

// Option configures a Reactor
type Option func(*Reactor)

// WithName sets the reactor name used in log lines
func WithName(name string) Option {
	return func(r *Reactor) { r.name = name }
}

// WithLogger sets the logger that reports panics raised by posted functions
func WithLogger(logger core.Logger) Option {
	return func(r *Reactor) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a reactor with a bounded mailbox of the given size.
// Post returns ErrBackpressure when the mailbox is full.
func New(size int, opts ...Option) *Reactor {
	return newReactor(concurrency.NewBoundedMailbox(size), opts)
}

// NewUnbounded creates a reactor whose Post never reports backpressure
func NewUnbounded(opts ...Option) *Reactor {
	return newReactor(concurrency.NewUnboundedMailbox(), opts)
}

func newReactor(mailbox concurrency.Mailbox, opts []Option) *Reactor {
	r := &Reactor{
		name:    "reactor",
		mailbox: mailbox,
		logger:  core.NewNopLogger(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("reactor", r.name)
	return r
}

// Name returns the reactor name
func (r *Reactor) Name() string {
	return r.name
}

// Start launches the event loop. Calling Start twice is a no-op.
func (r *Reactor) Start() {
	if !atomic.CompareAndSwapInt32(&r.started, 0, 1) {
		return
	}
	go r.loop()
}

// Post queues fn for execution on the event loop
func (r *Reactor) Post(fn func()) error {
	switch err := r.mailbox.Send(fn); err {
	case nil:
		return nil
	case concurrency.ErrMailboxClosed:
		return ErrStopped
	default:
		return ErrBackpressure
	}
}

// Stop refuses further posts and waits for already queued functions to run
func (r *Reactor) Stop(ctx context.Context) error {
	r.mailbox.Close()
	if atomic.LoadInt32(&r.started) == 0 {
		return nil
	}

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued functions
func (r *Reactor) Pending() int {
	return r.mailbox.Size()
}

func (r *Reactor) loop() {
	defer close(r.done)

	for {
		msg, err := r.mailbox.Receive(context.Background())
		if err != nil {
			return
		}
		r.safeExecute(msg.(func()))
	}
}

// safeExecute keeps the loop alive when a posted function panics
func (r *Reactor) safeExecute(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Errorf("posted function panicked: %v\n%s", p, debug.Stack())
		}
	}()
	fn()
}

var (
	mainOnce    sync.Once
	mainReactor *Reactor
)

// Main returns the process-wide reactor, started on first use.
// Its mailbox is unbounded so posting a callback never fails with backpressure.
// It logs nothing; callers wanting panic reports run their own reactor with
// WithLogger.
func Main() *Reactor {
	mainOnce.Do(func() {
		mainReactor = NewUnbounded(WithName("main"))
		mainReactor.Start()
	})
	return mainReactor
}
