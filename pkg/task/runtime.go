package task

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/fluxorio/asyncworker/pkg/core"
	"github.com/fluxorio/asyncworker/pkg/core/concurrency"
	"github.com/fluxorio/asyncworker/pkg/future"
)

// options is the resolved builder configuration a task is created from
type options struct {
	name        string
	executor    concurrency.Executor
	newExecutor func() concurrency.Executor
	dispatcher  Dispatcher
	lifecycle   Lifecycle
	callbacks   Callbacks
	observers   []Observer
	logger      core.Logger
	parent      context.Context
}

// runtime is the state machine shared by ResultTask and SimpleTask.
//
// Callbacks are queued under mu together with the state change that causes
// them, then handed to the dispatcher outside mu by one draining goroutine at
// a time. They reach the dispatcher in order: OnPreExecute, then either
// OnCancelled or the FINISHED sequence, then teardown. A dispatcher that runs
// fn inline is safe.
type runtime[T any] struct {
	info    Info
	filter  *ResultFilter[T] // nil for simple tasks
	promise *future.Promise[T]

	mu              sync.Mutex
	state           State
	started         bool
	tornDown        bool
	executor        concurrency.Executor
	newExecutor     func() concurrency.Executor
	ownsExecutor    bool
	dispatcher      Dispatcher
	callbacks       Callbacks
	detachLifecycle func() bool
	parent          context.Context
	runCtx          context.Context
	cancelRun       context.CancelFunc
	observers       []Observer
	logger          core.Logger

	outbox   []posting
	draining bool
}

// posting is a queued callback. Teardown is marked required so it still runs
// when the dispatcher refuses it.
type posting struct {
	fn       func()
	required bool
}

func newRuntime[T any](kind Kind, opts options, filter *ResultFilter[T]) *runtime[T] {
	rt := &runtime[T]{
		info:        newInfo(opts.name, kind),
		filter:      filter,
		promise:     future.NewPromise[T](),
		executor:    opts.executor,
		newExecutor: opts.newExecutor,
		dispatcher:  opts.dispatcher,
		callbacks:   opts.callbacks,
		parent:      opts.parent,
		observers:   opts.observers,
	}
	rt.logger = opts.logger.With("task", rt.info.Name, "task_id", rt.info.ID)

	if opts.lifecycle != nil {
		rt.attachLifecycle(opts.lifecycle)
	}
	return rt
}

// attachLifecycle registers a forced cancel on destruction. The lifecycle may
// fire immediately, so registration happens without holding mu.
func (rt *runtime[T]) attachLifecycle(l Lifecycle) {
	detach := l.OnDestroy(func() {
		rt.logger.Debugf("lifecycle destroyed, cancelling")
		rt.Cancel(true)
	})

	rt.mu.Lock()
	if rt.tornDown {
		rt.mu.Unlock()
		detach()
		return
	}
	rt.detachLifecycle = detach
	rt.mu.Unlock()
}

// State returns the current state
func (rt *runtime[T]) State() State {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.state
}

// IsCancelled reports whether the task reached CANCELLED
func (rt *runtime[T]) IsCancelled() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.state == StateCancelled
}

// enqueueLocked queues fn for the dispatcher. Caller must hold mu.
func (rt *runtime[T]) enqueueLocked(fn func()) {
	rt.outbox = append(rt.outbox, posting{fn: fn})
}

// enqueueTeardownLocked queues teardown as the last posting of a run
func (rt *runtime[T]) enqueueTeardownLocked() {
	rt.outbox = append(rt.outbox, posting{fn: rt.teardown, required: true})
}

// drain hands queued callbacks to the dispatcher in queue order. Only one
// goroutine drains at a time; postings queued meanwhile, including from a
// callback the dispatcher ran inline, are picked up by the active drainer.
func (rt *runtime[T]) drain() {
	rt.mu.Lock()
	if rt.draining {
		rt.mu.Unlock()
		return
	}
	rt.draining = true
	for len(rt.outbox) > 0 {
		batch, d := rt.outbox, rt.dispatcher
		rt.outbox = nil
		rt.mu.Unlock()

		for _, p := range batch {
			rt.post(d, p)
		}

		rt.mu.Lock()
	}
	rt.draining = false
	rt.mu.Unlock()
}

func (rt *runtime[T]) post(d Dispatcher, p posting) {
	var err error
	if d != nil {
		if err = d.Post(p.fn); err == nil {
			return
		}
	}
	if p.required {
		p.fn()
		return
	}
	if err != nil {
		rt.logger.Warnf("callback lost: %v", err)
	}
}

func (rt *runtime[T]) execute(call func(context.Context) (T, error)) error {
	rt.mu.Lock()
	if err := checkTransition(rt.state, StateRunning); err != nil {
		rt.mu.Unlock()
		return fmt.Errorf("execute task %s: %w", rt.info.Name, err)
	}
	rt.state = StateRunning
	rt.started = true
	rt.info.Started = time.Now()

	ctx, cancel := context.WithCancel(rt.parent)
	ctx = context.WithValue(ctx, runKey{}, handle(rt))
	for _, o := range rt.observers {
		ctx = o.TaskStarted(ctx, rt.info)
	}
	rt.runCtx, rt.cancelRun = ctx, cancel

	if rt.executor == nil {
		rt.executor = rt.newExecutor()
		rt.ownsExecutor = true
	}

	rt.callbacks.conn().attach(rt)
	rt.enqueueLocked(rt.callbacks.OnPreExecute)
	executor := rt.executor
	rt.mu.Unlock()
	rt.drain()

	job := concurrency.NewNamedJob(rt.info.Name, func(context.Context) error {
		defer cancel()
		rt.run(ctx, call)
		return nil
	})
	if err := executor.Submit(job); err != nil {
		cancel()
		// A cancel between unlock and Submit may already have torn the task
		// down and closed its own executor.
		if rt.IsCancelled() {
			return nil
		}
		rt.logger.Warnf("executor rejected task: %v", err)
		var zero T
		rt.finish(zero, err)
		return fmt.Errorf("execute task %s: %w", rt.info.Name, err)
	}
	return nil
}

// run is the worker side of a task
func (rt *runtime[T]) run(ctx context.Context, call func(context.Context) (T, error)) {
	if rt.IsCancelled() {
		return
	}
	v, err := invoke(ctx, call)
	rt.finish(v, err)
}

func invoke[T any](ctx context.Context, call func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return call(ctx)
}

// Cancel moves the task to CANCELLED unless it already settled.
// It reports whether the running computation's context was cancelled.
func (rt *runtime[T]) Cancel(mayInterrupt bool) bool {
	rt.mu.Lock()
	from := rt.state
	if err := checkTransition(from, StateCancelled); err != nil {
		rt.mu.Unlock()
		return false
	}
	rt.state = StateCancelled

	interrupted := false
	if mayInterrupt && from == StateRunning {
		rt.cancelRun()
		interrupted = true
	}
	rt.promise.TryFail(ErrCancelled)

	rt.enqueueLocked(rt.callbacks.OnCancelled)
	rt.enqueueTeardownLocked()
	ctx, started, observers := rt.runCtx, rt.started, rt.observers
	rt.mu.Unlock()

	rt.drain()
	if started {
		notifySettled(ctx, observers, rt.info, OutcomeCancelled, ErrCancelled)
	}
	return interrupted
}

// finish settles a run that completed on its own. It does nothing when the
// task was cancelled first.
func (rt *runtime[T]) finish(v T, err error) {
	rt.mu.Lock()
	if checkTransition(rt.state, StateFinished) != nil {
		rt.mu.Unlock()
		return
	}
	rt.state = StateFinished
	cb, ctx, observers := rt.callbacks, rt.runCtx, rt.observers
	rt.mu.Unlock()

	outcome := OutcomeSuccess
	var cause error
	var deliver []func()

	switch {
	case err != nil:
		outcome, cause = OutcomeError, err
		rt.promise.TryFail(&ComputationError{Task: rt.info.Name, Err: err})
		deliver = append(deliver, func() { cb.OnError(err) })

	case rt.filter != nil && !rt.filter.Acceptable(v):
		bad := &UnacceptableResultError[T]{Value: v}
		outcome, cause = OutcomeRejected, bad
		rt.promise.TrySettle(v, bad)
		if h, ok := cb.(BadResultHandler[T]); ok {
			deliver = append(deliver, func() { h.OnBadResult(v) })
		} else {
			deliver = append(deliver, func() { cb.OnError(bad) })
		}

	default:
		rt.promise.TryComplete(v)
		if h, ok := cb.(SuccessHandler[T]); ok && rt.info.Kind == KindResult {
			deliver = append(deliver, func() { h.OnSuccess(v) })
		}
	}
	deliver = append(deliver, cb.OnFinished)

	// Nothing else queues once the state is terminal.
	rt.mu.Lock()
	for _, fn := range deliver {
		rt.enqueueLocked(fn)
	}
	rt.enqueueTeardownLocked()
	rt.mu.Unlock()

	rt.drain()
	notifySettled(ctx, observers, rt.info, outcome, cause)
}

func notifySettled(ctx context.Context, observers []Observer, info Info, outcome Outcome, err error) {
	for _, o := range observers {
		o.TaskSettled(ctx, info, outcome, err)
	}
}

// teardown releases everything the task holds. Runs once, after the
// terminal callbacks.
func (rt *runtime[T]) teardown() {
	rt.mu.Lock()
	if rt.tornDown {
		rt.mu.Unlock()
		return
	}
	rt.tornDown = true

	detach := rt.detachLifecycle
	executor, owned := rt.executor, rt.ownsExecutor
	rt.callbacks.conn().detach(rt)

	rt.detachLifecycle = nil
	rt.executor = nil
	rt.newExecutor = nil
	rt.dispatcher = nil
	rt.callbacks = nil
	rt.observers = nil
	rt.mu.Unlock()

	if detach != nil {
		detach()
	}
	if owned && executor != nil {
		if err := executor.Close(); err != nil {
			rt.logger.Warnf("closing executor: %v", err)
		}
	}
}

func (rt *runtime[T]) reportProgress(progress, max int64) {
	rt.mu.Lock()
	if rt.state != StateRunning {
		rt.mu.Unlock()
		return
	}
	h, ok := rt.callbacks.(ProgressHandler)
	if !ok {
		rt.mu.Unlock()
		return
	}
	rt.enqueueLocked(func() { h.OnProgress(progress, max) })
	rt.mu.Unlock()
	rt.drain()
}

func (rt *runtime[T]) wait(ctx context.Context) (T, error) {
	return rt.promise.Await(ctx)
}

func (rt *runtime[T]) waitTimeout(d time.Duration) (T, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-rt.promise.Done():
		r, _ := rt.promise.Result()
		return r.Value, r.Error
	case <-timer.C:
		var zero T
		return zero, fmt.Errorf("task %s after %v: %w", rt.info.Name, d, ErrTimeout)
	}
}
