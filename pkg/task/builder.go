package task

import (
	"context"
	"reflect"

	"github.com/fluxorio/asyncworker/pkg/core"
	"github.com/fluxorio/asyncworker/pkg/core/concurrency"
	"github.com/fluxorio/asyncworker/pkg/core/failfast"
	"github.com/fluxorio/asyncworker/pkg/reactor"
)

// settings holds the configuration shared by both builders. B is the
// concrete builder, returned from every method so calls can be chained.
type settings[B any] struct {
	self       B
	executor   concurrency.Executor
	pooled     bool
	dispatcher Dispatcher
	lifecycle  Lifecycle
	callbacks  Callbacks
	name       string
	observers  []Observer
	logger     core.Logger
	parent     context.Context
}

// Using runs the task on e. The task never closes an executor given here.
func (s *settings[B]) Using(e concurrency.Executor) B {
	failfast.NotNil(e, "executor")
	s.executor = e
	s.pooled = false
	return s.self
}

// UsingPoolExecutor runs the task on its own pool sized for short CPU-bound
// work: 1 core worker growing to 20, idle workers retired after 3s, and
// jobs rejected when all workers are busy.
func (s *settings[B]) UsingPoolExecutor() B {
	s.executor = nil
	s.pooled = true
	return s.self
}

// AttachLifecycle cancels the task, with interruption, when l is destroyed
func (s *settings[B]) AttachLifecycle(l Lifecycle) B {
	failfast.NotNil(l, "lifecycle")
	s.lifecycle = l
	return s.self
}

// DeliverOn sets the completion context. Defaults to reactor.Main().
func (s *settings[B]) DeliverOn(d Dispatcher) B {
	failfast.NotNil(d, "dispatcher")
	s.dispatcher = d
	return s.self
}

// Connect sets the callbacks receiving the task's events
func (s *settings[B]) Connect(cb Callbacks) B {
	failfast.NotNil(cb, "callbacks")
	s.callbacks = cb
	return s.self
}

// Named sets the task name used in logs, metrics and spans
func (s *settings[B]) Named(name string) B {
	s.name = name
	return s.self
}

// Observe adds observers notified when the task starts and settles
func (s *settings[B]) Observe(observers ...Observer) B {
	for _, o := range observers {
		failfast.NotNil(o, "observer")
	}
	s.observers = append(s.observers, observers...)
	return s.self
}

// WithLogger sets the logger for diagnostics. Defaults to a nop logger.
func (s *settings[B]) WithLogger(logger core.Logger) B {
	failfast.NotNil(logger, "logger")
	s.logger = logger
	return s.self
}

// WithContext sets the parent of the computation's context.
// Cancelling it does not cancel the task; attach a lifecycle for that.
func (s *settings[B]) WithContext(ctx context.Context) B {
	failfast.NotNil(ctx, "context")
	s.parent = ctx
	return s.self
}

// resolve fills in defaults. Without an executor, each task creates its own
// when it starts and closes it on teardown.
func (s *settings[B]) resolve() options {
	opts := options{
		name:       s.name,
		executor:   s.executor,
		dispatcher: s.dispatcher,
		lifecycle:  s.lifecycle,
		callbacks:  s.callbacks,
		observers:  append([]Observer(nil), s.observers...),
		logger:     s.logger,
		parent:     s.parent,
	}
	if opts.logger == nil {
		opts.logger = core.NewNopLogger()
	}
	if opts.parent == nil {
		opts.parent = context.Background()
	}
	if opts.dispatcher == nil {
		opts.dispatcher = reactor.Main()
	}
	if opts.callbacks == nil {
		opts.callbacks = &Connection{}
	}
	if opts.executor == nil {
		logger, pooled := opts.logger, s.pooled
		opts.newExecutor = func() concurrency.Executor {
			if pooled {
				cfg := concurrency.DefaultPoolConfig()
				cfg.Logger = logger
				return concurrency.NewPoolExecutor(context.Background(), cfg)
			}
			return concurrency.NewSingleWorkerExecutor(context.Background(), logger)
		}
	}
	return opts
}

// ResultBuilder configures a ResultTask
type ResultBuilder[T any] struct {
	settings[*ResultBuilder[T]]
	fn     Callable[T]
	filter *ResultFilter[T]
}

// ForResult starts building a task that produces a value
func ForResult[T any](fn Callable[T]) *ResultBuilder[T] {
	failfast.NotNil(fn, "computation")
	b := &ResultBuilder[T]{fn: fn, filter: NewResultFilter[T]()}
	b.self = b
	return b
}

// AddFilter appends a predicate the result must satisfy
func (b *ResultBuilder[T]) AddFilter(p Predicate[T]) *ResultBuilder[T] {
	failfast.NotNil(p, "predicate")
	b.filter.Add(p)
	return b
}

// AcceptsNil adds a predicate that rejects nil results unless accepts is true.
// Only pointer, interface, map, slice, chan and func results can be nil.
func (b *ResultBuilder[T]) AcceptsNil(accepts bool) *ResultBuilder[T] {
	b.filter.Add(func(v T) bool {
		return accepts || !isNil(v)
	})
	return b
}

// Create builds an IDLE task. Every call returns a new task with its own filter.
func (b *ResultBuilder[T]) Create() *ResultTask[T] {
	filter := NewResultFilter[T]()
	if ps := b.filter.predicates.Load(); ps != nil {
		for _, p := range *ps {
			filter.Add(p)
		}
	}
	return newResultTask(b.fn, b.resolve(), filter)
}

// Execute creates the task and starts it
func (b *ResultBuilder[T]) Execute() (*ResultTask[T], error) {
	return b.Create().Execute()
}

// SimpleBuilder configures a SimpleTask
type SimpleBuilder struct {
	settings[*SimpleBuilder]
	fn Runnable
}

// Simple starts building a task with no result
func Simple(fn Runnable) *SimpleBuilder {
	failfast.NotNil(fn, "computation")
	b := &SimpleBuilder{fn: fn}
	b.self = b
	return b
}

// Create builds an IDLE task
func (b *SimpleBuilder) Create() *SimpleTask {
	return newSimpleTask(b.fn, b.resolve())
}

// Execute creates the task and starts it
func (b *SimpleBuilder) Execute() (*SimpleTask, error) {
	return b.Create().Execute()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}
