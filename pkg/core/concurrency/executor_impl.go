package concurrency

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fluxorio/asyncworker/pkg/core"
)

// queueExecutor implements Executor with a fixed set of workers draining a Mailbox
// Hides all Go concurrency primitives from public API
type queueExecutor struct {
	name    string
	mailbox Mailbox
	workers int
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	closed  int32
	logger  core.Logger

	// Metrics (atomic for thread-safety)
	completedTasks int64
	rejectedTasks  int64
}

// ExecutorConfig configures a queue Executor
type ExecutorConfig struct {
	Name      string      // Used in log lines and metrics
	Workers   int         // Number of worker goroutines
	QueueSize int         // Maximum queue size, 0 for an unbounded queue
	Logger    core.Logger // Defaults to a nop logger
}

// DefaultExecutorConfig returns a single worker over an unbounded queue,
// which runs jobs one at a time in submission order.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Name:      "serial",
		Workers:   1,
		QueueSize: 0,
	}
}

// NewExecutor creates a new Executor with the given configuration
// Hides goroutine and mailbox creation from callers
func NewExecutor(ctx context.Context, config ExecutorConfig) Executor {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.Name == "" {
		config.Name = "executor"
	}
	if config.Logger == nil {
		config.Logger = core.NewNopLogger()
	}

	var mailbox Mailbox
	if config.QueueSize > 0 {
		mailbox = NewBoundedMailbox(config.QueueSize)
	} else {
		mailbox = NewUnboundedMailbox()
	}

	ctx, cancel := context.WithCancel(ctx)

	exec := &queueExecutor{
		name:    config.Name,
		mailbox: mailbox,
		workers: config.Workers,
		ctx:     ctx,
		cancel:  cancel,
		logger:  config.Logger.With("executor", config.Name),
	}

	exec.startWorkers()

	return exec
}

// NewSingleWorkerExecutor returns a serial executor over an unbounded queue
func NewSingleWorkerExecutor(ctx context.Context, logger core.Logger) Executor {
	config := DefaultExecutorConfig()
	config.Logger = logger
	return NewExecutor(ctx, config)
}

func (e *queueExecutor) startWorkers() {
	e.wg.Add(e.workers)
	for i := 0; i < e.workers; i++ {
		go e.worker(i)
	}
}

// worker drains the mailbox until it is closed and empty, or the parent
// context is cancelled.
func (e *queueExecutor) worker(id int) {
	defer e.wg.Done()

	for {
		msg, err := e.mailbox.Receive(e.ctx)
		if err != nil {
			return
		}
		job := msg.(Job)

		if err := runJob(e.ctx, job); err != nil {
			// Log error but continue processing
			e.logger.Errorf("worker %d: job %s failed: %v", id, job.Name(), err)
		}
		atomic.AddInt64(&e.completedTasks, 1)
	}
}

func (e *queueExecutor) checkSubmit(job Job) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}
	if atomic.LoadInt32(&e.closed) == 1 {
		return ErrExecutorClosed
	}
	return nil
}

// Submit implements Executor interface
func (e *queueExecutor) Submit(job Job) error {
	if err := e.checkSubmit(job); err != nil {
		return err
	}

	switch err := e.mailbox.Send(job); err {
	case nil:
		return nil
	case ErrMailboxClosed:
		return ErrExecutorClosed
	default:
		atomic.AddInt64(&e.rejectedTasks, 1)
		return fmt.Errorf("%s: %w: %w", e.name, ErrRejected, err)
	}
}

// SubmitWithTimeout implements Executor interface
func (e *queueExecutor) SubmitWithTimeout(job Job, timeout time.Duration) error {
	if err := e.checkSubmit(job); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(e.ctx, timeout)
	defer cancel()

	switch err := e.mailbox.SendContext(ctx, job); err {
	case nil:
		return nil
	case ErrMailboxClosed:
		return ErrExecutorClosed
	default:
		atomic.AddInt64(&e.rejectedTasks, 1)
		return fmt.Errorf("%s: %w: submit timeout after %v", e.name, ErrRejected, timeout)
	}
}

// Close implements Executor interface
func (e *queueExecutor) Close() error {
	if !atomic.CompareAndSwapInt32(&e.closed, 0, 1) {
		return nil
	}
	// Workers drain what is queued, then see ErrMailboxClosed and exit.
	e.mailbox.Close()
	return nil
}

// Shutdown implements Executor interface
func (e *queueExecutor) Shutdown(ctx context.Context) error {
	e.Close()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.cancel()
		return nil
	case <-ctx.Done():
		// Abandon the remaining queue.
		e.cancel()
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}

// Stats implements Executor interface
func (e *queueExecutor) Stats() ExecutorStats {
	queued := int64(e.mailbox.Size())
	capacity := e.mailbox.Capacity()

	var utilization float64
	if capacity > 0 {
		utilization = float64(queued) / float64(capacity) * 100.0
		if utilization > 100.0 {
			utilization = 100.0
		}
	}

	return ExecutorStats{
		Name:             e.name,
		QueuedTasks:      queued,
		ActiveWorkers:    e.workers,
		CompletedTasks:   atomic.LoadInt64(&e.completedTasks),
		RejectedTasks:    atomic.LoadInt64(&e.rejectedTasks),
		QueueCapacity:    capacity,
		QueueUtilization: utilization,
	}
}
