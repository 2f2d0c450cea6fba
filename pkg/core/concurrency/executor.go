package concurrency

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRejected is returned when an executor cannot take another job
	ErrRejected = errors.New("job rejected")

	// ErrExecutorClosed is returned when submitting to a closed executor
	ErrExecutorClosed = errors.New("executor is closed")
)

// ExecutorStats provides statistics about executor performance
type ExecutorStats struct {
	Name             string  // Executor name used in log lines
	QueuedTasks      int64   // Current number of queued jobs
	ActiveWorkers    int     // Number of live worker goroutines
	CompletedTasks   int64   // Total completed jobs
	RejectedTasks    int64   // Total rejected jobs (backpressure)
	QueueCapacity    int     // Maximum queue capacity, 0 when unbounded or direct hand-off
	QueueUtilization float64 // Queue utilization percentage
}

// Executor abstracts goroutine pool management and job execution
// Hides channel operations and goroutine creation from application code
type Executor interface {
	// Submit queues a job for execution
	// Returns an ErrRejected-wrapping error under backpressure,
	// ErrExecutorClosed once the executor is closed
	Submit(job Job) error

	// SubmitWithTimeout queues a job, waiting up to timeout for room
	SubmitWithTimeout(job Job, timeout time.Duration) error

	// Close stops accepting jobs and returns immediately.
	// Jobs already accepted still run; workers exit once they are done.
	Close() error

	// Shutdown closes the executor and waits for accepted jobs to complete
	// (up to ctx timeout)
	Shutdown(ctx context.Context) error

	// Stats returns current executor statistics
	Stats() ExecutorStats
}
