package concurrency

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Job represents a unit of work that an Executor runs on one of its workers
type Job interface {
	// Execute performs the work
	// ctx is the executor's context; it is cancelled when the executor's parent is
	Execute(ctx context.Context) error

	// Name returns a human-readable name for the job (for logging/debugging)
	Name() string
}

// JobFunc is a function type that implements Job
type JobFunc func(ctx context.Context) error

// Execute implements Job interface for JobFunc
func (f JobFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Name returns a default name for JobFunc
func (f JobFunc) Name() string {
	return "JobFunc"
}

// NamedJob wraps a JobFunc with a custom name
type NamedJob struct {
	name string
	job  JobFunc
}

// NewNamedJob creates a new NamedJob
func NewNamedJob(name string, job JobFunc) *NamedJob {
	return &NamedJob{
		name: name,
		job:  job,
	}
}

// Execute implements Job interface
func (nj *NamedJob) Execute(ctx context.Context) error {
	return nj.job(ctx)
}

// Name returns the job name
func (nj *NamedJob) Name() string {
	return nj.name
}

// runJob executes a job and converts a panic into an error so a faulty job
// never takes a worker down with it.
func runJob(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v\n%s", job.Name(), r, debug.Stack())
		}
	}()
	return job.Execute(ctx)
}
