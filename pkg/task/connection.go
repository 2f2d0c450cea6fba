package task

import "sync"

// Callbacks receives task lifecycle events on the completion context.
//
// Implementations embed Connection, which supplies no-op defaults for every
// hook and the cancel delegates:
//
//	type download struct {
//		task.Connection
//	}
//
//	func (d *download) OnSuccess(body []byte) { ... }
//
// A Callbacks value may be reused for a new task once the previous one tore down.
type Callbacks interface {
	// OnPreExecute runs once before any other event of a run
	OnPreExecute()
	// OnCancelled runs when the task is cancelled; it is the run's last event
	OnCancelled()
	// OnError reports a failed computation, or a rejected result when the
	// callbacks do not implement BadResultHandler
	OnError(err error)
	// OnFinished runs last on every run that was not cancelled
	OnFinished()

	conn() *Connection
}

// SuccessHandler receives a result that passed the filter
type SuccessHandler[T any] interface {
	OnSuccess(value T)
}

// BadResultHandler receives a result the filter rejected
type BadResultHandler[T any] interface {
	OnBadResult(value T)
}

// ProgressHandler receives values passed to ReportProgress while the task runs
type ProgressHandler interface {
	OnProgress(progress, max int64)
}

// canceller is what a Connection can reach of its attached task
type canceller interface {
	Cancel(mayInterrupt bool) bool
	IsCancelled() bool
}

// Connection links user callbacks to the task currently running them.
// The zero value is ready to use and is not attached to any task.
type Connection struct {
	mu   sync.Mutex
	task canceller
}

func (c *Connection) conn() *Connection { return c }

func (c *Connection) OnPreExecute() {}

func (c *Connection) OnCancelled() {}

func (c *Connection) OnError(error) {}

func (c *Connection) OnFinished() {}

// Cancel cancels the attached task. It reports false when no task is attached.
func (c *Connection) Cancel(mayInterrupt bool) bool {
	c.mu.Lock()
	t := c.task
	c.mu.Unlock()

	if t == nil {
		return false
	}
	return t.Cancel(mayInterrupt)
}

// IsCancelled reports whether the attached task was cancelled
func (c *Connection) IsCancelled() bool {
	c.mu.Lock()
	t := c.task
	c.mu.Unlock()

	return t != nil && t.IsCancelled()
}

// Attached reports whether a task is currently attached
func (c *Connection) Attached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.task != nil
}

func (c *Connection) attach(t canceller) {
	c.mu.Lock()
	c.task = t
	c.mu.Unlock()
}

// detach clears the back reference if it still points at t
func (c *Connection) detach(t canceller) {
	c.mu.Lock()
	if c.task == t {
		c.task = nil
	}
	c.mu.Unlock()
}
