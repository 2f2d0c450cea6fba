package task_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fluxorio/asyncworker/pkg/reactor"
	"github.com/fluxorio/asyncworker/pkg/task"
)

const waitLimit = 2 * time.Second

// newReactor returns a started completion context stopped at test end
func newReactor(t *testing.T) *reactor.Reactor {
	t.Helper()
	r := reactor.NewUnbounded(reactor.WithName(t.Name()))
	r.Start()
	t.Cleanup(func() { r.Stop(context.Background()) })
	return r
}

// flush waits until everything posted to r so far has run
func flush(t *testing.T, r *reactor.Reactor) {
	t.Helper()
	done := make(chan struct{})
	require.NoError(t, r.Post(func() { close(done) }))
	select {
	case <-done:
	case <-time.After(waitLimit):
		t.Fatal("reactor did not drain")
	}
}

// recorder captures every callback of an int task
type recorder struct {
	task.Connection

	mu       sync.Mutex
	events   []string
	value    int
	err      error
	progress [][2]int64
	settled  chan struct{}
	once     sync.Once
}

func newRecorder() *recorder {
	return &recorder{settled: make(chan struct{})}
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

// reset prepares the recorder for another task
func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.settled = make(chan struct{})
	r.once = sync.Once{}
}

func (r *recorder) settle() { r.once.Do(func() { close(r.settled) }) }

func (r *recorder) OnPreExecute() { r.add("pre") }

func (r *recorder) OnSuccess(v int) {
	r.mu.Lock()
	r.value = v
	r.mu.Unlock()
	r.add("success")
}

func (r *recorder) OnBadResult(v int) {
	r.mu.Lock()
	r.value = v
	r.mu.Unlock()
	r.add("bad")
}

func (r *recorder) OnError(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	r.add("error")
}

func (r *recorder) OnCancelled() {
	r.add("cancelled")
	r.settle()
}

func (r *recorder) OnFinished() {
	r.add("finished")
	r.settle()
}

func (r *recorder) OnProgress(progress, max int64) {
	r.mu.Lock()
	r.progress = append(r.progress, [2]int64{progress, max})
	r.mu.Unlock()
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) Value() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

func (r *recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *recorder) Progress() [][2]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][2]int64(nil), r.progress...)
}

// waitSettled blocks until the terminal callback ran
func (r *recorder) waitSettled(t *testing.T) {
	t.Helper()
	select {
	case <-r.settled:
	case <-time.After(waitLimit):
		t.Fatalf("task did not settle, events so far: %v", r.Events())
	}
}

// errorsOnly implements only the base hooks, so rejected results arrive at OnError
type errorsOnly struct {
	task.Connection

	mu   sync.Mutex
	errs []error
	done chan struct{}
}

func (e *errorsOnly) OnError(err error) {
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
}

func (e *errorsOnly) OnFinished() { close(e.done) }

// mustPanicWith runs fn and returns the error it panicked with
func mustPanicWith(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		var ok bool
		err, ok = r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
	}()
	fn()
	return nil
}

// blockingCall returns a computation that waits for release or cancellation
func blockingCall(release <-chan struct{}, v int) task.Callable[int] {
	return func(ctx context.Context) (int, error) {
		select {
		case <-release:
			return v, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}
