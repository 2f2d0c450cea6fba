package concurrency

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/fluxorio/asyncworker/pkg/core"
)

// poolExecutor implements Executor with on-demand workers and direct hand-off
type poolExecutor struct {
	name      string
	coreSize  int32
	max       int
	keepAlive time.Duration
	handoff   chan Job // unbuffered: a send succeeds only into an idle worker
	slots     *semaphore.Weighted
	quit      chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex // held shared by Submit, exclusively by Close
	closed    bool
	ctx       context.Context
	cancel    context.CancelFunc
	logger    core.Logger

	live           int32
	completedTasks int64
	rejectedTasks  int64
}

// NewPoolExecutor creates a growable pool executor.
// No goroutine is started until the first job arrives.
func NewPoolExecutor(ctx context.Context, config PoolConfig) Executor {
	if config.MaxWorkers < 1 {
		config.MaxWorkers = 1
	}
	if config.CoreWorkers < 0 {
		config.CoreWorkers = 0
	}
	if config.CoreWorkers > config.MaxWorkers {
		config.CoreWorkers = config.MaxWorkers
	}
	if config.KeepAlive <= 0 {
		config.KeepAlive = DefaultPoolConfig().KeepAlive
	}
	if config.Name == "" {
		config.Name = "pool"
	}
	if config.Logger == nil {
		config.Logger = core.NewNopLogger()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &poolExecutor{
		name:      config.Name,
		coreSize:  int32(config.CoreWorkers),
		max:       config.MaxWorkers,
		keepAlive: config.KeepAlive,
		handoff:   make(chan Job),
		slots:     semaphore.NewWeighted(int64(config.MaxWorkers)),
		quit:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		logger:    config.Logger.With("executor", config.Name),
	}
}

// spawn starts a worker that runs first and then waits for hand-offs.
// Caller must hold mu (shared) and a semaphore slot.
func (p *poolExecutor) spawn(first Job) {
	atomic.AddInt32(&p.live, 1)
	p.wg.Add(1)
	go p.worker(first)
}

func (p *poolExecutor) run(job Job) {
	if err := runJob(p.ctx, job); err != nil {
		p.logger.Errorf("job %s failed: %v", job.Name(), err)
	}
	atomic.AddInt64(&p.completedTasks, 1)
}

func (p *poolExecutor) worker(first Job) {
	retired := false
	defer func() {
		if !retired {
			atomic.AddInt32(&p.live, -1)
		}
		p.slots.Release(1)
		p.wg.Done()
	}()

	p.run(first)

	idle := time.NewTimer(p.keepAlive)
	defer idle.Stop()

	for {
		select {
		case job := <-p.handoff:
			p.run(job)
		case <-idle.C:
			if p.tryRetire() {
				retired = true
				return
			}
		case <-p.quit:
			return
		case <-p.ctx.Done():
			return
		}

		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
		idle.Reset(p.keepAlive)
	}
}

// tryRetire lets an idle worker exit while the pool is above its core size
func (p *poolExecutor) tryRetire() bool {
	for {
		n := atomic.LoadInt32(&p.live)
		if n <= p.coreSize {
			return false
		}
		if atomic.CompareAndSwapInt32(&p.live, n, n-1) {
			return true
		}
	}
}

func (p *poolExecutor) reject() error {
	atomic.AddInt64(&p.rejectedTasks, 1)
	return fmt.Errorf("%s: %w: all %d workers busy", p.name, ErrRejected, p.max)
}

// offer hands job to an idle worker or a new one. Caller must hold mu (shared).
func (p *poolExecutor) offer(job Job) bool {
	select {
	case p.handoff <- job:
		return true
	default:
	}
	if p.slots.TryAcquire(1) {
		p.spawn(job)
		return true
	}
	return false
}

// Submit implements Executor interface
func (p *poolExecutor) Submit(job Job) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrExecutorClosed
	}
	if p.offer(job) {
		return nil
	}
	return p.reject()
}

// SubmitWithTimeout implements Executor interface
func (p *poolExecutor) SubmitWithTimeout(job Job, timeout time.Duration) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrExecutorClosed
	}
	if p.offer(job) {
		p.mu.RUnlock()
		return nil
	}
	p.mu.RUnlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case p.handoff <- job:
		return nil
	case <-timer.C:
		return p.reject()
	case <-p.quit:
		return ErrExecutorClosed
	}
}

// Close implements Executor interface
func (p *poolExecutor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.quit)
	return nil
}

// Shutdown implements Executor interface
func (p *poolExecutor) Shutdown(ctx context.Context) error {
	p.Close()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}

// Stats implements Executor interface
func (p *poolExecutor) Stats() ExecutorStats {
	return ExecutorStats{
		Name:           p.name,
		ActiveWorkers:  int(atomic.LoadInt32(&p.live)),
		CompletedTasks: atomic.LoadInt64(&p.completedTasks),
		RejectedTasks:  atomic.LoadInt64(&p.rejectedTasks),
	}
}
