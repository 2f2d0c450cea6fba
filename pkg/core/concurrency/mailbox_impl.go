package concurrency

import (
	"context"
	"sync"
	"sync/atomic"
)

// boundedMailbox implements Mailbox using a buffered channel.
// The channel is never closed; done signals closure so blocked senders
// can never panic on a closed channel.
type boundedMailbox struct {
	ch       chan interface{}
	done     chan struct{}
	mu       sync.RWMutex // held shared by senders, exclusively by Close
	closed   int32        // Atomic flag
	capacity int
}

// NewBoundedMailbox creates a new bounded mailbox
func NewBoundedMailbox(capacity int) Mailbox {
	if capacity < 1 {
		capacity = 100 // Default capacity
	}

	return &boundedMailbox{
		ch:       make(chan interface{}, capacity),
		done:     make(chan struct{}),
		capacity: capacity,
	}
}

// Send implements Mailbox interface
func (mb *boundedMailbox) Send(msg interface{}) error {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	if atomic.LoadInt32(&mb.closed) == 1 {
		return ErrMailboxClosed
	}

	select {
	case mb.ch <- msg:
		return nil
	default:
		return ErrMailboxFull
	}
}

// SendContext implements Mailbox interface
func (mb *boundedMailbox) SendContext(ctx context.Context, msg interface{}) error {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	if atomic.LoadInt32(&mb.closed) == 1 {
		return ErrMailboxClosed
	}

	select {
	case mb.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive implements Mailbox interface
func (mb *boundedMailbox) Receive(ctx context.Context) (interface{}, error) {
	select {
	case msg := <-mb.ch:
		return msg, nil
	default:
	}

	select {
	case msg := <-mb.ch:
		return msg, nil
	case <-mb.done:
		// Drain whatever was queued before Close.
		select {
		case msg := <-mb.ch:
			return msg, nil
		default:
			return nil, ErrMailboxClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryReceive implements Mailbox interface
func (mb *boundedMailbox) TryReceive() (interface{}, bool, error) {
	select {
	case msg := <-mb.ch:
		return msg, true, nil
	default:
	}
	if atomic.LoadInt32(&mb.closed) == 1 {
		return nil, false, ErrMailboxClosed
	}
	return nil, false, nil
}

// Close implements Mailbox interface
func (mb *boundedMailbox) Close() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if atomic.CompareAndSwapInt32(&mb.closed, 0, 1) {
		close(mb.done)
	}
}

// Capacity implements Mailbox interface
func (mb *boundedMailbox) Capacity() int {
	return mb.capacity
}

// Size implements Mailbox interface
func (mb *boundedMailbox) Size() int {
	return len(mb.ch)
}

// IsClosed implements Mailbox interface
func (mb *boundedMailbox) IsClosed() bool {
	return atomic.LoadInt32(&mb.closed) == 1
}

// unboundedMailbox implements Mailbox over a growable slice.
// Send never reports backpressure.
type unboundedMailbox struct {
	mu     sync.Mutex
	queue  []interface{}
	closed bool
	signal chan struct{} // capacity 1, wakes one waiting receiver
	done   chan struct{}
}

// NewUnboundedMailbox creates a mailbox with no capacity limit
func NewUnboundedMailbox() Mailbox {
	return &unboundedMailbox{
		queue:  make([]interface{}, 0, 16),
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (mb *unboundedMailbox) wake() {
	select {
	case mb.signal <- struct{}{}:
	default:
	}
}

// Send implements Mailbox interface
func (mb *unboundedMailbox) Send(msg interface{}) error {
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		return ErrMailboxClosed
	}
	mb.queue = append(mb.queue, msg)
	mb.mu.Unlock()

	mb.wake()
	return nil
}

// SendContext implements Mailbox interface; an unbounded mailbox never waits
func (mb *unboundedMailbox) SendContext(ctx context.Context, msg interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return mb.Send(msg)
}

// pop removes the head of the queue. Must be called with mu held.
func (mb *unboundedMailbox) pop() (interface{}, bool) {
	if len(mb.queue) == 0 {
		return nil, false
	}
	msg := mb.queue[0]
	mb.queue[0] = nil
	mb.queue = mb.queue[1:]
	if len(mb.queue) > 0 {
		// Let another receiver pick up the rest.
		mb.wake()
	}
	return msg, true
}

// Receive implements Mailbox interface
func (mb *unboundedMailbox) Receive(ctx context.Context) (interface{}, error) {
	for {
		mb.mu.Lock()
		if msg, ok := mb.pop(); ok {
			mb.mu.Unlock()
			return msg, nil
		}
		if mb.closed {
			mb.mu.Unlock()
			return nil, ErrMailboxClosed
		}
		mb.mu.Unlock()

		select {
		case <-mb.signal:
		case <-mb.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// TryReceive implements Mailbox interface
func (mb *unboundedMailbox) TryReceive() (interface{}, bool, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if msg, ok := mb.pop(); ok {
		return msg, true, nil
	}
	if mb.closed {
		return nil, false, ErrMailboxClosed
	}
	return nil, false, nil
}

// Close implements Mailbox interface
func (mb *unboundedMailbox) Close() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if !mb.closed {
		mb.closed = true
		close(mb.done)
	}
}

// Capacity implements Mailbox interface
func (mb *unboundedMailbox) Capacity() int {
	return 0
}

// Size implements Mailbox interface
func (mb *unboundedMailbox) Size() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.queue)
}

// IsClosed implements Mailbox interface
func (mb *unboundedMailbox) IsClosed() bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.closed
}
