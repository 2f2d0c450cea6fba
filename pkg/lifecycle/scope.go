// Package lifecycle provides resources whose destruction cancels attached tasks.
//
// Both Scope and Context satisfy task.Lifecycle.
package lifecycle

import (
	"context"
	"sync"
)

// Scope is a resource destroyed explicitly, such as a request, a session or
// a component being unmounted. The zero value is a live scope.
type Scope struct {
	mu        sync.Mutex
	destroyed bool
	next      uint64
	observers map[uint64]func()
}

// NewScope returns a live scope
func NewScope() *Scope {
	return &Scope{}
}

// OnDestroy registers fn to run once when the scope is destroyed. On a
// destroyed scope fn runs immediately and the returned detach reports false.
func (s *Scope) OnDestroy(fn func()) (detach func() bool) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		fn()
		return func() bool { return false }
	}
	if s.observers == nil {
		s.observers = make(map[uint64]func())
	}
	id := s.next
	s.next++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.observers[id]; !ok {
			return false
		}
		delete(s.observers, id)
		return true
	}
}

// Destroy runs every registered observer once. Later calls do nothing.
func (s *Scope) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	observers := s.observers
	s.observers = nil
	s.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

// Destroyed reports whether Destroy was called
func (s *Scope) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// Observers returns the number of registered observers
func (s *Scope) Observers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

// Context is a lifecycle that ends when its context is done
type Context struct {
	ctx context.Context
}

// FromContext adapts ctx: cancelling it, or reaching its deadline, destroys
// the lifecycle.
func FromContext(ctx context.Context) *Context {
	return &Context{ctx: ctx}
}

// OnDestroy registers fn to run once ctx is done
func (c *Context) OnDestroy(fn func()) (detach func() bool) {
	return context.AfterFunc(c.ctx, fn)
}
