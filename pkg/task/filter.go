package task

import "sync/atomic"

// Predicate decides whether a produced value is acceptable
type Predicate[T any] func(T) bool

// ResultFilter is an ordered chain of predicates a result must pass.
//
// The zero value accepts everything. Add may be called while other
// goroutines evaluate the filter; an evaluation sees the predicates that were
// present when it started.
type ResultFilter[T any] struct {
	predicates atomic.Pointer[[]Predicate[T]]
}

// NewResultFilter returns a filter holding the given predicates in order
func NewResultFilter[T any](predicates ...Predicate[T]) *ResultFilter[T] {
	f := &ResultFilter[T]{}
	for _, p := range predicates {
		f.Add(p)
	}
	return f
}

// Add appends a predicate. A nil predicate is ignored.
func (f *ResultFilter[T]) Add(p Predicate[T]) {
	if p == nil {
		return
	}
	for {
		old := f.predicates.Load()
		var next []Predicate[T]
		if old != nil {
			next = make([]Predicate[T], len(*old), len(*old)+1)
			copy(next, *old)
		}
		next = append(next, p)
		if f.predicates.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Len returns the number of predicates
func (f *ResultFilter[T]) Len() int {
	if ps := f.predicates.Load(); ps != nil {
		return len(*ps)
	}
	return 0
}

// Acceptable runs the predicates in insertion order and stops at the first
// one that returns false or panics. A panicking predicate rejects the value.
func (f *ResultFilter[T]) Acceptable(v T) bool {
	ps := f.predicates.Load()
	if ps == nil {
		return true
	}
	for _, p := range *ps {
		if !safeTest(p, v) {
			return false
		}
	}
	return true
}

func safeTest[T any](p Predicate[T], v T) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return p(v)
}
