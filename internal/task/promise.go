package task

import "sync"

// CancelToken is a shared handle an executor uses to cooperatively cancel a
// running task. Dropping/Cancel-ing it marks the task's cancel flag; the
// task observes cancellation on its next poll.
type CancelToken struct {
	mu        sync.Mutex
	cancelled bool
}

// NewCancelToken returns a live (not yet cancelled) token.
func NewCancelToken() *CancelToken { return &CancelToken{} }

// Cancel marks the token as cancelled. Safe to call more than once.
func (c *CancelToken) Cancel() {
	c.mu.Lock()
	c.cancelled = true
	c.mu.Unlock()
}

// Cancelled reports whether Cancel has been called.
func (c *CancelToken) Cancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

// Promise is a shared handle to the eventual output of a spawned task. It is
// resolved exactly once, from the executor that ran the task.
type Promise[T any] struct {
	mu      sync.Mutex
	done    bool
	value   T
	waiters []*Waker
}

// NewPromise returns an unresolved promise.
func NewPromise[T any]() *Promise[T] { return &Promise[T]{} }

// Resolve stores the output and wakes anyone polling the promise. Only the
// executor driving the task that owns this promise should call it.
func (p *Promise[T]) Resolve(v T) {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return
	}
	p.done = true
	p.value = v
	waiters := p.waiters
	p.waiters = nil
	p.mu.Unlock()

	for _, w := range waiters {
		w.Wake()
	}
}

// Poll implements Future[T]: it resolves once the underlying task has
// completed, registering w to be woken on completion otherwise.
func (p *Promise[T]) Poll(w *Waker) Poll[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return Ready(p.value)
	}
	if w != nil {
		p.waiters = append(p.waiters, w)
	}
	return Pending[T]()
}

// TryGet returns the resolved value without blocking, reporting false if the
// task has not completed yet.
func (p *Promise[T]) TryGet() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.done
}
