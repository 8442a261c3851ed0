// Package task implements the suspendable-computation primitives that the
// executor drives: a minimal Future/Poll/Waker model standing in for Rust's
// async/await, since Go has no native suspension point for cooperative
// tasks. Futures are polled to completion on the calling goroutine; there is
// no preemption, only explicit Pending returns at well-defined yield points
// (principally mailbox send/receive).
package task

// Poll is the result of polling a Future once.
type Poll[T any] struct {
	Ready bool
	Value T
}

// Ready builds a completed Poll.
func Ready[T any](v T) Poll[T] {
	return Poll[T]{Ready: true, Value: v}
}

// Pending builds an incomplete Poll.
func Pending[T any]() Poll[T] {
	return Poll[T]{}
}

// Future is a suspendable computation yielding a T when it completes.
//
// Poll must not block. If the future cannot make progress it registers w (if
// non-nil) to be woken later and returns Pending.
type Future[T any] interface {
	Poll(w *Waker) Poll[T]
}

// Func adapts a plain poll function into a Future.
type Func[T any] func(w *Waker) Poll[T]

func (f Func[T]) Poll(w *Waker) Poll[T] { return f(w) }

// ready is a Future that is already resolved to v.
type ready[T any] struct{ v T }

// FromValue builds a Future that resolves immediately to v.
func FromValue[T any](v T) Future[T] { return ready[T]{v} }

func (r ready[T]) Poll(*Waker) Poll[T] { return Ready(r.v) }
