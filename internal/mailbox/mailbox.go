// Package mailbox implements the bounded, single-consumer/multi-producer
// channel every model owns: senders enqueue type-erased closures that
// apply themselves to the model's state, and the model's own task drains
// them one at a time. Capacity is small and fixed per model, so a full
// mailbox is the ordinary case, not an error: Send is itself a Future that
// only resolves once a slot frees up, the same yield point the reference
// simulation uses to let other tasks (and, ultimately, the executor's
// ready queue) make progress while a sender waits.
package mailbox

import (
	"sync"

	"github.com/nexosim/nexosim-go/internal/task"
)

// Action is a type-erased closure a sender enqueues; the receiver applies
// it to the owning model by calling it with a pointer to that model's
// state. M is the model type the mailbox is parameterized over.
type Action[M any] func(m *M)

// DefaultCapacity is used when a model is added to the simulation without
// an explicit mailbox size, matching the reference builder's default.
const DefaultCapacity = 16

type sendWaiter struct {
	waker *task.Waker
}

// Mailbox is the receive side of the channel: owned by the model's own
// driving task, never shared.
type Mailbox[M any] struct {
	mu       sync.Mutex
	buf      []Action[M]
	cap      int
	closed   bool
	senders  []*sendWaiter // parked Send futures waiting for room
	receiver []*task.Waker // parked Recv futures waiting for an item
}

// New builds a mailbox with the given capacity and an Address usable to
// send into it. A capacity below 1 selects DefaultCapacity.
func New[M any](capacity int) (*Mailbox[M], *Address[M]) {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	mb := &Mailbox[M]{cap: capacity}
	return mb, &Address[M]{mb: mb}
}

// Len reports how many actions are currently queued.
func (mb *Mailbox[M]) Len() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.buf)
}

// Cap reports the mailbox's fixed capacity.
func (mb *Mailbox[M]) Cap() int { return mb.cap }

// IsClosed reports whether Close has been called.
func (mb *Mailbox[M]) IsClosed() bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.closed
}

// Close marks the mailbox closed: pending Recv futures resolve with
// ok=false once drained, parked Send futures are woken and resolve with
// ErrClosed, and further Send futures fail immediately.
// Closing a model's mailbox is how the driver tears it down when the
// simulation itself shuts down.
func (mb *Mailbox[M]) Close() {
	mb.mu.Lock()
	mb.closed = true
	waiters := mb.receiver
	mb.receiver = nil
	senders := mb.senders
	mb.senders = nil
	mb.mu.Unlock()

	for _, w := range waiters {
		w.Wake()
	}
	for _, s := range senders {
		s.waker.Wake()
	}
}

// Recv returns a Future resolving to the next action once one is
// available, or ok=false if the mailbox is closed and drained.
func (mb *Mailbox[M]) Recv() task.Future[RecvResult[M]] {
	return task.Func[RecvResult[M]](func(w *task.Waker) task.Poll[RecvResult[M]] {
		mb.mu.Lock()
		if len(mb.buf) > 0 {
			a := mb.buf[0]
			mb.buf = mb.buf[1:]
			var toWake *sendWaiter
			if len(mb.senders) > 0 {
				toWake = mb.senders[0]
				mb.senders = mb.senders[1:]
			}
			mb.mu.Unlock()
			if toWake != nil {
				toWake.waker.Wake()
			}
			return task.Ready(RecvResult[M]{Action: a, OK: true})
		}
		if mb.closed {
			mb.mu.Unlock()
			return task.Ready(RecvResult[M]{})
		}
		if w != nil {
			mb.receiver = append(mb.receiver, w)
		}
		mb.mu.Unlock()
		return task.Pending[RecvResult[M]]()
	})
}

// RecvResult is the outcome of polling Recv: OK is false only when the
// mailbox is closed and empty, meaning the model's task should terminate.
type RecvResult[M any] struct {
	Action Action[M]
	OK     bool
}

// trySend attempts to enqueue a without blocking. It reports whether the
// action was accepted.
func (mb *Mailbox[M]) trySend(a Action[M]) (accepted, closed bool) {
	mb.mu.Lock()

	if mb.closed {
		mb.mu.Unlock()
		return false, true
	}
	if len(mb.buf) >= mb.cap {
		mb.mu.Unlock()
		return false, false
	}
	mb.buf = append(mb.buf, a)
	var toWake *task.Waker
	if len(mb.receiver) > 0 {
		toWake = mb.receiver[0]
		mb.receiver = mb.receiver[1:]
	}
	mb.mu.Unlock()

	if toWake != nil {
		toWake.Wake()
	}
	return true, false
}

func (mb *Mailbox[M]) parkSender(w *task.Waker) {
	mb.mu.Lock()
	mb.senders = append(mb.senders, &sendWaiter{waker: w})
	mb.mu.Unlock()
}
