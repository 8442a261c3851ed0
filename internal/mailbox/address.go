package mailbox

import (
	"sync"
	"unsafe"

	"github.com/nexosim/nexosim-go/internal/squeue"
	"github.com/nexosim/nexosim-go/internal/task"
)

// Address is the sender-side handle to a Mailbox. It is safe to share
// across however many event sources and other models hold a reference to
// the same target; all of them serialize through the one underlying
// Mailbox.
type Address[M any] struct {
	mb *Mailbox[M]
}

// Channel identifies this mailbox for the scheduler queue's co-temporal
// batching: two entries sharing a Channel are folded into one sequential
// task by internal/simulation, so every Address built over the same
// Mailbox must report the same value, which deriving it from the
// Mailbox's own address guarantees.
func (a *Address[M]) Channel() squeue.Channel {
	return squeue.Channel(uintptr(unsafe.Pointer(a.mb)))
}

// ErrClosed is returned by Send when the target mailbox has been closed.
type ErrClosed struct{}

func (ErrClosed) Error() string { return "mailbox: send on closed mailbox" }

// Send returns a Future that resolves once a accepted the action, or with
// ErrClosed if the mailbox is or becomes closed while the sender waits.
func (a *Address[M]) Send(action Action[M]) task.Future[error] {
	return task.Func[error](func(w *task.Waker) task.Poll[error] {
		ok, closed := a.mb.trySend(action)
		if ok {
			return task.Ready[error](nil)
		}
		if closed {
			return task.Ready[error](ErrClosed{})
		}
		a.mb.parkSender(w)
		return task.Pending[error]()
	})
}

// payloadSlot pools the small allocation each Send's captured closure
// state would otherwise need, following the same recycle-on-release shape
// the reference delivery connector uses for its per-send objects.
type payloadSlot[P any] struct {
	payload P
}

var payloadPools sync.Map // map[poolKey[P]]*sync.Pool, one pool per payload type

type poolKey[P any] struct{}

func poolFor[P any]() *sync.Pool {
	if p, ok := payloadPools.Load(poolKey[P]{}); ok {
		return p.(*sync.Pool)
	}
	p := &sync.Pool{New: func() any { return new(payloadSlot[P]) }}
	actual, _ := payloadPools.LoadOrStore(poolKey[P]{}, p)
	return actual.(*sync.Pool)
}

// SendValue builds an Action that calls apply(model, payload) and enqueues
// it, recycling the payload's backing slot through a sync.Pool keyed by P
// so repeated sends of the same payload type don't allocate a fresh
// closure environment every time.
func SendValue[M any, P any](a *Address[M], payload P, apply func(m *M, p P)) task.Future[error] {
	pool := poolFor[P]()
	slot := pool.Get().(*payloadSlot[P])
	slot.payload = payload

	action := Action[M](func(m *M) {
		apply(m, slot.payload)
		var zero P
		slot.payload = zero
		pool.Put(slot)
	})

	return a.Send(action)
}
