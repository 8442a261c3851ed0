package executor

import (
	"sync"

	"github.com/nexosim/nexosim-go/internal/task"
)

// SingleThreaded runs every spawned task on the calling goroutine, matching
// the reference simulation's default executor: there is no work to steal
// and no cross-goroutine scheduling, so a plain FIFO ready queue behind a
// mutex is enough. The mutex exists only to let Spawn/Wake be called
// reentrantly from within a poll step; actual polling is always sequential.
type SingleThreaded struct {
	id ExecutorID

	mu      sync.Mutex
	ready   []task.Runnable
	active  *activeSlab
	running bool
}

// ExecutorID is an alias kept local to this package so callers don't need
// to import internal/task just to name the type.
type ExecutorID = task.ExecutorID

// NewSingleThreaded constructs an idle executor with a freshly allocated
// identity.
func NewSingleThreaded() *SingleThreaded {
	return &SingleThreaded{
		id:     allocExecutorID(),
		active: newActiveSlab(),
	}
}

// ID reports this executor's identity. Tasks spawned here carry it and a
// Waker built from Spawn will only ever reschedule onto this executor.
func (e *SingleThreaded) ID() ExecutorID { return e.id }

// pushReady is the Schedule callback handed to every task.Waker created for
// this executor. It asserts the wake protocol invariant: a task may only be
// woken back onto the executor it was spawned on.
func (e *SingleThreaded) pushReady(r task.Runnable, id ExecutorID) {
	if id != e.id {
		panic(task.CrossExecutorWakeMessage(id, e.id))
	}
	e.mu.Lock()
	e.ready = append(e.ready, r)
	e.mu.Unlock()
}

// Spawn starts fut running on this executor and returns a Promise for its
// eventual output plus a CancelToken the caller can use to abort it before
// completion.
func (e *SingleThreaded) Spawn(fut task.Future[struct{}]) (*task.Promise[struct{}], *task.CancelToken) {
	return SpawnValue(e, fut)
}

// SpawnValue is the generic counterpart of Spawn for futures producing a
// non-empty result (queries, mostly).
func SpawnValue[T any](e *SingleThreaded, fut task.Future[T]) (*task.Promise[T], *task.CancelToken) {
	promise := task.NewPromise[T]()
	cancel := task.NewCancelToken()
	idx := e.register(cancel)

	var step func()
	step = func() {
		if cancel.Cancelled() {
			e.free(idx)
			return
		}
		w := task.NewWaker(e.id, e.pushReady, step)
		p := fut.Poll(w)
		if p.Ready {
			e.free(idx)
			promise.Resolve(p.Value)
		}
	}

	e.enqueueInitial(step)
	return promise, cancel
}

// SpawnAndForget starts fut running without retaining its result, matching
// the reference executor's fire-and-forget task handle.
func (e *SingleThreaded) SpawnAndForget(fut task.Future[struct{}]) *task.CancelToken {
	cancel := task.NewCancelToken()
	idx := e.register(cancel)

	var step func()
	step = func() {
		if cancel.Cancelled() {
			e.free(idx)
			return
		}
		w := task.NewWaker(e.id, e.pushReady, step)
		if fut.Poll(w).Ready {
			e.free(idx)
		}
	}

	e.enqueueInitial(step)
	return cancel
}

func (e *SingleThreaded) register(cancel *task.CancelToken) int {
	e.mu.Lock()
	idx := e.active.insert(cancel)
	e.mu.Unlock()
	return idx
}

func (e *SingleThreaded) free(idx int) {
	e.mu.Lock()
	e.active.remove(idx)
	e.mu.Unlock()
}

func (e *SingleThreaded) enqueueInitial(r task.Runnable) {
	e.mu.Lock()
	e.ready = append(e.ready, r)
	e.mu.Unlock()
}

// Run drains the ready queue, polling every runnable until none remain. It
// returns once the executor has gone idle; callers (typically the
// simulation driver) call Run again after pushing new scheduler entries
// onto it.
func (e *SingleThreaded) Run() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		panic("executor: Run called reentrantly on the same SingleThreaded executor")
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	for {
		e.mu.Lock()
		if len(e.ready) == 0 {
			e.mu.Unlock()
			return
		}
		r := e.ready[0]
		e.ready = e.ready[1:]
		e.mu.Unlock()

		r()
	}
}

// ActiveCount reports how many spawned tasks have not yet completed or
// been cancelled away. Exposed mainly for tests asserting no task leaks
// across a step.
func (e *SingleThreaded) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.len()
}

// Shutdown cancels every still-active task and drops the ready queue. The
// sequencing matters: tokens are cancelled first so no in-flight wake can
// repopulate the ready queue after it's been cleared.
func (e *SingleThreaded) Shutdown() {
	e.mu.Lock()
	e.active.cancelAll()
	e.ready = nil
	e.mu.Unlock()
}
