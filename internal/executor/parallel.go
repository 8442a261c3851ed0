package executor

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nexosim/nexosim-go/internal/task"
)

// Parallel is a work-stealing-flavored executor: every worker goroutine
// pulls from one shared ready queue, so a task woken from any worker lands
// back in front of whichever worker goes idle first rather than being
// pinned to the goroutine that spawned it. It exists for simulations whose
// models are independent enough to run concurrently. The driver in
// internal/simulation does not use it: simulations always run on
// SingleThreaded.
type Parallel struct {
	id      ExecutorID
	workers int

	mu     sync.Mutex
	active *activeSlab

	queue   chan task.Runnable
	pending sync.WaitGroup
}

// NewParallel builds a pool of n worker goroutines sharing one ready queue.
// n is clamped to at least 1.
func NewParallel(n int) *Parallel {
	if n < 1 {
		n = 1
	}
	return &Parallel{
		id:      allocExecutorID(),
		workers: n,
		active:  newActiveSlab(),
		queue:   make(chan task.Runnable, 64),
	}
}

// ID reports this pool's shared executor identity.
func (e *Parallel) ID() ExecutorID { return e.id }

func (e *Parallel) pushReady(r task.Runnable, id ExecutorID) {
	if id != e.id {
		panic(task.CrossExecutorWakeMessage(id, e.id))
	}
	e.pending.Add(1)
	e.queue <- r
}

func (e *Parallel) register(cancel *task.CancelToken) int {
	e.mu.Lock()
	idx := e.active.insert(cancel)
	e.mu.Unlock()
	return idx
}

func (e *Parallel) free(idx int) {
	e.mu.Lock()
	e.active.remove(idx)
	e.mu.Unlock()
}

// SpawnAndForget starts fut on the pool without retaining its output.
func (e *Parallel) SpawnAndForget(fut task.Future[struct{}]) *task.CancelToken {
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

	e.pending.Add(1)
	e.queue <- step
	return cancel
}

// ParallelSpawn starts fut on the pool and returns a Promise for its
// result. A free function, not a method, because Go methods can't carry
// their own type parameters.
func ParallelSpawn[T any](e *Parallel, fut task.Future[T]) (*task.Promise[T], *task.CancelToken) {
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

	e.pending.Add(1)
	e.queue <- step
	return promise, cancel
}

// Run starts the worker pool, lets it drain every runnable enqueued so far
// (plus anything those runnables wake along the way), and returns once the
// pool goes idle. Like SingleThreaded.Run, it is meant to be called once
// per simulation slice.
func (e *Parallel) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	stop := make(chan struct{})

	for i := 0; i < e.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case r := <-e.queue:
					r()
					e.pending.Done()
				case <-stop:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
	}

	go func() {
		e.pending.Wait()
		close(stop)
	}()

	return g.Wait()
}

// ActiveCount reports how many spawned tasks have not yet completed or
// been cancelled away.
func (e *Parallel) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.len()
}

// Shutdown cancels every still-active task. Workers already blocked on an
// empty queue exit the next time Run's internal Wait unblocks; Shutdown
// itself does not stop a Run in progress.
func (e *Parallel) Shutdown() {
	e.mu.Lock()
	e.active.cancelAll()
	e.mu.Unlock()
}
