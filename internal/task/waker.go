package task

import "fmt"

// ExecutorID uniquely identifies an executor instance for the lifetime of
// the process. Every task inherits the ID of the executor it was spawned on,
// and a wake must re-enter that same executor (see Waker.Wake).
type ExecutorID uint64

// Runnable is a unit of work a scheduler callback pushes onto an executor's
// ready queue. It is invoked with no arguments and performs one poll step.
type Runnable func()

// Schedule pushes a Runnable onto the ready queue of the executor identified
// by id. Implementations must panic if id is not their own executor's ID
// (the cross-executor wake usage error); a wake from outside a Run loop is
// accepted and simply queues the task for the next Run.
type Schedule func(r Runnable, id ExecutorID)

// Waker lets a suspended task register interest in being re-polled. It
// carries the identity of the owning executor so that Wake can assert the
// wake protocol invariant instead of silently scheduling onto the wrong
// executor.
type Waker struct {
	executorID ExecutorID
	schedule   Schedule
	runnable   Runnable
}

// NewWaker builds a Waker bound to a specific executor and the Runnable that
// resumes the suspended task.
func NewWaker(id ExecutorID, schedule Schedule, runnable Runnable) *Waker {
	return &Waker{executorID: id, schedule: schedule, runnable: runnable}
}

// ExecutorID reports the executor this waker must re-enter.
func (w *Waker) ExecutorID() ExecutorID { return w.executorID }

// Wake re-schedules the associated task on its owning executor. Per the
// executor affinity invariant, schedule (normally the executor's pushReady)
// panics if the waker's executor ID is not its own.
func (w *Waker) Wake() {
	if w == nil {
		panic("task: Wake called on a nil Waker")
	}
	w.schedule(w.runnable, w.executorID)
}

// CrossExecutorWakeMessage formats the panic message used when a task is
// woken from an executor other than the one it was spawned on.
func CrossExecutorWakeMessage(spawnedOn, currentID ExecutorID) string {
	return fmt.Sprintf("task: wake targets executor %d but the current executor is %d; "+
		"tasks must be woken on the executor they were spawned on", spawnedOn, currentID)
}
