package task

// Spawn wraps fut into a self-scheduling Runnable and returns a Promise for
// its output plus a CancelToken the owner can use to abort it. The returned
// Runnable performs exactly one poll step each time it runs; if the future
// is not ready it arranges, via schedule, to be polled again once its Waker
// fires.
func Spawn[T any](fut Future[T], schedule Schedule, id ExecutorID) (*Promise[T], Runnable, *CancelToken) {
	promise := NewPromise[T]()
	cancel := NewCancelToken()

	var step func()
	step = func() {
		if cancel.Cancelled() {
			return
		}
		w := NewWaker(id, schedule, step)
		p := fut.Poll(w)
		if p.Ready {
			promise.Resolve(p.Value)
		}
	}

	return promise, step, cancel
}

// SpawnAndForget is like Spawn but never produces a Promise, avoiding the
// reference-counting overhead of a result nobody reads.
func SpawnAndForget[T any](fut Future[T], schedule Schedule, id ExecutorID) (Runnable, *CancelToken) {
	cancel := NewCancelToken()

	var step func()
	step = func() {
		if cancel.Cancelled() {
			return
		}
		w := NewWaker(id, schedule, step)
		fut.Poll(w)
	}

	return step, cancel
}
