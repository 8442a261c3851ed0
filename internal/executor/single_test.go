package executor

import (
	"testing"

	"github.com/nexosim/nexosim-go/internal/task"
)

func TestSingleThreadedSpawnAndForgetRuns(t *testing.T) {
	e := NewSingleThreaded()
	ran := false
	e.SpawnAndForget(task.Func[struct{}](func(*task.Waker) task.Poll[struct{}] {
		ran = true
		return task.Ready(struct{}{})
	}))
	e.Run()
	if !ran {
		t.Fatalf("expected spawned task to run during Run")
	}
	if n := e.ActiveCount(); n != 0 {
		t.Fatalf("expected no active tasks after completion, got %d", n)
	}
}

func TestSingleThreadedSpawnResolvesPromise(t *testing.T) {
	e := NewSingleThreaded()
	promise, _ := SpawnValue[int](e, task.FromValue(7))
	e.Run()

	v, ok := promise.TryGet()
	if !ok || v != 7 {
		t.Fatalf("expected resolved promise with 7, got v=%d ok=%v", v, ok)
	}
}

func TestSingleThreadedWakeResumesPendingTask(t *testing.T) {
	e := NewSingleThreaded()
	var waker *task.Waker
	polls := 0

	fut := task.Func[struct{}](func(w *task.Waker) task.Poll[struct{}] {
		polls++
		if polls == 1 {
			waker = w
			return task.Pending[struct{}]()
		}
		return task.Ready(struct{}{})
	})

	e.SpawnAndForget(fut)
	e.Run()
	if polls != 1 {
		t.Fatalf("expected exactly one poll before the task parks, got %d", polls)
	}
	if e.ActiveCount() != 1 {
		t.Fatalf("expected task to remain active while parked")
	}

	waker.Wake()
	e.Run()
	if polls != 2 {
		t.Fatalf("expected wake to trigger a second poll, got %d", polls)
	}
	if e.ActiveCount() != 0 {
		t.Fatalf("expected task to be freed after completing")
	}
}

func TestSingleThreadedCancelStopsRescheduling(t *testing.T) {
	e := NewSingleThreaded()
	polls := 0
	var waker *task.Waker

	fut := task.Func[struct{}](func(w *task.Waker) task.Poll[struct{}] {
		polls++
		waker = w
		return task.Pending[struct{}]()
	})

	_, cancel := SpawnValue[struct{}](e, fut)
	e.Run()
	if polls != 1 {
		t.Fatalf("expected one poll, got %d", polls)
	}

	cancel.Cancel()
	waker.Wake()
	e.Run()
	if polls != 1 {
		t.Fatalf("expected cancelled task not to be polled again, got %d polls", polls)
	}
	if e.ActiveCount() != 0 {
		t.Fatalf("expected cancelled task's slot to be freed")
	}
}

func TestSingleThreadedCrossExecutorWakePanics(t *testing.T) {
	a := NewSingleThreaded()
	b := NewSingleThreaded()

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected cross-executor wake to panic")
		}
	}()

	// Simulate a waker built for executor a's id being woken on b.
	b.pushReady(func() {}, a.ID())
}
