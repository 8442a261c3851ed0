package executor

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/nexosim/nexosim-go/internal/task"
)

func TestParallelSpawnAndForgetRuns(t *testing.T) {
	e := NewParallel(4)
	var ran int32
	e.SpawnAndForget(task.Func[struct{}](func(*task.Waker) task.Poll[struct{}] {
		atomic.AddInt32(&ran, 1)
		return task.Ready(struct{}{})
	}))
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if atomic.LoadInt32(&ran) != 1 {
		t.Fatalf("expected spawned task to run exactly once, got %d", ran)
	}
	if n := e.ActiveCount(); n != 0 {
		t.Fatalf("expected no active tasks after completion, got %d", n)
	}
}

func TestParallelSpawnResolvesPromise(t *testing.T) {
	e := NewParallel(2)
	promise, _ := ParallelSpawn[int](e, task.FromValue(42))
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	v, ok := promise.TryGet()
	if !ok || v != 42 {
		t.Fatalf("expected resolved promise with 42, got v=%d ok=%v", v, ok)
	}
}

func TestParallelManyTasksAllComplete(t *testing.T) {
	e := NewParallel(4)
	const n = 64
	var completed int32
	for i := 0; i < n; i++ {
		e.SpawnAndForget(task.Func[struct{}](func(*task.Waker) task.Poll[struct{}] {
			atomic.AddInt32(&completed, 1)
			return task.Ready(struct{}{})
		}))
	}
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if atomic.LoadInt32(&completed) != n {
		t.Fatalf("expected %d completions, got %d", n, completed)
	}
}
