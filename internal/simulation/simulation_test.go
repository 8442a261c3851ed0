package simulation

import (
	"testing"

	"github.com/nexosim/nexosim-go/internal/squeue"
	"github.com/nexosim/nexosim-go/internal/stime"
)

func newTestSimulation() *Simulation {
	return NewSimInit().Init(stime.Zero)
}

func TestCancelAfterFireReportsCancellationError(t *testing.T) {
	sim := newTestSimulation()

	fired := false
	key, err := sim.ScheduleAt(stime.MonotonicTime{Secs: 1}, squeue.Channel(1), func(stime.MonotonicTime) {
		fired = true
	})
	if err != nil {
		t.Fatalf("ScheduleAt: %v", err)
	}

	sim.StepUntil(stime.MonotonicTime{Secs: 1})
	if !fired {
		t.Fatalf("expected action to have fired")
	}

	if err := sim.Cancel(key); !errorsIsCancellation(err) {
		t.Fatalf("Cancel after fire: got %v, want CancellationError", err)
	}
}

func TestCancelBeforeFireSucceedsAndSuppressesAction(t *testing.T) {
	sim := newTestSimulation()

	fired := false
	key, err := sim.ScheduleAt(stime.MonotonicTime{Secs: 1}, squeue.Channel(1), func(stime.MonotonicTime) {
		fired = true
	})
	if err != nil {
		t.Fatalf("ScheduleAt: %v", err)
	}

	if err := sim.Cancel(key); err != nil {
		t.Fatalf("Cancel before fire: %v", err)
	}
	sim.StepUntil(stime.MonotonicTime{Secs: 1})
	if fired {
		t.Fatalf("expected cancelled action not to fire")
	}

	if err := sim.Cancel(key); !errorsIsCancellation(err) {
		t.Fatalf("second Cancel: got %v, want CancellationError", err)
	}
}

func TestScheduleAtDoesNotLeakKeyRegistrySlot(t *testing.T) {
	sim := newTestSimulation()

	for i := 0; i < 100; i++ {
		if _, err := sim.ScheduleAt(stime.MonotonicTime{Secs: 1}, squeue.Channel(1), func(stime.MonotonicTime) {}); err != nil {
			t.Fatalf("ScheduleAt: %v", err)
		}
	}
	sim.StepUntil(stime.MonotonicTime{Secs: 1})

	if n := sim.keys.Len(); n != 0 {
		t.Fatalf("expected every fired one-shot key to be reclaimed, got %d still occupied", n)
	}
}

func TestSchedulePeriodicKeySurvivesAcrossFirings(t *testing.T) {
	sim := newTestSimulation()

	count := 0
	key, err := sim.SchedulePeriodic(
		stime.MonotonicTime{Secs: 1},
		stime.Duration{Secs: 1},
		squeue.Channel(1),
		func(stime.MonotonicTime) { count++ },
	)
	if err != nil {
		t.Fatalf("SchedulePeriodic: %v", err)
	}

	sim.StepUntil(stime.MonotonicTime{Secs: 3})
	if count != 3 {
		t.Fatalf("expected 3 firings, got %d", count)
	}
	if sim.keys.Len() != 1 {
		t.Fatalf("expected the periodic key to remain live across firings")
	}

	if err := sim.Cancel(key); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	sim.StepUntil(stime.MonotonicTime{Secs: 5})
	if count != 3 {
		t.Fatalf("expected no further firings after cancel, got count=%d", count)
	}
}

func errorsIsCancellation(err error) bool {
	_, ok := err.(CancellationError)
	return ok
}
