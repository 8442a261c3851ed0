package task

import "testing"

func TestPromiseResolveWakesPoller(t *testing.T) {
	p := NewPromise[int]()

	var woken bool
	w := NewWaker(1, func(r Runnable, id ExecutorID) { woken = true; r() }, func() {})

	if poll := p.Poll(w); poll.Ready {
		t.Fatalf("expected promise to be pending before resolve")
	}
	if woken {
		t.Fatalf("waker fired before resolve")
	}

	p.Resolve(42)
	if !woken {
		t.Fatalf("expected resolve to wake the registered poller")
	}

	poll := p.Poll(nil)
	if !poll.Ready || poll.Value != 42 {
		t.Fatalf("expected Ready(42), got %+v", poll)
	}
}

func TestPromiseResolveOnlyOnce(t *testing.T) {
	p := NewPromise[int]()
	p.Resolve(1)
	p.Resolve(2)

	v, ok := p.TryGet()
	if !ok || v != 1 {
		t.Fatalf("expected first resolve to stick, got v=%d ok=%v", v, ok)
	}
}

func TestSeqFutureOrdersSteps(t *testing.T) {
	var order []int
	step := func(n int) Func[struct{}] {
		return func(*Waker) Poll[struct{}] {
			order = append(order, n)
			return Ready(struct{}{})
		}
	}

	seq := NewSeqFuture(step(1), step(2), step(3))
	for {
		if p := seq.Poll(nil); p.Ready {
			break
		}
	}

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("expected steps to run in order, got %v", order)
	}
}

func TestSeqFuturePendingStepBlocksLater(t *testing.T) {
	ready := false
	var ran []int
	blocker := Func[struct{}](func(*Waker) Poll[struct{}] {
		if !ready {
			return Pending[struct{}]()
		}
		ran = append(ran, 1)
		return Ready(struct{}{})
	})
	second := Func[struct{}](func(*Waker) Poll[struct{}] {
		ran = append(ran, 2)
		return Ready(struct{}{})
	})

	seq := NewSeqFuture(blocker, second)
	if p := seq.Poll(nil); p.Ready {
		t.Fatalf("expected sequence to be pending while first step blocks")
	}
	if len(ran) != 0 {
		t.Fatalf("second step must not run before the first completes, ran=%v", ran)
	}

	ready = true
	for {
		if p := seq.Poll(nil); p.Ready {
			break
		}
	}
	if len(ran) != 2 || ran[0] != 1 || ran[1] != 2 {
		t.Fatalf("expected [1 2], got %v", ran)
	}
}

func TestCancelTokenIdempotent(t *testing.T) {
	c := NewCancelToken()
	if c.Cancelled() {
		t.Fatalf("fresh token must not be cancelled")
	}
	c.Cancel()
	c.Cancel()
	if !c.Cancelled() {
		t.Fatalf("expected token to be cancelled")
	}
}
