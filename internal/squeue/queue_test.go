package squeue

import (
	"testing"

	"github.com/nexosim/nexosim-go/internal/stime"
)

func at(secs int64) stime.MonotonicTime { return stime.MonotonicTime{Secs: secs} }

func TestQueueOrdersByTimeThenInsertion(t *testing.T) {
	q := New()
	var order []string
	push := func(name string, secs int64) {
		q.Insert(Entry{Time: at(secs), Action: func(stime.MonotonicTime) { order = append(order, name) }})
	}

	push("b", 5)
	push("a", 1)
	push("c", 5) // same instant as "b", must come after it (insertion order)

	for {
		e, ok := q.Pull()
		if !ok {
			break
		}
		e.Action(e.Time)
	}

	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestPullIfDueRespectsUpperBound(t *testing.T) {
	q := New()
	q.Insert(Entry{Time: at(10)})

	if _, ok := q.PullIfDue(at(5)); ok {
		t.Fatalf("expected nothing due before the entry's time")
	}
	if _, ok := q.PullIfDue(at(10)); !ok {
		t.Fatalf("expected the entry to be due at exactly its time")
	}
}

func TestCancelByKeyRemovesPendingEntry(t *testing.T) {
	q := New()
	q.Insert(Entry{Time: at(1), Key: 99})
	q.Insert(Entry{Time: at(2), Key: 0})

	if n := q.CancelByKey(99); n != 1 {
		t.Fatalf("expected to cancel exactly one entry, got %d", n)
	}
	if q.Len() != 1 {
		t.Fatalf("expected one entry left, got %d", q.Len())
	}
	e, ok := q.Pull()
	if !ok || !e.Time.Equal(at(2)) {
		t.Fatalf("expected the remaining entry to be the uncancelled one")
	}
}
