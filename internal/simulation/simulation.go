// Package simulation implements the discrete-event driver: the piece that
// repeatedly asks internal/squeue for the next due instant, folds whatever
// is due for the same mailbox into one sequential task, publishes that
// instant as the simulation clock, and only then hands everything due at
// it to internal/executor. Models never run concurrently with a clock
// change; they only ever run concurrently with each other.
package simulation

import (
	"errors"
	"fmt"

	"github.com/nexosim/nexosim-go/internal/executor"
	"github.com/nexosim/nexosim-go/internal/keyregistry"
	"github.com/nexosim/nexosim-go/internal/squeue"
	"github.com/nexosim/nexosim-go/internal/stime"
	"github.com/nexosim/nexosim-go/internal/task"
)

// Model is the marker interface every simulated component implements. It
// carries no methods of its own; models interact with the simulation
// exclusively through the mailboxes and addresses they're built with, so
// there is nothing this interface needs to require beyond a distinct type
// to parameterize mailbox.Mailbox[M] over.
type Model interface{}

// PastDeadlineError is returned by ScheduleIn/ScheduleAt when the
// requested instant is not strictly in the future of the simulation's
// current time.
type PastDeadlineError struct {
	Requested, Now stime.MonotonicTime
}

func (e PastDeadlineError) Error() string {
	return fmt.Sprintf("simulation: requested deadline %s is not after current time %s", e.Requested, e.Now)
}

// CancellationError is returned by Cancel when the key names a slot that
// has already fired or was already cancelled.
type CancellationError struct{}

func (CancellationError) Error() string { return "simulation: key already fired or cancelled" }

// QueryError is returned by SendQuery when no reply was produced, which
// happens when the query's action had not run by the time the executor
// went idle.
type QueryError struct{}

func (QueryError) Error() string { return "simulation: query produced no reply" }

// ErrPastDeadline is the sentinel callers can errors.Is against;
// PastDeadlineError implements Unwrap to it so both styles of check work.
var ErrPastDeadline = errors.New("simulation: past deadline")

func (e PastDeadlineError) Unwrap() error { return ErrPastDeadline }

// Simulation owns the executor, the scheduler queue, the key registry and
// the published clock. It is not safe for concurrent use by multiple
// goroutines except where a method's doc explicitly says otherwise (Time
// is safe; everything else expects a single driving goroutine, matching
// the reference simulation's ownership model).
type Simulation struct {
	exec     *executor.SingleThreaded
	queue    *squeue.Queue
	keys     *keyregistry.Registry
	timeCell *stime.SyncCell

	registry *EndpointRegistry
}

func newSimulation(exec *executor.SingleThreaded, start stime.MonotonicTime, reg *EndpointRegistry) *Simulation {
	return &Simulation{
		exec:     exec,
		queue:    squeue.New(),
		keys:     keyregistry.New(),
		timeCell: stime.NewSyncCell(start),
		registry: reg,
	}
}

// Time returns the simulation's current instant. Safe to call from any
// goroutine, including while a step is in progress on another.
func (s *Simulation) Time() stime.MonotonicTime {
	return s.timeCell.Load()
}

// Endpoints exposes the event/query sources and sinks registered at init
// time.
func (s *Simulation) Endpoints() *EndpointRegistry { return s.registry }

// QueueLen reports how many entries are currently pending in the
// scheduler queue, including ones not yet due. Diagnostic only — nothing
// in the driver itself consults this; it exists for external observers
// such as cmd/simtop's dashboard and deadlock-heuristic tooling (§4.2
// Observer, generalized from mailboxes to the scheduler queue itself).
func (s *Simulation) QueueLen() int { return s.queue.Len() }

// ActiveTasks reports how many tasks are still registered on the
// executor's active-task table, i.e. spawned but neither completed nor
// cancelled. Like QueueLen, purely diagnostic.
func (s *Simulation) ActiveTasks() int { return s.exec.ActiveCount() }

// Step advances to the next scheduled instant, if any, and runs everything
// due at it. It returns false if the queue was empty (nothing left to
// simulate).
func (s *Simulation) Step() bool {
	return s.stepToNextBounded(stime.MonotonicTime{Secs: 1<<63 - 1, Nanos: 999_999_999})
}

// StepBy advances by exactly d: every instant strictly within (now, now+d]
// is processed in order, then the clock is set to now+d even if nothing
// was scheduled in between.
func (s *Simulation) StepBy(d stime.Duration) {
	target := s.Time().Add(d)
	s.StepUntil(target)
}

// StepUntil advances until target, processing every due instant along the
// way, then sets the clock to exactly target. A target that is not after
// the current time leaves the simulation unchanged; no error is reported.
func (s *Simulation) StepUntil(target stime.MonotonicTime) {
	for s.stepToNextBounded(target) {
	}
	if s.Time().Before(target) {
		s.timeCell.Store(target)
	}
}

// stepToNextBounded processes one instant's worth of due entries (possibly
// spanning several channels) as long as that instant does not exceed
// upperBound. It reports whether it made progress.
func (s *Simulation) stepToNextBounded(upperBound stime.MonotonicTime) bool {
	first, ok := s.queue.PullIfDue(upperBound)
	if !ok {
		return false
	}
	now := first.Time
	s.timeCell.Store(now)

	groups := map[squeue.Channel]*task.SeqFuture{}
	order := []squeue.Channel{first.Channel}
	groups[first.Channel] = task.NewSeqFuture(actionFuture(first))

	for {
		e, ok := s.queue.PullIfDue(now)
		if !ok {
			break
		}
		g, seen := groups[e.Channel]
		if !seen {
			g = task.NewSeqFuture()
			groups[e.Channel] = g
			order = append(order, e.Channel)
		}
		g.Push(actionFuture(e))
	}

	for _, ch := range order {
		s.exec.SpawnAndForget(groups[ch])
	}
	s.exec.Run()

	return true
}

func actionFuture(e squeue.Entry) task.Future[struct{}] {
	return task.Func[struct{}](func(w *task.Waker) task.Poll[struct{}] {
		e.Action(e.Time)
		return task.Ready(struct{}{})
	})
}

// ScheduleAt arranges for action to run at the given absolute instant on
// channel ch, returning a KeyID the caller can later pass to Cancel. at
// must be strictly after the simulation's current time.
func (s *Simulation) ScheduleAt(at stime.MonotonicTime, ch squeue.Channel, action squeue.Action) (keyregistry.KeyID, error) {
	now := s.Time()
	if !at.After(now) {
		return keyregistry.KeyID{}, PastDeadlineError{Requested: at, Now: now}
	}
	s.gcExpiredKeys(now)

	key := s.keys.Insert(at)
	// A non-periodic key is destroyed the moment its action fires (§3
	// Lifecycles): extracting it here, rather than leaving the slot for
	// RemoveExpired to reclaim later, is what makes a post-fire Cancel()
	// correctly report CancellationError instead of a false success, and
	// what stops every one-shot schedule from leaking a registry slot for
	// the remaining life of the simulation.
	wrapped := squeue.Action(func(t stime.MonotonicTime) {
		s.keys.Extract(key)
		action(t)
	})
	s.queue.Insert(squeue.Entry{Time: at, Channel: ch, Action: wrapped, Key: key.Raw()})
	return key, nil
}

// ScheduleIn is ScheduleAt relative to the current time.
func (s *Simulation) ScheduleIn(d stime.Duration, ch squeue.Channel, action squeue.Action) (keyregistry.KeyID, error) {
	return s.ScheduleAt(s.Time().Add(d), ch, action)
}

// SchedulePeriodic arranges for action to run every period starting at
// first, rescheduling itself after each run. Cancel stops future
// occurrences but never undoes ones that already ran.
func (s *Simulation) SchedulePeriodic(first stime.MonotonicTime, period stime.Duration, ch squeue.Channel, action squeue.Action) (keyregistry.KeyID, error) {
	now := s.Time()
	if !first.After(now) {
		return keyregistry.KeyID{}, PastDeadlineError{Requested: first, Now: now}
	}
	key := s.keys.InsertEternal()

	var wrapped squeue.Action
	wrapped = func(at stime.MonotonicTime) {
		if !s.keys.Contains(key) {
			return
		}
		action(at)
		s.queue.Insert(squeue.Entry{Time: at.Add(period), Channel: ch, Action: wrapped, Key: key.Raw()})
	}
	s.queue.Insert(squeue.Entry{Time: first, Channel: ch, Action: wrapped, Key: key.Raw()})
	return key, nil
}

// Cancel removes a previously scheduled action before it fires. It
// reports CancellationError if the key has already fired or was already
// cancelled.
func (s *Simulation) Cancel(key keyregistry.KeyID) error {
	s.gcExpiredKeys(s.Time())

	if _, ok := s.keys.Extract(key); !ok {
		return CancellationError{}
	}
	s.queue.CancelByKey(key.Raw())
	return nil
}

// gcExpiredKeys reclaims registry slots for one-shot keys whose deadline
// has already passed. In the common case ScheduleAt's own wrapped action
// already extracted the key the instant it fired, so this rarely finds
// anything; it exists as the lazy GC §4.3 calls for at schedule/cancel
// sites, a backstop for any bounded key that outlives its deadline without
// going through that path. Eternal keys (deadline nil, used by
// SchedulePeriodic) are never touched here — they live until Cancel.
func (s *Simulation) gcExpiredKeys(now stime.MonotonicTime) {
	s.keys.RemoveExpired(
		func(deadline any) bool {
			at, ok := deadline.(stime.MonotonicTime)
			return ok && !at.After(now)
		},
		func(key keyregistry.KeyID, _ any) {
			s.queue.CancelByKey(key.Raw())
		},
	)
}

// SendEvent runs action against the model reachable at ch immediately
// (i.e. at the current time, outside the scheduler queue), blocking the
// calling goroutine until it completes. This is how the embedded API and
// the wire control plane inject external events between steps.
func (s *Simulation) SendEvent(ch squeue.Channel, action squeue.Action) {
	s.exec.SpawnAndForget(actionFuture(squeue.Entry{Time: s.Time(), Channel: ch, Action: action}))
	s.exec.Run()
}

// SendQuery runs ask synchronously at the current time and returns
// whatever it writes into its reply parameter. Because the single-threaded
// executor drains every spawned task to completion before Run returns,
// there is no need for ask's result to travel back through a Promise: by
// the time SendQuery returns, the closure has already run exactly once.
func SendQuery[T any](s *Simulation, ch squeue.Channel, ask func() T) (T, error) {
	var (
		reply T
		ran   bool
	)
	s.SendEvent(ch, func(stime.MonotonicTime) {
		reply = ask()
		ran = true
	})
	if !ran {
		return reply, QueryError{}
	}
	return reply, nil
}

// deliver drives an error-returning future (typically a mailbox.Address
// Send) to completion and reports its result. It is a top-level entry
// point: callers must not be running inside an active exec.Run() already,
// since it starts one of its own.
func (s *Simulation) deliver(fut task.Future[error]) error {
	var result error
	wrapped := task.Func[struct{}](func(w *task.Waker) task.Poll[struct{}] {
		p := fut.Poll(w)
		if !p.Ready {
			return task.Pending[struct{}]()
		}
		result = p.Value
		return task.Ready(struct{}{})
	})
	s.exec.SpawnAndForget(wrapped)
	s.exec.Run()
	return result
}

// enqueueSend schedules an error-returning future without starting a new
// Run pass. Scheduler-queue actions use this: they already execute from
// inside stepToNextBounded's single exec.Run() call, so spawning is enough
// to guarantee the send eventually drains; calling Run again here would
// panic on the single-threaded executor's reentrancy guard.
func (s *Simulation) enqueueSend(fut task.Future[error]) {
	wrapped := task.Func[struct{}](func(w *task.Waker) task.Poll[struct{}] {
		p := fut.Poll(w)
		if !p.Ready {
			return task.Pending[struct{}]()
		}
		return task.Ready(struct{}{})
	})
	s.exec.SpawnAndForget(wrapped)
}
