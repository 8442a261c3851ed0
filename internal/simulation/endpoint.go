package simulation

import (
	"encoding/json"
	"fmt"

	"github.com/nexosim/nexosim-go/internal/keyregistry"
	"github.com/nexosim/nexosim-go/internal/mailbox"
	"github.com/nexosim/nexosim-go/internal/squeue"
	"github.com/nexosim/nexosim-go/internal/stime"
)

type typedEventSource[M any, P any] struct {
	addr  *mailbox.Address[M]
	apply func(m *M, p P)
}

// NewEventSource adapts a mailbox address plus a model method into an
// EventSource the registry can hold behind its type-erased interface.
func NewEventSource[M any, P any](addr *mailbox.Address[M], apply func(m *M, p P)) EventSource {
	return typedEventSource[M, P]{addr: addr, apply: apply}
}

func (s typedEventSource[M, P]) Send(sim *Simulation, payload any) error {
	p, ok := payload.(P)
	if !ok {
		var zero P
		return fmt.Errorf("simulation: event source expected %T, got %T", zero, payload)
	}
	action := mailbox.Action[M](func(m *M) { s.apply(m, p) })
	return sim.deliver(s.addr.Send(action))
}

func (s typedEventSource[M, P]) SendAsync(sim *Simulation, payload any) {
	p, ok := payload.(P)
	if !ok {
		return
	}
	action := mailbox.Action[M](func(m *M) { s.apply(m, p) })
	sim.enqueueSend(s.addr.Send(action))
}

func (s typedEventSource[M, P]) Channel() squeue.Channel { return s.addr.Channel() }

func (s typedEventSource[M, P]) Decode(data []byte) (any, error) {
	var p P
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("simulation: decoding %T event: %w", p, err)
	}
	return p, nil
}

func (s typedEventSource[M, P]) TypeName() string {
	var zero P
	return fmt.Sprintf("%T", zero)
}

type typedQuerySource[M any, P any, R any] struct {
	addr  *mailbox.Address[M]
	apply func(m *M, p P) R
}

// NewQuerySource adapts a mailbox address plus a model method returning a
// reply into a QuerySource.
func NewQuerySource[M any, P any, R any](addr *mailbox.Address[M], apply func(m *M, p P) R) QuerySource {
	return typedQuerySource[M, P, R]{addr: addr, apply: apply}
}

func (s typedQuerySource[M, P, R]) Send(sim *Simulation, payload any) (any, error) {
	p, ok := payload.(P)
	if !ok {
		var zero P
		return nil, fmt.Errorf("simulation: query source expected %T, got %T", zero, payload)
	}
	var reply R
	action := mailbox.Action[M](func(m *M) { reply = s.apply(m, p) })
	if err := sim.deliver(s.addr.Send(action)); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s typedQuerySource[M, P, R]) Decode(data []byte) (any, error) {
	var p P
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("simulation: decoding %T query: %w", p, err)
	}
	return p, nil
}

func (s typedQuerySource[M, P, R]) Encode(reply any) ([]byte, error) {
	r, ok := reply.(R)
	if !ok {
		var zero R
		return nil, fmt.Errorf("simulation: query reply expected %T, got %T", zero, reply)
	}
	return json.Marshal(r)
}

func (s typedQuerySource[M, P, R]) RequestTypeName() string {
	var zero P
	return fmt.Sprintf("%T", zero)
}

func (s typedQuerySource[M, P, R]) ReplyTypeName() string {
	var zero R
	return fmt.Sprintf("%T", zero)
}

// ScheduleSourceEvent arranges for an already-registered, type-erased
// EventSource to receive payload at the given absolute instant — the
// EndpointRegistry-level counterpart of the typed ScheduleEvent below,
// used by internal/rpc's ScheduleEvent wire operation where the payload
// has already been decoded from its wire encoding but the caller only
// holds the EventSource interface, not the concrete mailbox.Address.
func ScheduleSourceEvent(sim *Simulation, at stime.MonotonicTime, source EventSource, payload any) (keyregistry.KeyID, error) {
	action := func(stime.MonotonicTime) {
		source.SendAsync(sim, payload)
	}
	return sim.ScheduleAt(at, source.Channel(), action)
}

// ScheduleSourcePeriodicEvent is ScheduleSourceEvent's periodic
// counterpart: payload is redelivered every period starting at first,
// using an eternal key the caller can still Cancel to stop future
// occurrences (§4.3, §8 scenario 5).
func ScheduleSourcePeriodicEvent(sim *Simulation, first stime.MonotonicTime, period stime.Duration, source EventSource, payload any) (keyregistry.KeyID, error) {
	return sim.SchedulePeriodic(first, period, source.Channel(), func(stime.MonotonicTime) {
		source.SendAsync(sim, payload)
	})
}

// ScheduleEvent arranges for apply(model, payload) to be delivered to addr
// at the given absolute instant, by enqueueing a mailbox send as the
// scheduler entry's deferred action. Unlike the synchronous entry points
// (EventSource.Send, SendQuery), a scheduled delivery never blocks the
// caller: if the target mailbox is full when the instant arrives, the send
// simply continues occupying the executor's ready queue, woken once the
// model's own task drains room for it, same as any other pending future.
func ScheduleEvent[M any, P any](sim *Simulation, at stime.MonotonicTime, addr *mailbox.Address[M], apply func(m *M, p P), payload P) (keyregistry.KeyID, error) {
	action := func(stime.MonotonicTime) {
		sim.enqueueSend(addr.Send(mailbox.Action[M](func(m *M) { apply(m, payload) })))
	}
	return sim.ScheduleAt(at, addr.Channel(), action)
}
