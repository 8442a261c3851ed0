package simulation

import (
	"sync"

	"github.com/nexosim/nexosim-go/internal/squeue"
)

// EventSource is a named entry point external callers use to inject an
// event into the simulation. Registered once per model input at build
// time, looked up by name afterward by both the embedded API and the wire
// control plane.
type EventSource interface {
	// Send checks that payload is of the concrete type this source expects
	// (it is not decoded here; see Decode) and delivers it to the model.
	Send(sim *Simulation, payload any) error

	// SendAsync enqueues delivery without blocking for completion and
	// without starting a new executor pass: used by scheduled wire/queue
	// deliveries, which already run from inside an active step.
	SendAsync(sim *Simulation, payload any)

	// Channel identifies the mailbox this source feeds, so a wire-scheduled
	// event (internal/rpc's ScheduleEvent) can be folded into the same
	// co-temporal batching as any other entry targeting that mailbox.
	Channel() squeue.Channel

	// Decode turns a wire-encoded payload (JSON, for this runtime's control
	// plane) into the value Send expects, so internal/rpc never needs to
	// know a source's concrete payload type.
	Decode(data []byte) (any, error)

	// TypeName names the payload type, for error messages only.
	TypeName() string
}

// QuerySource is the request/reply counterpart of EventSource.
type QuerySource interface {
	Send(sim *Simulation, payload any) (any, error)
	Decode(data []byte) (any, error)
	Encode(reply any) ([]byte, error)
	RequestTypeName() string
	ReplyTypeName() string
}

// EventSink collects model output for later retrieval (read_events in the
// wire protocol, or a direct Go-side subscriber via internal/sinkbus).
// Open/Close gate whether Push accumulates anything at all, matching the
// reference sink's "collection only happens while open" contract; Collect
// always returns (and clears) whatever has accumulated so far regardless
// of open/closed state.
type EventSink interface {
	Open()
	Close()
	IsOpen() bool
	Push(v any)
	Collect() ([][]byte, error)
	TypeName() string
}

// EndpointRegistry holds the three ordered name->endpoint maps a
// simulation is built with: event sources, query sources and sinks. Order
// is preserved (not just lookup) so that listing endpoints returns them in
// registration order.
type EndpointRegistry struct {
	mu sync.RWMutex

	sourceNames []string
	sources     map[string]EventSource

	queryNames []string
	queries    map[string]QuerySource

	sinkNames []string
	sinks     map[string]EventSink
}

func newEndpointRegistry() *EndpointRegistry {
	return &EndpointRegistry{
		sources: make(map[string]EventSource),
		queries: make(map[string]QuerySource),
		sinks:   make(map[string]EventSink),
	}
}

// AddEventSource registers src under name. Re-registering the same name
// replaces the prior entry in place, preserving its original position.
func (r *EndpointRegistry) AddEventSource(name string, src EventSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sources[name]; !exists {
		r.sourceNames = append(r.sourceNames, name)
	}
	r.sources[name] = src
}

// AddQuerySource registers src under name, same semantics as AddEventSource.
func (r *EndpointRegistry) AddQuerySource(name string, src QuerySource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.queries[name]; !exists {
		r.queryNames = append(r.queryNames, name)
	}
	r.queries[name] = src
}

// AddSink registers sink under name, same semantics as AddEventSource.
func (r *EndpointRegistry) AddSink(name string, sink EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sinks[name]; !exists {
		r.sinkNames = append(r.sinkNames, name)
	}
	r.sinks[name] = sink
}

// EventSource looks up a registered event source by name.
func (r *EndpointRegistry) EventSource(name string) (EventSource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[name]
	return s, ok
}

// QuerySource looks up a registered query source by name.
func (r *EndpointRegistry) QuerySource(name string) (QuerySource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.queries[name]
	return s, ok
}

// Sink looks up a registered sink by name.
func (r *EndpointRegistry) Sink(name string) (EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sinks[name]
	return s, ok
}

// EventSourceNames lists registered event source names in registration
// order.
func (r *EndpointRegistry) EventSourceNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.sourceNames...)
}

// QuerySourceNames lists registered query source names in registration
// order.
func (r *EndpointRegistry) QuerySourceNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.queryNames...)
}

// SinkNames lists registered sink names in registration order.
func (r *EndpointRegistry) SinkNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.sinkNames...)
}
