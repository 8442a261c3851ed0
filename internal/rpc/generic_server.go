package rpc

import (
	"github.com/nexosim/nexosim-go/internal/keyregistry"
	"github.com/nexosim/nexosim-go/internal/registry"
	"github.com/nexosim/nexosim-go/internal/simulation"
	"github.com/nexosim/nexosim-go/internal/stime"
)

// SimGen builds a fresh, not-yet-started simulation. GenericServer calls
// it exactly once per InitRequest; InitRequest on an already-initialized
// server discards the previous simulation and starts another (mirrors
// generic_server.rs's `init`, which documents the same replace-in-place
// behavior).
type SimGen func() *simulation.SimInit

// GenericServer is the transport-independent implementation of the wire
// protocol: it holds at most one live Simulation and turns decoded
// AnyRequest values into AnyReply values. It is grounded 1:1 on
// asynchronix::rpc::generic_server::GenericServer, adapted from Rust's
// encoded-bytes-in/bytes-out ServiceRequest to an already-decoded
// AnyRequest/AnyReply pair: since this runtime does not ship generated
// protobuf service code (the spec treats the wire façade as a sketch),
// the bytes<->envelope step lives in each transport instead of here.
//
// Not safe for concurrent use: callers (the gRPC and websocket
// transports) must serialize access the same way the driver itself
// expects a single owning goroutine.
type GenericServer struct {
	simGen SimGen
	sim    *simulation.Simulation

	// sources caches the event-source lookups ScheduleEvent/ProcessEvent
	// make on every call behind an LRU, rebuilt fresh on each Init since a
	// new simulation means an entirely new EndpointRegistry to front.
	sources *registry.CachedEndpoints
}

// NewGenericServer returns a server with no active simulation; the first
// InitRequest creates one via simGen.
func NewGenericServer(simGen SimGen) *GenericServer {
	return &GenericServer{simGen: simGen}
}

// ServiceRequest dispatches req to the matching handler and returns its
// reply, exactly mirroring the one-arm-per-oneof-variant match in
// generic_server.rs's service_request, plus the EmptyRequest/
// UnknownRequest cases a transport surfaces when decoding itself fails
// (a transport calls ServiceRequest only once it already has a non-nil
// AnyRequest, so those two codes are usually produced by the transport,
// not here — ServiceRequest still handles a wholly-empty envelope for
// completeness).
func (s *GenericServer) ServiceRequest(req *AnyRequest) *AnyReply {
	switch {
	case req == nil:
		return &AnyReply{Err: errf(ErrorCodeEmptyRequest, "the message did not contain any request")}
	case req.Init != nil:
		return &AnyReply{Init: s.Init(req.Init)}
	case req.Time != nil:
		return &AnyReply{Time: s.Time(req.Time)}
	case req.Step != nil:
		return &AnyReply{Step: s.Step(req.Step)}
	case req.StepUntil != nil:
		return &AnyReply{StepUntil: s.StepUntil(req.StepUntil)}
	case req.ScheduleEvent != nil:
		return &AnyReply{ScheduleEvent: s.ScheduleEvent(req.ScheduleEvent)}
	case req.CancelEvent != nil:
		return &AnyReply{CancelEvent: s.CancelEvent(req.CancelEvent)}
	case req.ProcessEvent != nil:
		return &AnyReply{ProcessEvent: s.ProcessEvent(req.ProcessEvent)}
	case req.ProcessQuery != nil:
		return &AnyReply{ProcessQuery: s.ProcessQuery(req.ProcessQuery)}
	case req.ReadEvents != nil:
		return &AnyReply{ReadEvents: s.ReadEvents(req.ReadEvents)}
	case req.OpenSink != nil:
		return &AnyReply{OpenSink: s.OpenSink(req.OpenSink)}
	case req.CloseSink != nil:
		return &AnyReply{CloseSink: s.CloseSink(req.CloseSink)}
	default:
		return &AnyReply{Err: errf(ErrorCodeEmptyRequest, "the message did not contain any request")}
	}
}

// Init starts a new simulation at the given time (or the epoch if Time is
// nil), replacing any simulation already running.
func (s *GenericServer) Init(req *InitRequest) *InitReply {
	start, ok := timestampToMonotonic(req.Time)
	if !ok {
		return &InitReply{Err: errf(ErrorCodeInvalidTime, "out-of-range nanosecond field")}
	}
	s.sim = s.simGen().Init(start)
	s.sources = registry.New(s.sim.Endpoints(), len(s.sim.Endpoints().EventSourceNames()))
	return &InitReply{}
}

// Ready reports whether Init has produced a live simulation yet, used by
// internal/httpapi's readiness probe.
func (s *GenericServer) Ready() bool {
	return s.sim != nil
}

// Simulation exposes the live *simulation.Simulation, or nil before the
// first Init, for callers that need more than the registry (internal/
// sinkbus's ingest handlers deliver directly into it).
func (s *GenericServer) Simulation() *simulation.Simulation {
	return s.sim
}

// Registry exposes the live simulation's endpoint registry, or nil before
// the first Init, so other transports (internal/httpapi's debug sink
// dump) can read sinks without duplicating GenericServer's request
// dispatch.
func (s *GenericServer) Registry() *simulation.EndpointRegistry {
	if s.sim == nil {
		return nil
	}
	return s.sim.Endpoints()
}

// Sink looks up a sink by name on the live registry, satisfying
// internal/httpapi's Registry interface directly so that package never
// needs to know about GenericServer's request-dispatch role.
func (s *GenericServer) Sink(name string) (simulation.EventSink, bool) {
	reg := s.Registry()
	if reg == nil {
		return nil, false
	}
	return reg.Sink(name)
}

// Time returns the current simulation time.
func (s *GenericServer) Time(_ *TimeRequest) *TimeReply {
	if s.sim == nil {
		return &TimeReply{Err: errf(ErrorCodeSimulationNotStarted, "the simulation was not started")}
	}
	ts, ok := monotonicToTimestamp(s.sim.Time())
	if !ok {
		return &TimeReply{Err: errf(ErrorCodeSimulationTimeOutOfRange, "the final simulation time is out of range")}
	}
	return &TimeReply{Time: ts}
}

// Step advances to the next scheduled instant and processes it.
func (s *GenericServer) Step(_ *StepRequest) *StepReply {
	if s.sim == nil {
		return &StepReply{Err: errf(ErrorCodeSimulationNotStarted, "the simulation was not started")}
	}
	s.sim.Step()
	ts, ok := monotonicToTimestamp(s.sim.Time())
	if !ok {
		return &StepReply{Err: errf(ErrorCodeSimulationTimeOutOfRange, "the final simulation time is out of range")}
	}
	return &StepReply{Time: ts}
}

// StepUntil advances to an absolute time or by a relative duration.
func (s *GenericServer) StepUntil(req *StepUntilRequest) *StepUntilReply {
	if s.sim == nil {
		return &StepUntilReply{Err: errf(ErrorCodeSimulationNotStarted, "the simulation was not started")}
	}
	switch {
	case req.Time != nil:
		target, ok := timestampToMonotonic(req.Time)
		if !ok {
			return &StepUntilReply{Err: errf(ErrorCodeInvalidTime, "out-of-range nanosecond field")}
		}
		if !target.After(s.sim.Time()) {
			return &StepUntilReply{Err: errf(ErrorCodeInvalidTime, "the specified deadline lies in the past")}
		}
		s.sim.StepUntil(target)
	case req.Duration != nil:
		d, ok := toPositiveDuration(req.Duration)
		if !ok {
			return &StepUntilReply{Err: errf(ErrorCodeInvalidDuration, "the specified deadline lies in the past")}
		}
		s.sim.StepBy(d)
	default:
		return &StepUntilReply{Err: errf(ErrorCodeMissingArgument, "missing deadline argument")}
	}
	ts, ok := monotonicToTimestamp(s.sim.Time())
	if !ok {
		return &StepUntilReply{Err: errf(ErrorCodeSimulationTimeOutOfRange, "the final simulation time is out of range")}
	}
	return &StepUntilReply{Time: ts}
}

// ScheduleEvent schedules a (possibly periodic, possibly keyed) event
// against a named event source.
func (s *GenericServer) ScheduleEvent(req *ScheduleEventRequest) *ScheduleEventReply {
	if s.sim == nil {
		return &ScheduleEventReply{Err: errf(ErrorCodeSimulationNotStarted, "the simulation was not started")}
	}

	var (
		period    stime.Duration
		hasPeriod bool
	)
	if req.Period != nil {
		d, ok := toStrictlyPositiveDuration(req.Period)
		if !ok {
			return &ScheduleEventReply{Err: errf(ErrorCodeInvalidDuration, "the specified event period is not strictly positive")}
		}
		period, hasPeriod = d, true
	}

	var deadline stime.MonotonicTime
	switch {
	case req.Time != nil:
		t, ok := timestampToMonotonic(req.Time)
		if !ok {
			return &ScheduleEventReply{Err: errf(ErrorCodeInvalidTime, "out-of-range nanosecond field")}
		}
		deadline = t
	case req.Duration != nil:
		d, ok := toStrictlyPositiveDuration(req.Duration)
		if !ok {
			return &ScheduleEventReply{Err: errf(ErrorCodeInvalidDuration, "the specified scheduling deadline is not in the future")}
		}
		deadline = s.sim.Time().Add(d)
	default:
		return &ScheduleEventReply{Err: errf(ErrorCodeMissingArgument, "missing deadline argument")}
	}

	source, ok := s.sources.EventSource(req.SourceName)
	if !ok {
		return &ScheduleEventReply{Err: errf(ErrorCodeSourceNotFound, "no event source is registered with the name %q", req.SourceName)}
	}
	payload, err := source.Decode(req.Event)
	if err != nil {
		return &ScheduleEventReply{Err: errf(ErrorCodeInvalidMessage, "the event could not be deserialized as type %q", source.TypeName())}
	}

	var (
		key    keyregistry.KeyID
		schErr error
	)
	if hasPeriod {
		key, schErr = simulation.ScheduleSourcePeriodicEvent(s.sim, deadline, period, source, payload)
	} else {
		key, schErr = simulation.ScheduleSourceEvent(s.sim, deadline, source, payload)
	}
	if schErr != nil {
		return &ScheduleEventReply{Err: errf(ErrorCodeInvalidTime, "%s", schErr)}
	}

	if !req.WithKey {
		return &ScheduleEventReply{}
	}
	return &ScheduleEventReply{Key: &EventKey{Subkey1: uint64(key.Index), Subkey2: uint64(key.Generation)}}
}

// CancelEvent cancels a previously scheduled keyed event.
func (s *GenericServer) CancelEvent(req *CancelEventRequest) *CancelEventReply {
	if s.sim == nil {
		return &CancelEventReply{Err: errf(ErrorCodeSimulationNotStarted, "the simulation was not started")}
	}
	if req.Key == nil {
		return &CancelEventReply{Err: errf(ErrorCodeMissingArgument, "missing key argument")}
	}
	key := keyregistry.KeyID{Index: uint32(req.Key.Subkey1), Generation: uint32(req.Key.Subkey2)}
	if err := s.sim.Cancel(key); err != nil {
		return &CancelEventReply{Err: errf(ErrorCodeInvalidKey, "invalid or expired event key")}
	}
	return &CancelEventReply{}
}

// ProcessEvent delivers an event to a named source immediately, blocking
// until the model has applied it. Simulation time does not advance.
func (s *GenericServer) ProcessEvent(req *ProcessEventRequest) *ProcessEventReply {
	if s.sim == nil {
		return &ProcessEventReply{Err: errf(ErrorCodeSimulationNotStarted, "the simulation was not started")}
	}
	source, ok := s.sources.EventSource(req.SourceName)
	if !ok {
		return &ProcessEventReply{Err: errf(ErrorCodeSourceNotFound, "no source is registered with the name %q", req.SourceName)}
	}
	payload, err := source.Decode(req.Event)
	if err != nil {
		return &ProcessEventReply{Err: errf(ErrorCodeInvalidMessage, "the event could not be deserialized as type %q", source.TypeName())}
	}
	if err := source.Send(s.sim, payload); err != nil {
		return &ProcessEventReply{Err: errf(ErrorCodeInternalError, "%s", err)}
	}
	return &ProcessEventReply{}
}

// ProcessQuery delivers a request to a named query source immediately and
// returns its encoded reply. Simulation time does not advance.
func (s *GenericServer) ProcessQuery(req *ProcessQueryRequest) *ProcessQueryReply {
	if s.sim == nil {
		return &ProcessQueryReply{Err: errf(ErrorCodeSimulationNotStarted, "the simulation was not started")}
	}
	source, ok := s.sim.Endpoints().QuerySource(req.SourceName)
	if !ok {
		return &ProcessQueryReply{Err: errf(ErrorCodeSourceNotFound, "no source is registered with the name %q", req.SourceName)}
	}
	payload, err := source.Decode(req.Request)
	if err != nil {
		return &ProcessQueryReply{Err: errf(ErrorCodeInvalidMessage, "the request could not be deserialized as type %q", source.RequestTypeName())}
	}
	reply, err := source.Send(s.sim, payload)
	if err != nil {
		return &ProcessQueryReply{Err: errf(ErrorCodeInternalError, "%s", err)}
	}
	encoded, err := source.Encode(reply)
	if err != nil {
		return &ProcessQueryReply{Err: errf(ErrorCodeInvalidMessage, "the reply could not be serialized as type %q", source.ReplyTypeName())}
	}
	return &ProcessQueryReply{Replies: [][]byte{encoded}}
}

// ReadEvents drains a named sink's accumulated, encoded events.
func (s *GenericServer) ReadEvents(req *ReadEventsRequest) *ReadEventsReply {
	if s.sim == nil {
		return &ReadEventsReply{Err: errf(ErrorCodeSimulationNotStarted, "the simulation was not started")}
	}
	sink, ok := s.sim.Endpoints().Sink(req.SinkName)
	if !ok {
		return &ReadEventsReply{Err: errf(ErrorCodeSinkNotFound, "no sink is registered with the name %q", req.SinkName)}
	}
	events, err := sink.Collect()
	if err != nil {
		return &ReadEventsReply{Err: errf(ErrorCodeInvalidMessage, "the event could not be serialized from type %q", sink.TypeName())}
	}
	return &ReadEventsReply{Events: events}
}

// OpenSink opens a named sink so it starts accumulating events.
func (s *GenericServer) OpenSink(req *OpenSinkRequest) *OpenSinkReply {
	if s.sim == nil {
		return &OpenSinkReply{Err: errf(ErrorCodeSimulationNotStarted, "the simulation was not started")}
	}
	sink, ok := s.sim.Endpoints().Sink(req.SinkName)
	if !ok {
		return &OpenSinkReply{Err: errf(ErrorCodeSinkNotFound, "no sink is registered with the name %q", req.SinkName)}
	}
	sink.Open()
	return &OpenSinkReply{}
}

// CloseSink closes a named sink so it stops accumulating events.
func (s *GenericServer) CloseSink(req *CloseSinkRequest) *CloseSinkReply {
	if s.sim == nil {
		return &CloseSinkReply{Err: errf(ErrorCodeSimulationNotStarted, "the simulation was not started")}
	}
	sink, ok := s.sim.Endpoints().Sink(req.SinkName)
	if !ok {
		return &CloseSinkReply{Err: errf(ErrorCodeSinkNotFound, "no sink is registered with the name %q", req.SinkName)}
	}
	sink.Close()
	return &CloseSinkReply{}
}
