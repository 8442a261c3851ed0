package rpc

import (
	"fmt"

	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// ErrorCode is the closed set of wire-level error codes from §6. It is
// never extended ad hoc: a new failure mode must map onto one of these.
type ErrorCode int32

const (
	ErrorCodeUnspecified ErrorCode = iota
	ErrorCodeEmptyRequest
	ErrorCodeUnknownRequest
	ErrorCodeInvalidTime
	ErrorCodeInvalidDuration
	ErrorCodeMissingArgument
	ErrorCodeInvalidKey
	ErrorCodeInvalidMessage
	ErrorCodeSourceNotFound
	ErrorCodeSinkNotFound
	ErrorCodeSimulationNotStarted
	ErrorCodeSimulationTimeOutOfRange
	ErrorCodeInternalError
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeEmptyRequest:
		return "EmptyRequest"
	case ErrorCodeUnknownRequest:
		return "UnknownRequest"
	case ErrorCodeInvalidTime:
		return "InvalidTime"
	case ErrorCodeInvalidDuration:
		return "InvalidDuration"
	case ErrorCodeMissingArgument:
		return "MissingArgument"
	case ErrorCodeInvalidKey:
		return "InvalidKey"
	case ErrorCodeInvalidMessage:
		return "InvalidMessage"
	case ErrorCodeSourceNotFound:
		return "SourceNotFound"
	case ErrorCodeSinkNotFound:
		return "SinkNotFound"
	case ErrorCodeSimulationNotStarted:
		return "SimulationNotStarted"
	case ErrorCodeSimulationTimeOutOfRange:
		return "SimulationTimeOutOfRange"
	case ErrorCodeInternalError:
		return "InternalError"
	default:
		return "Unspecified"
	}
}

// Error is the wire error payload: a closed code plus a free-form
// message, exactly as §6 specifies.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("rpc: %s: %s", e.Code, e.Message) }

func errf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// EventKey is the wire form of a keyregistry.KeyID: two unsigned integers
// (§6 Event keys on the wire).
type EventKey struct {
	Subkey1 uint64
	Subkey2 uint64
}

// --- Requests -------------------------------------------------------------

type InitRequest struct {
	Time *timestamppb.Timestamp // nil selects MonotonicTime's epoch
}

type TimeRequest struct{}

type StepRequest struct{}

// StepUntilRequest carries exactly one of Time or Duration, mirroring the
// source's `oneof deadline`.
type StepUntilRequest struct {
	Time     *timestamppb.Timestamp
	Duration *durationpb.Duration
}

// ScheduleEventRequest carries exactly one of Time or Duration for its
// deadline, same shape as StepUntilRequest's oneof.
type ScheduleEventRequest struct {
	SourceName string
	Event      []byte
	Time       *timestamppb.Timestamp
	Duration   *durationpb.Duration
	Period     *durationpb.Duration // nil for a one-shot event
	WithKey    bool
}

type CancelEventRequest struct {
	Key *EventKey
}

type ProcessEventRequest struct {
	SourceName string
	Event      []byte
}

type ProcessQueryRequest struct {
	SourceName string
	Request    []byte
}

type ReadEventsRequest struct {
	SinkName string
}

type OpenSinkRequest struct {
	SinkName string
}

type CloseSinkRequest struct {
	SinkName string
}

// AnyRequest is the envelope's request union: exactly one field is
// non-nil. It is not a real protobuf oneof (this runtime ships no
// generated protobuf service code, per the spec's explicit Non-goal on
// transport polish) but the field shape matches the source's
// any_request::Request enum one-for-one, and the timestamp/duration
// payloads it carries are real google.golang.org/protobuf well-known
// types, preserving the lossless conversion the spec actually cares
// about.
type AnyRequest struct {
	Init          *InitRequest
	Time          *TimeRequest
	Step          *StepRequest
	StepUntil     *StepUntilRequest
	ScheduleEvent *ScheduleEventRequest
	CancelEvent   *CancelEventRequest
	ProcessEvent  *ProcessEventRequest
	ProcessQuery  *ProcessQueryRequest
	ReadEvents    *ReadEventsRequest
	OpenSink      *OpenSinkRequest
	CloseSink     *CloseSinkRequest
}

// --- Replies ----------------------------------------------------------

type InitReply struct{ Err *Error }

type TimeReply struct {
	Time *timestamppb.Timestamp
	Err  *Error
}

type StepReply struct {
	Time *timestamppb.Timestamp
	Err  *Error
}

type StepUntilReply struct {
	Time *timestamppb.Timestamp
	Err  *Error
}

type ScheduleEventReply struct {
	Key *EventKey // nil when the request did not ask WithKey
	Err *Error
}

type CancelEventReply struct{ Err *Error }

type ProcessEventReply struct{ Err *Error }

type ProcessQueryReply struct {
	Replies [][]byte
	Err     *Error
}

type ReadEventsReply struct {
	Events [][]byte
	Err    *Error
}

type OpenSinkReply struct{ Err *Error }

type CloseSinkReply struct{ Err *Error }

// AnyReply mirrors AnyRequest: exactly one reply field is set, or Err is
// set alone for a pre-dispatch failure (empty/unknown request).
type AnyReply struct {
	Init          *InitReply
	Time          *TimeReply
	Step          *StepReply
	StepUntil     *StepUntilReply
	ScheduleEvent *ScheduleEventReply
	CancelEvent   *CancelEventReply
	ProcessEvent  *ProcessEventReply
	ProcessQuery  *ProcessQueryReply
	ReadEvents    *ReadEventsReply
	OpenSink      *OpenSinkReply
	CloseSink     *CloseSinkReply
	Err           *Error
}
