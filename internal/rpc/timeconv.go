// Package rpc implements the wire control façade sketched in the spec's
// §6 EXTERNAL INTERFACES: a transport-agnostic request/reply envelope
// (GenericServer, grounded on asynchronix's rpc/generic_server.rs
// one-for-one) plus two thin transports — a gRPC streaming service and a
// websocket handler — that both just marshal this envelope, mirroring the
// teacher's DeliveryService.Stream / internal/handler/ws split.
package rpc

import (
	"math"

	"github.com/nexosim/nexosim-go/internal/stime"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// minTimestampSecs and maxTimestampSecs are the protobuf Timestamp
// specification's inclusive bounds: 0001-01-01T00:00:00Z and
// 9999-12-31T23:59:59Z respectively, expressed as Unix seconds. Values
// outside this range cannot be represented on the wire even though
// MonotonicTime itself has no such limit.
const (
	minTimestampSecs int64 = -62135596800
	maxTimestampSecs int64 = 253402300799
)

// monotonicToTimestamp casts a MonotonicTime to a protobuf Timestamp,
// reporting ok=false if the instant falls outside the representable
// range (§6 Time formats; §8 round-trip property).
func monotonicToTimestamp(t stime.MonotonicTime) (*timestamppb.Timestamp, bool) {
	if t.Secs < minTimestampSecs || t.Secs > maxTimestampSecs {
		return nil, false
	}
	return &timestamppb.Timestamp{Seconds: t.Secs, Nanos: int32(t.Nanos)}, true
}

// timestampToMonotonic casts a protobuf Timestamp to a MonotonicTime. It
// can only fail if the nanosecond field is negative or >= 1e9, since a
// Timestamp already carries int64 seconds which always fit MonotonicTime.
func timestampToMonotonic(ts *timestamppb.Timestamp) (stime.MonotonicTime, bool) {
	if ts == nil {
		return stime.Zero, true
	}
	if ts.Nanos < 0 || ts.Nanos >= 1_000_000_000 {
		return stime.MonotonicTime{}, false
	}
	return stime.MonotonicTime{Secs: ts.Seconds, Nanos: uint32(ts.Nanos)}, true
}

// toPositiveDuration casts a protobuf Duration to a stime.Duration,
// rejecting negative durations.
func toPositiveDuration(d *durationpb.Duration) (stime.Duration, bool) {
	if d == nil || d.Seconds < 0 || d.Nanos < 0 {
		return stime.Duration{}, false
	}
	return stime.Duration{Secs: d.Seconds, Nanos: uint32(d.Nanos)}, true
}

// toStrictlyPositiveDuration is toPositiveDuration plus a non-zero check,
// required for periods and relative scheduling deltas (§6 Time formats).
func toStrictlyPositiveDuration(d *durationpb.Duration) (stime.Duration, bool) {
	dur, ok := toPositiveDuration(d)
	if !ok || (dur.Secs == 0 && dur.Nanos == 0) {
		return stime.Duration{}, false
	}
	return dur, true
}

// durationToProto is the inverse of toPositiveDuration, saturating at
// math.MaxInt64 seconds rather than overflowing (mirrors the saturating
// contract the rest of the codebase holds for Duration arithmetic).
func durationToProto(d stime.Duration) *durationpb.Duration {
	secs := d.Secs
	if secs < 0 {
		secs = 0
	}
	if secs > math.MaxInt64 {
		secs = math.MaxInt64
	}
	return &durationpb.Duration{Seconds: secs, Nanos: int32(d.Nanos)}
}
