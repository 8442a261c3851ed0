package rpc

import (
	"testing"

	"github.com/nexosim/nexosim-go/internal/stime"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func TestMonotonicTimestampRoundTrip(t *testing.T) {
	want := stime.MonotonicTime{Secs: 1_700_000_000, Nanos: 123}
	ts, ok := monotonicToTimestamp(want)
	if !ok {
		t.Fatalf("expected conversion to succeed")
	}
	got, ok := timestampToMonotonic(ts)
	if !ok || !got.Equal(want) {
		t.Fatalf("round trip mismatch: want %v got %v", want, got)
	}
}

func TestMonotonicToTimestampOutOfRange(t *testing.T) {
	_, ok := monotonicToTimestamp(stime.MonotonicTime{Secs: maxTimestampSecs + 1})
	if ok {
		t.Fatalf("expected out-of-range seconds to fail conversion")
	}
}

func TestTimestampToMonotonicNilIsEpoch(t *testing.T) {
	got, ok := timestampToMonotonic(nil)
	if !ok || !got.Equal(stime.Zero) {
		t.Fatalf("expected nil timestamp to map to the epoch, got %v ok=%v", got, ok)
	}
}

func TestTimestampToMonotonicRejectsBadNanos(t *testing.T) {
	if _, ok := timestampToMonotonic(&timestamppb.Timestamp{Nanos: -1}); ok {
		t.Fatalf("expected negative nanos to fail")
	}
	if _, ok := timestampToMonotonic(&timestamppb.Timestamp{Nanos: 1_000_000_000}); ok {
		t.Fatalf("expected nanos >= 1e9 to fail")
	}
}

func TestDurationConversions(t *testing.T) {
	if _, ok := toPositiveDuration(&durationpb.Duration{Seconds: -1}); ok {
		t.Fatalf("expected negative duration to fail")
	}
	if _, ok := toStrictlyPositiveDuration(&durationpb.Duration{Seconds: 0, Nanos: 0}); ok {
		t.Fatalf("expected zero duration to fail strict positivity")
	}
	d, ok := toStrictlyPositiveDuration(&durationpb.Duration{Seconds: 1})
	if !ok || d.Secs != 1 {
		t.Fatalf("expected 1s duration, got %v ok=%v", d, ok)
	}

	back := durationToProto(d)
	if back.Seconds != 1 {
		t.Fatalf("expected round-tripped duration of 1s, got %v", back)
	}
}
