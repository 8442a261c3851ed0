// Package stime implements the simulation's monotonic time base: a
// TAI-like (seconds, nanoseconds) pair that never jumps backward and
// supports the saturating arithmetic the scheduler queue relies on to
// never overflow or wrap when a model schedules "forever from now".
package stime

import (
	"fmt"
	"math"
	"time"
)

// MonotonicTime is an absolute simulation instant: a whole number of
// seconds since an arbitrary epoch plus a sub-second nanosecond remainder.
// It intentionally does not carry a timezone or calendar — that conversion
// only happens at the wire boundary (internal/rpc), via the epoch
// agreed there.
type MonotonicTime struct {
	Secs  int64
	Nanos uint32 // always in [0, 1e9)
}

const nanosPerSec = 1_000_000_000

// Zero is the epoch instant.
var Zero = MonotonicTime{}

// FromUnix builds a MonotonicTime from a standard library time.Time,
// truncating to nanosecond precision.
func FromUnix(t time.Time) MonotonicTime {
	return MonotonicTime{Secs: t.Unix(), Nanos: uint32(t.Nanosecond())}
}

// Unix converts back to a time.Time in UTC.
func (t MonotonicTime) Unix() time.Time {
	return time.Unix(t.Secs, int64(t.Nanos)).UTC()
}

// Before reports whether t happens strictly before u.
func (t MonotonicTime) Before(u MonotonicTime) bool {
	return t.Secs < u.Secs || (t.Secs == u.Secs && t.Nanos < u.Nanos)
}

// After reports whether t happens strictly after u.
func (t MonotonicTime) After(u MonotonicTime) bool { return u.Before(t) }

// Equal reports whether t and u name the same instant.
func (t MonotonicTime) Equal(u MonotonicTime) bool {
	return t.Secs == u.Secs && t.Nanos == u.Nanos
}

// Cmp returns -1, 0 or 1 as t is before, equal to, or after u.
func (t MonotonicTime) Cmp(u MonotonicTime) int {
	switch {
	case t.Before(u):
		return -1
	case t.After(u):
		return 1
	default:
		return 0
	}
}

// Add returns t advanced by d, saturating at MonotonicTime's representable
// bounds instead of overflowing. A negative d that would move t before the
// epoch saturates at Zero.
func (t MonotonicTime) Add(d Duration) MonotonicTime {
	secs := t.Secs
	nanos := int64(t.Nanos) + int64(d.Nanos)

	addSecs, overflow := addSaturating(secs, d.Secs)
	if overflow {
		if d.Secs > 0 {
			return MonotonicTime{Secs: math.MaxInt64, Nanos: 999_999_999}
		}
		return Zero
	}
	secs = addSecs

	if nanos >= nanosPerSec {
		nanos -= nanosPerSec
		secs2, overflow := addSaturating(secs, 1)
		if overflow {
			return MonotonicTime{Secs: math.MaxInt64, Nanos: 999_999_999}
		}
		secs = secs2
	}
	if secs < 0 && d.Secs < 0 && t.Secs >= 0 {
		return Zero
	}
	return MonotonicTime{Secs: secs, Nanos: uint32(nanos)}
}

// Sub returns the (possibly negative, saturating) duration from u to t.
func (t MonotonicTime) Sub(u MonotonicTime) Duration {
	secs, overflow := subSaturating(t.Secs, u.Secs)
	nanos := int64(t.Nanos) - int64(u.Nanos)
	if nanos < 0 {
		nanos += nanosPerSec
		var ov bool
		secs, ov = subSaturating(secs, 1)
		overflow = overflow || ov
	}
	if overflow {
		if t.After(u) {
			return Duration{Secs: math.MaxInt64, Nanos: 999_999_999}
		}
		return Duration{Secs: math.MinInt64}
	}
	return Duration{Secs: secs, Nanos: uint32(nanos)}
}

func (t MonotonicTime) String() string {
	return fmt.Sprintf("%d.%09ds", t.Secs, t.Nanos)
}

func addSaturating(a, b int64) (int64, bool) {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64, true
	}
	if b < 0 && a < math.MinInt64-b {
		return math.MinInt64, true
	}
	return a + b, false
}

func subSaturating(a, b int64) (int64, bool) {
	return addSaturating(a, -b)
}
