package stime

import (
	"fmt"
	"math"
	"time"
)

// Duration is a simulation-time span, stored the same way MonotonicTime is
// so the two compose without a lossy conversion through time.Duration
// (whose int64-nanoseconds representation overflows past about 292 years).
type Duration struct {
	Secs  int64
	Nanos uint32
}

// FromStd converts a standard library Duration.
func FromStd(d time.Duration) Duration {
	secs := int64(d / time.Second)
	nanos := uint32(d % time.Second)
	return Duration{Secs: secs, Nanos: nanos}
}

// Std converts back to a standard library Duration, saturating at
// time.Duration's much narrower range.
func (d Duration) Std() time.Duration {
	const maxSecs = math.MaxInt64 / int64(time.Second)
	if d.Secs > maxSecs || (d.Secs == maxSecs && int64(d.Nanos) > math.MaxInt64%int64(time.Second)) {
		return time.Duration(math.MaxInt64)
	}
	if d.Secs < -maxSecs {
		return time.Duration(math.MinInt64)
	}
	return time.Duration(d.Secs)*time.Second + time.Duration(d.Nanos)
}

// IsZero reports whether d is exactly zero.
func (d Duration) IsZero() bool { return d.Secs == 0 && d.Nanos == 0 }

// IsPositive reports whether d is strictly greater than zero.
func (d Duration) IsPositive() bool { return d.Secs > 0 || (d.Secs == 0 && d.Nanos > 0) }

func (d Duration) String() string {
	return fmt.Sprintf("%d.%09ds", d.Secs, d.Nanos)
}
