package stime

import "testing"

func TestAddCarriesNanos(t *testing.T) {
	got := MonotonicTime{Secs: 1, Nanos: 900_000_000}.Add(Duration{Secs: 0, Nanos: 200_000_000})
	want := MonotonicTime{Secs: 2, Nanos: 100_000_000}
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSubRoundTrip(t *testing.T) {
	a := MonotonicTime{Secs: 10, Nanos: 500_000_000}
	b := MonotonicTime{Secs: 3, Nanos: 900_000_000}
	d := a.Sub(b)
	if got := b.Add(d); !got.Equal(a) {
		t.Fatalf("b.Add(a.Sub(b)) = %v, want %v", got, a)
	}
}

func TestBeforeAfterOrdering(t *testing.T) {
	a := MonotonicTime{Secs: 1}
	b := MonotonicTime{Secs: 1, Nanos: 1}
	if !a.Before(b) || !b.After(a) {
		t.Fatalf("expected a < b")
	}
	if a.Cmp(b) != -1 || b.Cmp(a) != 1 || a.Cmp(a) != 0 {
		t.Fatalf("unexpected Cmp results")
	}
}

func TestSyncCellLoadStore(t *testing.T) {
	c := NewSyncCell(MonotonicTime{Secs: 5, Nanos: 7})
	if got := c.Load(); got.Secs != 5 || got.Nanos != 7 {
		t.Fatalf("got %v", got)
	}
	c.Store(MonotonicTime{Secs: 6})
	if got := c.Load(); got.Secs != 6 {
		t.Fatalf("got %v", got)
	}
}

// TestSyncCellCarriesFullRange guards against a bit-packed representation
// silently truncating Secs: any time past math.MaxInt32 seconds from the
// epoch (the 2038 boundary, well within a plausible wire-supplied start
// time) must round-trip exactly.
func TestSyncCellCarriesFullRange(t *testing.T) {
	big := MonotonicTime{Secs: 1<<40 + 12345, Nanos: 999_999_999}
	c := NewSyncCell(big)
	if got := c.Load(); !got.Equal(big) {
		t.Fatalf("got %v, want %v", got, big)
	}
}
