package registry

import (
	"testing"

	"github.com/nexosim/nexosim-go/internal/examplemodels"
)

func TestCachedEndpointsHitsAndMisses(t *testing.T) {
	init := examplemodels.Build(16, nil)
	reg := init.Registry()

	cached := New(reg, 0)

	src, ok := cached.EventSource("counter.add")
	if !ok {
		t.Fatalf("expected counter.add to resolve on first (cold) lookup")
	}

	src2, ok := cached.EventSource("counter.add")
	if !ok || src2 != src {
		t.Fatalf("expected second lookup to return the cached instance")
	}

	if _, ok := cached.EventSource("does.not.exist"); ok {
		t.Fatalf("expected unknown name to miss")
	}
}

func TestCachedEndpointsInvalidate(t *testing.T) {
	init := examplemodels.Build(16, nil)
	reg := init.Registry()
	cached := New(reg, 0)

	if _, ok := cached.EventSource("counter.add"); !ok {
		t.Fatalf("expected initial lookup to succeed")
	}
	cached.Invalidate("counter.add")

	// Invalidation doesn't remove the registry entry, only the cache: the
	// next lookup should still resolve, just by falling through again.
	if _, ok := cached.EventSource("counter.add"); !ok {
		t.Fatalf("expected lookup after invalidation to still succeed")
	}
}
