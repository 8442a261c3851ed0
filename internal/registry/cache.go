// Package registry adds a bounded LRU cache in front of
// simulation.EndpointRegistry's name lookups, avoiding a map probe (and,
// with many registered endpoints, pointer chasing through the
// registry's RWMutex) on the hot path every ScheduleEvent/ProcessEvent
// call takes. Grounded on the teacher's internal/service/peer_enricher.go
// cache-aside pattern (hashicorp/golang-lru, Get-then-Add-on-miss), swapped
// from peer identities to endpoint names.
package registry

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nexosim/nexosim-go/internal/simulation"
)

// CachedEndpoints wraps a simulation.EndpointRegistry with an LRU cache of
// the last-resolved EventSource per name. The registry does not notify the
// cache: after re-registering a name with AddEventSource, the caller must
// call Invalidate for that name, or lookups keep returning the old source.
type CachedEndpoints struct {
	reg   *simulation.EndpointRegistry
	cache *lru.Cache[string, simulation.EventSource]
}

// New wraps reg with a cache sized for approximately expectedSources
// distinct event source names; size is a hint; a correct size just
// avoids needless eviction churn; 0 defaults to 128.
func New(reg *simulation.EndpointRegistry, expectedSources int) *CachedEndpoints {
	if expectedSources <= 0 {
		expectedSources = 128
	}
	cache, _ := lru.New[string, simulation.EventSource](expectedSources)
	return &CachedEndpoints{reg: reg, cache: cache}
}

// EventSource looks up name, consulting the cache before the registry's
// own map.
func (c *CachedEndpoints) EventSource(name string) (simulation.EventSource, bool) {
	if src, ok := c.cache.Get(name); ok {
		return src, true
	}
	src, ok := c.reg.EventSource(name)
	if ok {
		c.cache.Add(name, src)
	}
	return src, ok
}

// Invalidate drops name's cached entry, if any; call this after
// re-registering a source under a name that might already be cached.
func (c *CachedEndpoints) Invalidate(name string) {
	c.cache.Remove(name)
}
