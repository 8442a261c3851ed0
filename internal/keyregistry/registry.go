// Package keyregistry hands out generation-checked cancellation handles for
// scheduler queue entries. A plain array index would let a cancel() call
// racing against slot reuse silently cancel the wrong (unrelated, later)
// entry; pairing every index with a generation counter that bumps on reuse
// turns that race into a detectable no-op instead.
package keyregistry

import "sync"

// KeyID is an opaque handle returned by Insert. The zero value is never
// issued by Insert and is reserved to mean "no key" (an eternal, never
// cancellable entry) for callers such as internal/squeue.
type KeyID struct {
	Index      uint32
	Generation uint32
}

// Raw packs the handle into a single uint64, the representation
// internal/squeue stores alongside a scheduler entry.
func (k KeyID) Raw() uint64 {
	return uint64(k.Generation)<<32 | uint64(k.Index)
}

// FromRaw unpacks a KeyID previously produced by Raw.
func FromRaw(v uint64) KeyID {
	return KeyID{Index: uint32(v), Generation: uint32(v >> 32)}
}

type slot struct {
	generation uint32
	occupied   bool
	deadline   any // stime.MonotonicTime, kept untyped to avoid an import cycle with consumers that embed their own deadline type
}

// Registry is a generational slab of slots, one per live scheduled entry.
type Registry struct {
	mu    sync.Mutex
	slots []slot
	free  []uint32
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Insert allocates a slot and returns its KeyID. deadline is opaque
// bookkeeping the caller can retrieve later via Deadline; the registry
// itself never interprets it.
func (r *Registry) Insert(deadline any) KeyID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.free); n > 0 {
		idx := r.free[n-1]
		r.free = r.free[:n-1]
		s := &r.slots[idx]
		s.occupied = true
		s.deadline = deadline
		if s.generation == 0 {
			s.generation = 1
		}
		return KeyID{Index: idx, Generation: s.generation}
	}

	r.slots = append(r.slots, slot{occupied: true, deadline: deadline, generation: 1})
	idx := uint32(len(r.slots) - 1)
	return KeyID{Index: idx, Generation: 1}
}

// InsertEternal allocates a slot for an entry with no natural expiry (a
// periodic action, or one the caller never intends to cancel). It behaves
// identically to Insert; the name exists to document intent at call
// sites, matching the reference scheduler's distinction between bounded
// and eternal keys.
func (r *Registry) InsertEternal() KeyID {
	return r.Insert(nil)
}

// Extract removes the slot named by key if and only if key's generation
// still matches what's stored — i.e. the slot has not been reused since
// key was issued. It reports the slot's deadline and whether the
// extraction happened.
func (r *Registry) Extract(key KeyID) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if int(key.Index) >= len(r.slots) {
		return nil, false
	}
	s := &r.slots[key.Index]
	if !s.occupied || s.generation != key.Generation {
		return nil, false
	}

	deadline := s.deadline
	s.occupied = false
	s.deadline = nil
	s.generation++
	r.free = append(r.free, key.Index)
	return deadline, true
}

// Contains reports whether key still names a live slot, without removing
// it.
func (r *Registry) Contains(key KeyID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int(key.Index) >= len(r.slots) {
		return false
	}
	s := r.slots[key.Index]
	return s.occupied && s.generation == key.Generation
}

// Len reports how many slots are currently occupied.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.slots {
		if s.occupied {
			n++
		}
	}
	return n
}

// RemoveExpired walks every occupied slot and extracts those for which
// isExpired returns true, invoking onExpire for each. The driver runs it
// lazily at its schedule and cancel sites as a backstop that frees keys
// whose entries already left internal/squeue without their slot having
// been extracted.
func (r *Registry) RemoveExpired(isExpired func(deadline any) bool, onExpire func(KeyID, any)) {
	r.mu.Lock()
	type victim struct {
		key      KeyID
		deadline any
	}
	var victims []victim
	for idx := range r.slots {
		s := &r.slots[idx]
		if !s.occupied {
			continue
		}
		if isExpired(s.deadline) {
			victims = append(victims, victim{
				key:      KeyID{Index: uint32(idx), Generation: s.generation},
				deadline: s.deadline,
			})
		}
	}
	for _, v := range victims {
		s := &r.slots[v.key.Index]
		s.occupied = false
		s.deadline = nil
		s.generation++
		r.free = append(r.free, v.key.Index)
	}
	r.mu.Unlock()

	for _, v := range victims {
		onExpire(v.key, v.deadline)
	}
}
