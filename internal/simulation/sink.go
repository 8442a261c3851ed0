package simulation

import (
	"encoding/json"
	"fmt"
	"sync"
)

// TypedSink is the concrete EventSink every model output funnels through:
// a JSON-encoding, open/close-gated buffer. Collect drains it in FIFO
// order, same as the reference sink's Vec<bytes> collector (§4.5).
type TypedSink[T any] struct {
	mu   sync.Mutex
	open bool
	buf  []T
}

// NewEventSink returns a sink closed by default; Open must be called
// (directly, or via the wire control plane's OpenSink) before Push
// accumulates anything.
func NewEventSink[T any]() *TypedSink[T] {
	return &TypedSink[T]{}
}

// Open starts accumulating pushed values.
func (s *TypedSink[T]) Open() {
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
}

// Close stops accumulating; values already buffered remain collectible.
func (s *TypedSink[T]) Close() {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
}

// IsOpen reports whether the sink currently accepts pushes.
func (s *TypedSink[T]) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Push appends v if the sink is open; a closed sink silently drops it,
// matching the reference behavior that a model need not check sink state
// before emitting output.
func (s *TypedSink[T]) Push(v any) {
	t, ok := v.(T)
	if !ok {
		return
	}
	s.mu.Lock()
	if s.open {
		s.buf = append(s.buf, t)
	}
	s.mu.Unlock()
}

// PushValue is the typed convenience entry point for model code, which
// never needs to go through the `any`-erased Push.
func (s *TypedSink[T]) PushValue(v T) {
	s.mu.Lock()
	if s.open {
		s.buf = append(s.buf, v)
	}
	s.mu.Unlock()
}

// Collect drains the buffer, JSON-encoding each element.
func (s *TypedSink[T]) Collect() ([][]byte, error) {
	s.mu.Lock()
	buf := s.buf
	s.buf = nil
	s.mu.Unlock()

	out := make([][]byte, 0, len(buf))
	for _, v := range buf {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("simulation: encoding sink value: %w", err)
		}
		out = append(out, b)
	}
	return out, nil
}

// TypeName reports the sink's element type, used only in error messages.
func (s *TypedSink[T]) TypeName() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}
