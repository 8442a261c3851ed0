// Package examplemodels provides small reference models used by the seed
// test suite: a Counter that accumulates increments and a stateless Doubler
// that answers queries with twice their input. Neither does anything
// useful on its own; they exist to exercise scheduling, cancellation,
// co-temporal batching and query round-trips end to end.
package examplemodels

import "github.com/nexosim/nexosim-go/internal/stime"

// Counter accumulates Add events. LastSeen holds the instant last passed
// to Touch; Add does not change it. Sink, if set, receives the running
// total after every Add —
// the model-side half of the sink wiring internal/rpc's ReadEvents and
// internal/httpapi's debug endpoint read from the other end.
type Counter struct {
	Total    int64
	LastSeen stime.MonotonicTime
	History  []int64 // one entry appended per Add, in delivery order
	// Sink takes `any` rather than the typed PushValue so that either a
	// bare *simulation.TypedSink[int64] or an internal/sinkbus.Sink
	// wrapping one can be assigned here interchangeably: the wrapper's
	// exported Push is the only way its AMQP export ever fires.
	Sink interface{ Push(any) }
}

// Add increments Total by n and appends the new running total to History.
// Delivery order for entries that share a channel and instant is exactly
// what internal/simulation's SeqFuture batching guarantees, which is what
// the co-temporal-ordering seed scenario asserts against History.
func (c *Counter) Add(n int64) {
	c.Total += n
	c.History = append(c.History, c.Total)
	if c.Sink != nil {
		c.Sink.Push(c.Total)
	}
}

// Touch records the instant a model observed, independent of any payload.
func (c *Counter) Touch(at stime.MonotonicTime) {
	c.LastSeen = at
}

// Doubler answers queries with twice whatever input it's given, using no
// state of its own — the minimal model for exercising SendQuery's
// round-trip without also depending on Counter's mutable state.
type Doubler struct{}

// Double returns 2*n.
func (Doubler) Double(n int64) int64 { return 2 * n }
