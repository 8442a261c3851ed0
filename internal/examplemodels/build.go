package examplemodels

import (
	"github.com/nexosim/nexosim-go/internal/mailbox"
	"github.com/nexosim/nexosim-go/internal/simulation"
	"github.com/nexosim/nexosim-go/internal/sinkbus"
)

// Build assembles the demo graph the server command (cmd/fx.go's
// simulationModule) falls back to when no other
// model package is wired: one Counter fed by a "counter.add" event source,
// one Doubler answering "doubler.double" queries, and a "counter.history"
// sink collecting every running total. It exists so the control plane
// (gRPC/ws/HTTP) and the embedded API have something concrete to drive
// end to end without requiring a user-supplied model package, the same
// role the teacher's seeded delivery/contact services play for its own
// handler wiring. bus, if non-nil, gets the counter.history sink wrapped
// so every pushed total is also exported onto the broker (disabled
// entirely when internal/config's AMQPURL is empty).
func Build(capacity int, bus *sinkbus.Bus) *simulation.SimInit {
	init := simulation.NewSimInit()

	counterBox, counterAddr := mailbox.New[Counter](capacity)
	counter := &Counter{}
	sink := simulation.NewEventSink[int64]()
	if bus != nil {
		counter.Sink = sinkbus.Wrap(sink, bus, "nexosim.counter.history")
	} else {
		counter.Sink = sink
	}
	simulation.AddModel(init, counter, counterBox, nil)

	init.Registry().AddEventSource("counter.add", simulation.NewEventSource(counterAddr, (*Counter).Add))
	init.Registry().AddSink("counter.history", sink)

	doublerBox, doublerAddr := mailbox.New[Doubler](capacity)
	doubler := &Doubler{}
	simulation.AddModel(init, doubler, doublerBox, nil)
	init.Registry().AddQuerySource("doubler.double", simulation.NewQuerySource(doublerAddr, func(d *Doubler, n int64) int64 { return d.Double(n) }))

	return init
}
