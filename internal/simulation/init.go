package simulation

import (
	"github.com/nexosim/nexosim-go/internal/executor"
	"github.com/nexosim/nexosim-go/internal/mailbox"
	"github.com/nexosim/nexosim-go/internal/stime"
)

// SimInit assembles a Simulation: models are added one at a time (each
// bringing its own mailbox), then Init hands back a running Simulation
// whose driver tasks are already spawned and whose clock starts at the
// given instant.
type SimInit struct {
	registry *EndpointRegistry
	spawners []func(exec *executor.SingleThreaded)
	builders []func(ctx *BuildContext)
}

// NewSimInit returns a builder with no models added yet.
func NewSimInit() *SimInit {
	return &SimInit{registry: newEndpointRegistry()}
}

// AddModel registers model's mailbox-driving task with the builder. proto,
// if non-nil, has its Build method called during Init after every model
// added so far has been registered, letting it wire up addresses to
// peers.
func AddModel[M any](init *SimInit, model *M, mb *mailbox.Mailbox[M], proto ProtoModel) {
	init.spawners = append(init.spawners, func(exec *executor.SingleThreaded) {
		exec.SpawnAndForget(DriveMailbox(mb, model))
	})
	if proto != nil {
		init.builders = append(init.builders, proto.Build)
	}
}

// Registry exposes the builder's endpoint registry so AddEventSource,
// AddQuerySource and AddSink can be called on it before Init.
func (init *SimInit) Registry() *EndpointRegistry { return init.registry }

// Init finalizes construction: it runs every registered ProtoModel.Build
// hook, constructs the executor and scheduler, spawns every model's
// mailbox-driving task, and returns the resulting Simulation with its
// clock set to start.
func (init *SimInit) Init(start stime.MonotonicTime) *Simulation {
	ctx := &BuildContext{Registry: init.registry}
	for _, build := range init.builders {
		build(ctx)
	}

	exec := executor.NewSingleThreaded()
	sim := newSimulation(exec, start, init.registry)
	for _, spawn := range init.spawners {
		spawn(exec)
	}
	return sim
}
