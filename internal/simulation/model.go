package simulation

import (
	"github.com/nexosim/nexosim-go/internal/mailbox"
	"github.com/nexosim/nexosim-go/internal/task"
)

// DriveMailbox builds the task that owns model: it drains actions off mb
// and applies them one at a time for the lifetime of the simulation,
// parking (returning Pending) whenever mb is momentarily empty. SimInit
// spawns exactly one of these per added model.
func DriveMailbox[M any](mb *mailbox.Mailbox[M], model *M) task.Future[struct{}] {
	return task.Func[struct{}](func(w *task.Waker) task.Poll[struct{}] {
		for {
			p := mb.Recv().Poll(w)
			if !p.Ready {
				return task.Pending[struct{}]()
			}
			if !p.Value.OK {
				return task.Ready(struct{}{})
			}
			p.Value.Action(model)
		}
	})
}

// ProtoModel is the two-phase construction hook a model can optionally
// implement: Build runs once, during SimInit.Init, after every model's
// mailbox exists (so a model can capture peer addresses) but before the
// simulation starts stepping.
type ProtoModel interface {
	Build(ctx *BuildContext)
}

// BuildContext is handed to ProtoModel.Build. It exposes the registry so a
// model can look up a peer's address by name if the wiring wasn't done by
// direct reference at construction time.
type BuildContext struct {
	Registry *EndpointRegistry
}
