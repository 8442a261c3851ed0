// Command simtop is a read-only terminal dashboard over a running
// simulation: current time, scheduler queue depth, active task count and
// the registered endpoint names. It drives its own in-process demo graph
// (internal/examplemodels) rather than attaching to a remote server,
// since the wire control plane has no "describe yourself" query beyond
// the named endpoints it already exposes — the dashboard is a second,
// read-only embedder of the same Simulation type the control plane wraps,
// not a client of it. It never calls ScheduleEvent/Cancel/etc: pure
// observability, exactly as SPEC_FULL.md requires of this command.
package main

import (
	"fmt"
	"log"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/nexosim/nexosim-go/internal/examplemodels"
	"github.com/nexosim/nexosim-go/internal/mailbox"
	"github.com/nexosim/nexosim-go/internal/stime"
)

func main() {
	if err := ui.Init(); err != nil {
		log.Fatalf("simtop: failed to initialize termui: %v", err)
	}
	defer ui.Close()

	sim := examplemodels.Build(mailbox.DefaultCapacity, nil).Init(stime.Zero)

	clock := widgets.NewParagraph()
	clock.Title = "Simulation Time"
	clock.SetRect(0, 0, 60, 3)

	queue := widgets.NewGauge()
	queue.Title = "Scheduler Queue Depth"
	queue.SetRect(0, 3, 60, 6)
	queue.BarColor = ui.ColorCyan

	tasks := widgets.NewParagraph()
	tasks.Title = "Active Tasks"
	tasks.SetRect(0, 6, 60, 9)

	endpoints := widgets.NewList()
	endpoints.Title = "Registered Endpoints"
	endpoints.SetRect(0, 9, 60, 20)

	render := func() {
		clock.Text = sim.Time().String()

		depth := sim.QueueLen()
		percent := depth * 10
		if percent > 100 {
			percent = 100
		}
		queue.Percent = percent
		queue.Label = fmt.Sprintf("%d pending", depth)

		tasks.Text = fmt.Sprintf("%d", sim.ActiveTasks())

		rows := make([]string, 0, 32)
		for _, name := range sim.Endpoints().EventSourceNames() {
			rows = append(rows, "[source] "+name)
		}
		for _, name := range sim.Endpoints().QuerySourceNames() {
			rows = append(rows, "[query]  "+name)
		}
		for _, name := range sim.Endpoints().SinkNames() {
			rows = append(rows, "[sink]   "+name)
		}
		endpoints.Rows = rows

		ui.Render(clock, queue, tasks, endpoints)
	}

	render()

	// Steps the demo simulation forward on a wall-clock tick so the
	// dashboard has something to show even with no external driver
	// attached; it never injects events, only advances time.
	tick := time.NewTicker(500 * time.Millisecond)
	defer tick.Stop()

	events := ui.PollEvents()
	for {
		select {
		case e := <-events:
			switch e.ID {
			case "q", "<C-c>":
				return
			}
		case <-tick.C:
			sim.StepBy(stime.FromStd(500 * time.Millisecond))
			render()
		}
	}
}
