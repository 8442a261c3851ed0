// Package executor implements the cooperative task runner that drives
// internal/task futures to completion: a single-threaded executor matching
// the simulation driver's single-slice-at-a-time stepping, plus a
// work-stealing variant for the parallel configuration. Every task carries
// the identity of the executor it was spawned on and a wake that targets a
// different executor is a programming error, not a race to paper over.
package executor

import (
	"fmt"
	"sync/atomic"

	"github.com/nexosim/nexosim-go/internal/task"
)

// maxExecutors bounds how many Executor values may be constructed over the
// life of a process. It exists only to catch a runaway-construction bug
// early instead of silently wrapping the ID counter.
const maxExecutors = 1<<63 - 1

var nextExecutorID atomic.Uint64

// allocExecutorID returns a process-unique executor identity. It panics if
// exhausted, which would require constructing more executors than any real
// program does.
func allocExecutorID() task.ExecutorID {
	id := nextExecutorID.Add(1)
	if id > maxExecutors {
		panic(fmt.Sprintf("executor: exhausted executor id space (%d executors constructed)", maxExecutors))
	}
	return task.ExecutorID(id)
}
