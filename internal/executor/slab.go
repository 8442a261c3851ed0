package executor

import "github.com/nexosim/nexosim-go/internal/task"

// activeSlab tracks the cancel tokens of every task currently alive on an
// executor, the way the reference executor keeps a Slab<CancelToken> next
// to its ready queue. Slots are reused via a freelist so long-running
// simulations spawning many short-lived tasks don't grow the backing array
// without bound.
type activeSlab struct {
	tokens []*task.CancelToken
	free   []int
}

func newActiveSlab() *activeSlab {
	return &activeSlab{}
}

// insert records token under a fresh or recycled slot and returns its
// index, used later to remove the slot once the task completes.
func (s *activeSlab) insert(token *task.CancelToken) int {
	if n := len(s.free); n > 0 {
		idx := s.free[n-1]
		s.free = s.free[:n-1]
		s.tokens[idx] = token
		return idx
	}
	s.tokens = append(s.tokens, token)
	return len(s.tokens) - 1
}

// remove frees the slot at idx so it can be recycled by a future insert.
// Removing an already-free slot is a no-op, mirroring the reference
// executor's non-panicking drop path for a task that outlives its slot.
func (s *activeSlab) remove(idx int) {
	if idx < 0 || idx >= len(s.tokens) || s.tokens[idx] == nil {
		return
	}
	s.tokens[idx] = nil
	s.free = append(s.free, idx)
}

// cancelAll marks every still-live slot cancelled, used during executor
// shutdown so no further wakes resume tasks past teardown.
func (s *activeSlab) cancelAll() {
	for _, tok := range s.tokens {
		if tok != nil {
			tok.Cancel()
		}
	}
}

// len reports the number of currently live (not yet completed) tasks.
func (s *activeSlab) len() int {
	n := 0
	for _, tok := range s.tokens {
		if tok != nil {
			n++
		}
	}
	return n
}
