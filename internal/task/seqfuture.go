package task

// SeqFuture concatenates a sequence of sub-futures, polling each to
// completion before advancing to the next. The driver uses this to fold
// several actions scheduled for the same channel at the same instant into a
// single task: running the actions concatenated (rather than as separate
// concurrent tasks racing the same receiver) keeps them in scheduling order
// and is cheaper than spawning one task per action.
type SeqFuture struct {
	rest []Future[struct{}]
	cur  int
}

// NewSeqFuture builds a SeqFuture over steps, polled in order. An empty
// slice resolves immediately.
func NewSeqFuture(steps ...Future[struct{}]) *SeqFuture {
	return &SeqFuture{rest: steps}
}

// Push appends another step to the end of the sequence. Only safe to call
// before the sequence has started being polled by more than one goroutine;
// the driver uses it to build up a batch before handing the future to the
// executor.
func (s *SeqFuture) Push(step Future[struct{}]) {
	s.rest = append(s.rest, step)
}

// Len reports how many steps, completed or not, make up the sequence.
func (s *SeqFuture) Len() int { return len(s.rest) }

func (s *SeqFuture) Poll(w *Waker) Poll[struct{}] {
	for s.cur < len(s.rest) {
		p := s.rest[s.cur].Poll(w)
		if !p.Ready {
			return Pending[struct{}]()
		}
		s.cur++
	}
	return Ready(struct{}{})
}
