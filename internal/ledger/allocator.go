package ledger

import "sync"

// TicketIDAllocator hands out ticket ids. Implementations must never
// return the same id twice.
type TicketIDAllocator interface {
	NextID() int
}

// Sequence is a process-wide counter starting at 1.
type Sequence struct {
	mu   sync.Mutex
	last int
}

func NewSequence() *Sequence {
	return &Sequence{}
}

func (s *Sequence) NextID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return s.last
}
