package rategate

import (
	"github.com/emirpasic/gods/queues/linkedlistqueue"
)

// schedule is the FIFO of pending release ticks, one per admission. Every
// entry carries the same offset from its admission time, so appending in
// admission order keeps the queue sorted and the head is always earliest.
//
// schedule is not synchronized; the gate guards it with its mutex.
type schedule struct {
	q *linkedlistqueue.Queue
}

func newSchedule() *schedule {
	return &schedule{q: linkedlistqueue.New()}
}

func (s *schedule) push(due tick) {
	s.q.Enqueue(due)
}

func (s *schedule) peek() (tick, bool) {
	v, ok := s.q.Peek()
	if !ok {
		return 0, false
	}
	return v.(tick), true
}

func (s *schedule) pop() (tick, bool) {
	v, ok := s.q.Dequeue()
	if !ok {
		return 0, false
	}
	return v.(tick), true
}

func (s *schedule) len() int {
	return s.q.Size()
}

func (s *schedule) clear() {
	s.q.Clear()
}
