package rategate

import "testing"

func TestSchedule_FIFO(t *testing.T) {
	s := newSchedule()

	if _, ok := s.peek(); ok {
		t.Error("peek on empty schedule returned ok")
	}
	if _, ok := s.pop(); ok {
		t.Error("pop on empty schedule returned ok")
	}

	for _, due := range []tick{10, 20, 30} {
		s.push(due)
	}
	if s.len() != 3 {
		t.Fatalf("len() = %d, want 3", s.len())
	}

	if head, _ := s.peek(); head != 10 {
		t.Errorf("peek() = %d, want 10", head)
	}
	for _, want := range []tick{10, 20, 30} {
		got, ok := s.pop()
		if !ok || got != want {
			t.Errorf("pop() = (%d, %v), want (%d, true)", got, ok, want)
		}
	}

	s.push(1)
	s.push(2)
	s.clear()
	if s.len() != 0 {
		t.Errorf("len() after clear = %d, want 0", s.len())
	}
}
