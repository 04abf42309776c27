package schedule

import "testing"

func wcetTable(m map[int]uint) func(int) uint {
	return func(id int) uint { return m[id] }
}

func TestAddFrameComputesSlack(t *testing.T) {
	s := New(5, 10)
	f, err := s.AddFrame([]int{0, 1, 2}, wcetTable(map[int]uint{0: 1, 1: 2, 2: 1}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Slack != 1 {
		t.Fatalf("slack = %d, want 1", f.Slack)
	}
	if s.NumFrames() != 1 {
		t.Fatalf("NumFrames = %d, want 1", s.NumFrames())
	}
}

func TestAddFrameRejectsNegativeSlack(t *testing.T) {
	s := New(2, 10)
	_, err := s.AddFrame([]int{0}, wcetTable(map[int]uint{0: 3}))
	if err == nil {
		t.Fatal("expected an error for negative slack, got nil")
	}
}

func TestZeroSlackFrame(t *testing.T) {
	s := New(3, 10)
	f, err := s.AddFrame([]int{0}, wcetTable(map[int]uint{0: 3}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Slack != 0 {
		t.Fatalf("slack = %d, want 0", f.Slack)
	}
}

func TestDegenerateFrame(t *testing.T) {
	s := New(4, 10)
	f, err := s.AddFrame(nil, wcetTable(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Slack != 4 {
		t.Fatalf("slack = %d, want frame_length (4)", f.Slack)
	}
}
