package logging

import "testing"

func TestProgressSamplerSteps(t *testing.T) {
	s := NewProgressSampler(25)
	var logged []int
	for done := 1; done <= 20; done++ {
		if s.ShouldLog(done, 20) {
			logged = append(logged, done)
		}
	}
	want := []int{1, 5, 10, 15, 20}
	if len(logged) != len(want) {
		t.Fatalf("logged %v, want %v", logged, want)
	}
	for i := range want {
		if logged[i] != want[i] {
			t.Fatalf("logged %v, want %v", logged, want)
		}
	}
}

func TestProgressSamplerEdges(t *testing.T) {
	s := NewProgressSampler(0)
	if s.step != 10 {
		t.Fatalf("step = %d, want 10", s.step)
	}
	if s.ShouldLog(0, 5) || s.ShouldLog(1, 0) {
		t.Fatal("expected no record without progress")
	}
	if !s.ShouldLog(1, 1) {
		t.Fatal("single item run should log its only item")
	}
	s.Reset()
	if s.lastStep != -1 {
		t.Fatalf("reset left lastStep=%d", s.lastStep)
	}

	var nilSampler *ProgressSampler
	if !nilSampler.ShouldLog(3, 10) {
		t.Fatal("nil sampler should always log")
	}
	nilSampler.Reset()
}
