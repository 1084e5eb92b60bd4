package archive

import (
	"testing"
)

func TestNewRetrainScheduleValidatesConfig(t *testing.T) {
	if _, err := NewRetrainSchedule(0, 5, 1000); err == nil {
		t.Fatalf("expected error for zero base interval")
	}
	if _, err := NewRetrainSchedule(10, 0, 1000); err == nil {
		t.Fatalf("expected error for zero log frequency")
	}
	if _, err := NewRetrainSchedule(10, 5, 0); err == nil {
		t.Fatalf("expected error for zero horizon")
	}
}

func TestRetrainScheduleCumulativeRamp(t *testing.T) {
	// base 10, log freq 5 -> update base 2 -> retrain points 2, 6, 12, 20, ...
	s, err := NewRetrainSchedule(10, 5, 100)
	if err != nil {
		t.Fatalf("new schedule: %v", err)
	}

	want := []int{2, 6, 12, 20, 30, 42, 56, 72, 90}
	got := s.Generations()
	if len(got) != len(want) {
		t.Fatalf("expected %d retrain points, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("schedule[%d]: expected %d, got %d", i, want[i], got[i])
		}
	}

	for _, gen := range want {
		if !s.Contains(gen) {
			t.Fatalf("expected schedule to contain generation %d", gen)
		}
	}
	for _, gen := range []int{0, 1, 3, 7, 91, 110} {
		if s.Contains(gen) {
			t.Fatalf("schedule should not contain generation %d", gen)
		}
	}
}

func TestRetrainScheduleRoundsUpdateBaseUp(t *testing.T) {
	// base 10, log freq 4 -> ceil(10/4) = 3 -> points 3, 9, 18, ...
	s, err := NewRetrainSchedule(10, 4, 20)
	if err != nil {
		t.Fatalf("new schedule: %v", err)
	}
	got := s.Generations()
	want := []int{3, 9, 18}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
