package scape

import (
	"context"
	"math"
	"math/rand"
	"testing"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"", "point-walk", "cart-sprint"} {
		if _, err := ByName(name); err != nil {
			t.Fatalf("scape %q: %v", name, err)
		}
	}
	if _, err := ByName("flatland"); err == nil {
		t.Fatalf("expected error for unknown scape")
	}
}

func TestScapesProduceFiniteFitnessAndFixedTraces(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	scapes := []Scape{PointWalkScape{}, CartSprintScape{}}

	for _, s := range scapes {
		genotype := s.SeedGenotype(rng)
		if len(genotype) != s.GenotypeSize() {
			t.Fatalf("%s: seed genotype size %d, want %d", s.Name(), len(genotype), s.GenotypeSize())
		}

		fitness, trace, err := s.Evaluate(context.Background(), genotype)
		if err != nil {
			t.Fatalf("%s: evaluate: %v", s.Name(), err)
		}
		if math.IsInf(fitness, 0) || math.IsNaN(fitness) {
			t.Fatalf("%s: fitness must be finite, got %f", s.Name(), fitness)
		}
		if len(trace.Steps) != s.TraceLength() {
			t.Fatalf("%s: trace has %d steps, want %d", s.Name(), len(trace.Steps), s.TraceLength())
		}
		if trace.Length <= 0 || trace.Length > s.TraceLength() {
			t.Fatalf("%s: invalid valid-prefix length %d", s.Name(), trace.Length)
		}
		for i, step := range trace.Steps {
			if len(step) != s.ObservationSize() {
				t.Fatalf("%s: step %d has %d features, want %d", s.Name(), i, len(step), s.ObservationSize())
			}
		}
	}
}

func TestEvaluateRejectsWrongGenotypeSize(t *testing.T) {
	ctx := context.Background()
	if _, _, err := (PointWalkScape{}).Evaluate(ctx, nil); err == nil {
		t.Fatalf("point-walk: expected genotype size error")
	}
	if _, _, err := (CartSprintScape{}).Evaluate(ctx, nil); err == nil {
		t.Fatalf("cart-sprint: expected genotype size error")
	}
}

func TestEvaluateIsDeterministicPerGenotype(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	s := PointWalkScape{}
	genotype := s.SeedGenotype(rng)

	f1, t1, err := s.Evaluate(context.Background(), genotype)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	f2, t2, err := s.Evaluate(context.Background(), genotype)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if f1 != f2 {
		t.Fatalf("fitness not deterministic: %f vs %f", f1, f2)
	}
	for i := range t1.Steps {
		for j := range t1.Steps[i] {
			if t1.Steps[i][j] != t2.Steps[i][j] {
				t.Fatalf("trace not deterministic at step %d", i)
			}
		}
	}
}
