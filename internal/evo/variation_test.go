package evo

import (
	"math/rand"
	"testing"

	"proteus/internal/model"
)

func TestIsolineVariationPreservesBatchSize(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	variation := IsolineVariation{IsoSigma: 0.05, LineSigma: 0.1}

	parents := []model.Genotype{
		{0.1, 0.2, 0.3},
		{-0.4, 0.5, 0.6},
		{0.7, -0.8, 0.9},
	}
	offspring, err := variation.Apply(rng, parents)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(offspring) != len(parents) {
		t.Fatalf("expected %d offspring, got %d", len(parents), len(offspring))
	}
	for i, child := range offspring {
		if len(child) != len(parents[i]) {
			t.Fatalf("offspring %d size mismatch: got %d want %d", i, len(child), len(parents[i]))
		}
	}
}

func TestIsolineVariationZeroSigmasIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	variation := IsolineVariation{}

	parents := []model.Genotype{{0.1, 0.2}, {0.3, 0.4}}
	offspring, err := variation.Apply(rng, parents)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	for i, child := range offspring {
		for g := range child {
			if child[g] != parents[i][g] {
				t.Fatalf("offspring %d gene %d changed: got %f want %f", i, g, child[g], parents[i][g])
			}
		}
	}
}

func TestIsolineVariationDoesNotMutateParents(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	variation := IsolineVariation{IsoSigma: 0.5, LineSigma: 0.5}

	parents := []model.Genotype{{0.1, 0.2}, {0.3, 0.4}}
	snapshot := []model.Genotype{parents[0].Clone(), parents[1].Clone()}

	if _, err := variation.Apply(rng, parents); err != nil {
		t.Fatalf("apply: %v", err)
	}
	for i := range parents {
		for g := range parents[i] {
			if parents[i][g] != snapshot[i][g] {
				t.Fatalf("parent %d gene %d mutated: got %f want %f", i, g, parents[i][g], snapshot[i][g])
			}
		}
	}
}

func TestIsolineVariationRejectsInvalidInput(t *testing.T) {
	variation := IsolineVariation{IsoSigma: 0.1, LineSigma: 0.1}

	if _, err := variation.Apply(nil, []model.Genotype{{0.1}}); err == nil {
		t.Fatal("expected error for nil random source")
	}

	rng := rand.New(rand.NewSource(7))
	if _, err := variation.Apply(rng, nil); err == nil {
		t.Fatal("expected error for empty parent batch")
	}
	if _, err := variation.Apply(rng, []model.Genotype{{0.1, 0.2}, {0.3}}); err == nil {
		t.Fatal("expected error for parent size mismatch")
	}

	negative := IsolineVariation{IsoSigma: -0.1}
	if _, err := negative.Apply(rng, []model.Genotype{{0.1}}); err == nil {
		t.Fatal("expected error for negative sigma")
	}
}
