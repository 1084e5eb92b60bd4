package evo

import (
	"fmt"
	"math/rand"

	"proteus/internal/model"
)

// Variation produces offspring genotypes from sampled parents. It is pure
// with respect to the archive: no shared state, batch size preserved.
type Variation interface {
	Name() string
	Apply(rng *rand.Rand, parents []model.Genotype) ([]model.Genotype, error)
}

// IsolineVariation blends consecutive parent pairs: each offspring is the
// first parent plus isotropic Gaussian noise plus Gaussian noise along the
// line to the second parent. One offspring per parent; the pair partner is
// the next parent in the batch, wrapping around.
type IsolineVariation struct {
	IsoSigma  float64
	LineSigma float64
}

func (IsolineVariation) Name() string {
	return "isoline"
}

func (v IsolineVariation) Apply(rng *rand.Rand, parents []model.Genotype) ([]model.Genotype, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if v.IsoSigma < 0 || v.LineSigma < 0 {
		return nil, fmt.Errorf("variation sigmas must be >= 0")
	}
	if len(parents) == 0 {
		return nil, fmt.Errorf("variation requires at least one parent")
	}

	offspring := make([]model.Genotype, len(parents))
	for i, parent := range parents {
		partner := parents[(i+1)%len(parents)]
		if len(partner) != len(parent) {
			return nil, fmt.Errorf("parent size mismatch: %d vs %d", len(parent), len(partner))
		}
		child := parent.Clone()
		lineScale := rng.NormFloat64() * v.LineSigma
		for g := range child {
			child[g] += rng.NormFloat64()*v.IsoSigma + lineScale*(partner[g]-parent[g])
		}
		offspring[i] = child
	}
	return offspring, nil
}
