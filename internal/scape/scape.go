package scape

import (
	"context"
	"fmt"
	"math/rand"

	"proteus/internal/model"
)

// Scape is a scoring collaborator: it rolls a genotype through a simulated
// task and returns a scalar fitness plus the fixed-length observation trace
// the behavior descriptor is learned from. A scape owns the meaning of the
// genotype blob; nothing else inspects it.
type Scape interface {
	Name() string
	GenotypeSize() int
	ObservationSize() int
	TraceLength() int
	SeedGenotype(rng *rand.Rand) model.Genotype
	Evaluate(ctx context.Context, genotype model.Genotype) (float64, model.Trace, error)
}

// ByName resolves the built-in scapes.
func ByName(name string) (Scape, error) {
	switch name {
	case "", "point-walk":
		return PointWalkScape{}, nil
	case "cart-sprint":
		return CartSprintScape{}, nil
	default:
		return nil, fmt.Errorf("unsupported scape: %s", name)
	}
}

// recordTrace subsamples a rolled-out state sequence into the fixed trace
// geometry a scape advertises. Unfilled steps stay zero padding.
func recordTrace(states [][]float64, traceLength, every, obsSize int) model.Trace {
	steps := make([][]float64, traceLength)
	for i := range steps {
		steps[i] = make([]float64, obsSize)
	}
	length := 0
	for i := 0; i < len(states) && length < traceLength; i += every {
		copy(steps[length], states[i])
		length++
	}
	return model.Trace{Steps: steps, Length: length}
}
