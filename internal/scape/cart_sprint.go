package scape

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"proteus/internal/model"
)

// CartSprintScape is a 1D force-control task. The policy reads (position,
// velocity) and outputs a bounded force; reward favors staying near the
// center. The observation trace is the subsampled (x, v) path.
type CartSprintScape struct{}

const (
	cartSprintSteps       = 100
	cartSprintSample      = 4
	cartSprintTraceLength = 25
	cartSprintObsSize     = 2
)

func (CartSprintScape) Name() string {
	return "cart-sprint"
}

// Two inputs (x, v), one output (force) with a bias.
func (CartSprintScape) GenotypeSize() int {
	return 2 + 1
}

func (CartSprintScape) ObservationSize() int {
	return cartSprintObsSize
}

func (CartSprintScape) TraceLength() int {
	return cartSprintTraceLength
}

func (s CartSprintScape) SeedGenotype(rng *rand.Rand) model.Genotype {
	genotype := make(model.Genotype, s.GenotypeSize())
	for i := range genotype {
		genotype[i] = (rng.Float64()*2 - 1) * 0.5
	}
	return genotype
}

func (s CartSprintScape) Evaluate(ctx context.Context, genotype model.Genotype) (float64, model.Trace, error) {
	if len(genotype) != s.GenotypeSize() {
		return 0, model.Trace{}, fmt.Errorf("cart-sprint genotype size mismatch: got=%d want=%d", len(genotype), s.GenotypeSize())
	}

	x, v := 0.8, 0.0
	states := make([][]float64, 0, cartSprintSteps)
	totalReward := 0.0
	stepsSurvived := 0

	for step := 0; step < cartSprintSteps; step++ {
		if err := ctx.Err(); err != nil {
			return 0, model.Trace{}, err
		}

		states = append(states, []float64{x, v})

		force := math.Tanh(genotype[0]*x + genotype[1]*v + genotype[2])
		var reward float64
		x, v, reward = cartSprintStep(x, v, force)
		totalReward += reward
		stepsSurvived++
		if math.Abs(x) > 2.0 {
			break
		}
	}

	fitness := totalReward / float64(stepsSurvived)
	trace := recordTrace(states, cartSprintTraceLength, cartSprintSample, cartSprintObsSize)
	return fitness, trace, nil
}

func cartSprintStep(x, v, force float64) (nextX, nextV, reward float64) {
	const (
		dt     = 0.1
		kPos   = 0.45
		kVel   = 0.15
		forceK = 1.25
	)
	acc := forceK*force - kPos*x - kVel*v
	v = v + acc*dt
	x = x + v*dt
	reward = 1.0 - math.Min(1.0, math.Abs(x)/2.0)
	return x, v, reward
}
