package scape

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"proteus/internal/model"
)

// PointWalkScape is a 2D navigation task. A point agent starts at the origin
// and is steered by a linear-tanh policy decoded from the genotype; reward
// grows as the agent closes on the goal. The observation trace is the
// subsampled position path, which makes behaviors with equal fitness but
// different routes distinguishable to a learned descriptor.
type PointWalkScape struct{}

const (
	pointWalkSteps       = 100
	pointWalkSample      = 4
	pointWalkTraceLength = 25
	pointWalkObsSize     = 2
	pointWalkBound       = 2.0
	pointWalkStepScale   = 0.05
)

var pointWalkGoal = [2]float64{1.0, 1.0}

func (PointWalkScape) Name() string {
	return "point-walk"
}

// Two inputs (x, y), two outputs (dx, dy): weights plus bias per output.
func (PointWalkScape) GenotypeSize() int {
	return 2*2 + 2
}

func (PointWalkScape) ObservationSize() int {
	return pointWalkObsSize
}

func (PointWalkScape) TraceLength() int {
	return pointWalkTraceLength
}

func (s PointWalkScape) SeedGenotype(rng *rand.Rand) model.Genotype {
	genotype := make(model.Genotype, s.GenotypeSize())
	for i := range genotype {
		genotype[i] = (rng.Float64()*2 - 1) * 0.5
	}
	return genotype
}

func (s PointWalkScape) Evaluate(ctx context.Context, genotype model.Genotype) (float64, model.Trace, error) {
	if len(genotype) != s.GenotypeSize() {
		return 0, model.Trace{}, fmt.Errorf("point-walk genotype size mismatch: got=%d want=%d", len(genotype), s.GenotypeSize())
	}

	x, y := 0.0, 0.0
	states := make([][]float64, 0, pointWalkSteps)
	totalReward := 0.0

	for step := 0; step < pointWalkSteps; step++ {
		if err := ctx.Err(); err != nil {
			return 0, model.Trace{}, err
		}

		states = append(states, []float64{x, y})

		dx := math.Tanh(genotype[0]*x + genotype[1]*y + genotype[4])
		dy := math.Tanh(genotype[2]*x + genotype[3]*y + genotype[5])
		x = clamp(x+dx*pointWalkStepScale, -pointWalkBound, pointWalkBound)
		y = clamp(y+dy*pointWalkStepScale, -pointWalkBound, pointWalkBound)

		dist := math.Hypot(x-pointWalkGoal[0], y-pointWalkGoal[1])
		totalReward += 1.0 - math.Min(1.0, dist/(2*pointWalkBound))
	}

	fitness := totalReward / pointWalkSteps
	trace := recordTrace(states, pointWalkTraceLength, pointWalkSample, pointWalkObsSize)
	return fitness, trace, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
