package encoder

import (
	"context"
	"errors"
	"math"
	"math/rand"

	"proteus/internal/model"
)

// Trainer replaces a model's parameters and normalization statistics as one
// atomic unit, given the archive occupants' observations. The weight-update
// procedure behind this interface is opaque to the rest of the system.
type Trainer interface {
	Name() string
	Train(ctx context.Context, m Model, observations []model.Trace) (Model, error)
}

// HillClimbTrainer minimizes the reconstruction loss with a fixed budget of
// annealed stochastic perturbations: each attempt perturbs a random subset of
// the parameters and keeps the candidate only when the loss improves. The
// budget is Attempts * Candidates loss evaluations.
type HillClimbTrainer struct {
	Rand         *rand.Rand
	Attempts     int
	Candidates   int
	StepSize     float64
	Annealing    float64
	TeacherForce bool
}

func (t *HillClimbTrainer) Name() string {
	return "hillclimb_reconstruction"
}

func (t *HillClimbTrainer) Train(ctx context.Context, m Model, observations []model.Trace) (Model, error) {
	if err := ctx.Err(); err != nil {
		return Model{}, err
	}
	if t == nil || t.Rand == nil {
		return Model{}, errors.New("random source is required")
	}
	if t.Attempts <= 0 {
		return Model{}, errors.New("attempts must be > 0")
	}
	if t.Candidates <= 0 {
		return Model{}, errors.New("candidates must be > 0")
	}
	if t.StepSize <= 0 {
		return Model{}, errors.New("step size must be > 0")
	}
	if t.Annealing <= 0 || t.Annealing > 1 {
		return Model{}, errors.New("annealing factor must be in (0, 1]")
	}
	if len(observations) == 0 {
		return Model{}, errors.New("training requires at least one observation")
	}
	if err := m.validate(); err != nil {
		return Model{}, err
	}

	// New statistics first: the loss is defined in the normalized space the
	// retrained model will encode in.
	mean, std, err := ComputeNormalization(observations, m.ObsSize)
	if err != nil {
		return Model{}, err
	}
	best := m.clone()
	best.Mean = mean
	best.Std = std

	bestLoss, err := best.BatchLoss(observations, t.TeacherForce)
	if err != nil {
		return Model{}, err
	}

	mutationP := 1 / math.Sqrt(float64(len(best.Params)))
	for attempt := 0; attempt < t.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Model{}, err
		}
		spread := t.StepSize * math.Pow(t.Annealing, float64(attempt))
		for c := 0; c < t.Candidates; c++ {
			candidate := best.clone()
			touched := 0
			for i := range candidate.Params {
				if t.Rand.Float64() < mutationP {
					candidate.Params[i] += (t.Rand.Float64()*2 - 1) * spread
					touched++
				}
			}
			if touched == 0 {
				idx := t.Rand.Intn(len(candidate.Params))
				candidate.Params[idx] += (t.Rand.Float64()*2 - 1) * spread
			}
			loss, err := candidate.BatchLoss(observations, t.TeacherForce)
			if err != nil {
				return Model{}, err
			}
			if loss < bestLoss {
				best = candidate
				bestLoss = loss
			}
		}
	}

	best.Version = m.Version + 1
	return best, nil
}
