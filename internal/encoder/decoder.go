package encoder

import (
	"fmt"

	"proteus/internal/model"
)

// Reconstruct decodes a trace back out of its descriptor. The decoder is a
// recurrent cell seeded with the descriptor; at each step it consumes either
// the previous ground-truth observation (teacher forcing) or its own previous
// prediction, and emits one reconstructed observation through a linear
// readout. Predictions are in normalized space.
func (m Model) Reconstruct(descriptor []float64, trace model.Trace, teacherForce bool) ([][]float64, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	if len(descriptor) != m.HiddenSize {
		return nil, fmt.Errorf("descriptor size mismatch: got=%d want=%d", len(descriptor), m.HiddenSize)
	}

	steps := trace.Length
	if steps > len(trace.Steps) {
		steps = len(trace.Steps)
	}

	o := layoutFor(m.ObsSize, m.HiddenSize)
	state := append([]float64(nil), descriptor...)
	next := make([]float64, m.HiddenSize)
	input := make([]float64, m.ObsSize)
	predictions := make([][]float64, steps)

	for t := 0; t < steps; t++ {
		if t > 0 {
			if teacherForce {
				prev := trace.Steps[t-1]
				if len(prev) != m.ObsSize {
					return nil, fmt.Errorf("trace step %d: expected %d features, got %d", t-1, m.ObsSize, len(prev))
				}
				for i := range input {
					input[i] = (prev[i] - m.Mean[i]) / m.Std[i]
				}
			} else {
				copy(input, predictions[t-1])
			}
		} else {
			for i := range input {
				input[i] = 0
			}
		}

		m.cell(o.decWx, o.decWh, o.decB, input, state, next)
		state, next = next, state

		out := make([]float64, m.ObsSize)
		for i := 0; i < m.ObsSize; i++ {
			total := m.Params[o.outB+i]
			row := o.outW + i*m.HiddenSize
			for j := 0; j < m.HiddenSize; j++ {
				total += m.Params[row+j] * state[j]
			}
			out[i] = total
		}
		predictions[t] = out
	}
	return predictions, nil
}

// ReconstructionLoss is the mean squared error between the decoder output
// and the normalized trace over its valid prefix. This is the quantity a
// trainer minimizes.
func (m Model) ReconstructionLoss(trace model.Trace, teacherForce bool) (float64, error) {
	descriptor, err := m.Encode(trace)
	if err != nil {
		return 0, err
	}
	predictions, err := m.Reconstruct(descriptor, trace, teacherForce)
	if err != nil {
		return 0, err
	}
	if len(predictions) == 0 {
		return 0, nil
	}

	total := 0.0
	count := 0
	for t, prediction := range predictions {
		step := trace.Steps[t]
		for i := range prediction {
			target := (step[i] - m.Mean[i]) / m.Std[i]
			diff := prediction[i] - target
			total += diff * diff
			count++
		}
	}
	return total / float64(count), nil
}

// BatchLoss averages the reconstruction loss over a batch of traces.
func (m Model) BatchLoss(traces []model.Trace, teacherForce bool) (float64, error) {
	if len(traces) == 0 {
		return 0, fmt.Errorf("loss requires at least one trace")
	}
	total := 0.0
	for i, trace := range traces {
		loss, err := m.ReconstructionLoss(trace, teacherForce)
		if err != nil {
			return 0, fmt.Errorf("trace %d: %w", i, err)
		}
		total += loss
	}
	return total / float64(len(traces)), nil
}
