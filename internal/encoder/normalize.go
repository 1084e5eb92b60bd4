package encoder

import (
	"fmt"
	"math"

	"proteus/internal/model"
)

// ComputeNormalization derives per-feature mean and standard deviation from
// a batch of traces, across the batch and time axes, counting only valid
// steps. Zero-variance features get a unit deviation so normalization never
// divides by zero. An empty or all-padding batch is a precondition failure.
func ComputeNormalization(traces []model.Trace, obsSize int) ([]float64, []float64, error) {
	if len(traces) == 0 {
		return nil, nil, fmt.Errorf("normalization requires at least one trace")
	}
	if obsSize <= 0 {
		return nil, nil, fmt.Errorf("observation size must be > 0")
	}

	mean := make([]float64, obsSize)
	count := 0
	for _, trace := range traces {
		steps := trace.Length
		if steps > len(trace.Steps) {
			steps = len(trace.Steps)
		}
		for t := 0; t < steps; t++ {
			step := trace.Steps[t]
			if len(step) != obsSize {
				return nil, nil, fmt.Errorf("trace step has %d features, expected %d", len(step), obsSize)
			}
			for i := range mean {
				mean[i] += step[i]
			}
			count++
		}
	}
	if count == 0 {
		return nil, nil, fmt.Errorf("normalization requires at least one valid step")
	}
	for i := range mean {
		mean[i] /= float64(count)
	}

	std := make([]float64, obsSize)
	for _, trace := range traces {
		steps := trace.Length
		if steps > len(trace.Steps) {
			steps = len(trace.Steps)
		}
		for t := 0; t < steps; t++ {
			for i, v := range trace.Steps[t] {
				diff := v - mean[i]
				std[i] += diff * diff
			}
		}
	}
	for i := range std {
		std[i] = math.Sqrt(std[i] / float64(count))
		if std[i] == 0 {
			std[i] = 1.0
		}
	}
	return mean, std, nil
}
