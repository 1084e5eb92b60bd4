package encoder

import (
	"fmt"
	"math"
	"math/rand"

	"proteus/internal/model"
)

// Model is the descriptor network state: recurrent encoder and decoder
// parameters plus the normalization statistics they were trained with.
// Params, Mean, and Std form one atomic unit — descriptors computed under
// different versions are never comparable, and Version exists so callers can
// enforce that.
type Model struct {
	ObsSize    int       `json:"obs_size"`
	HiddenSize int       `json:"hidden_size"`
	Version    int       `json:"version"`
	Params     []float64 `json:"params"`
	Mean       []float64 `json:"mean"`
	Std        []float64 `json:"std"`
}

// Parameter layout, in order: encoder input weights [H x D], encoder
// recurrent weights [H x H], encoder bias [H], decoder input weights [H x D],
// decoder recurrent weights [H x H], decoder bias [H], readout weights
// [D x H], readout bias [D].
func paramCount(obsSize, hiddenSize int) int {
	return 2*(hiddenSize*obsSize+hiddenSize*hiddenSize+hiddenSize) + obsSize*hiddenSize + obsSize
}

type offsets struct {
	encWx, encWh, encB  int
	decWx, decWh, decB  int
	outW, outB          int
	obsSize, hiddenSize int
}

func layoutFor(obsSize, hiddenSize int) offsets {
	o := offsets{obsSize: obsSize, hiddenSize: hiddenSize}
	o.encWx = 0
	o.encWh = o.encWx + hiddenSize*obsSize
	o.encB = o.encWh + hiddenSize*hiddenSize
	o.decWx = o.encB + hiddenSize
	o.decWh = o.decWx + hiddenSize*obsSize
	o.decB = o.decWh + hiddenSize*hiddenSize
	o.outW = o.decB + hiddenSize
	o.outB = o.outW + obsSize*hiddenSize
	return o
}

// NewModel builds version-zero parameters with small random weights, zero
// means, and unit deviations.
func NewModel(obsSize, hiddenSize int, rng *rand.Rand) (Model, error) {
	if obsSize <= 0 {
		return Model{}, fmt.Errorf("observation size must be > 0")
	}
	if hiddenSize <= 0 {
		return Model{}, fmt.Errorf("hidden size must be > 0")
	}
	if rng == nil {
		return Model{}, fmt.Errorf("random source is required")
	}

	params := make([]float64, paramCount(obsSize, hiddenSize))
	scale := 1.0 / math.Sqrt(float64(obsSize+hiddenSize))
	for i := range params {
		params[i] = (rng.Float64()*2 - 1) * scale
	}
	mean := make([]float64, obsSize)
	std := make([]float64, obsSize)
	for i := range std {
		std[i] = 1.0
	}
	return Model{
		ObsSize:    obsSize,
		HiddenSize: hiddenSize,
		Params:     params,
		Mean:       mean,
		Std:        std,
	}, nil
}

func (m Model) validate() error {
	if m.ObsSize <= 0 || m.HiddenSize <= 0 {
		return fmt.Errorf("model dimensions are unset")
	}
	if len(m.Params) != paramCount(m.ObsSize, m.HiddenSize) {
		return fmt.Errorf("parameter count mismatch: got=%d want=%d", len(m.Params), paramCount(m.ObsSize, m.HiddenSize))
	}
	if len(m.Mean) != m.ObsSize || len(m.Std) != m.ObsSize {
		return fmt.Errorf("normalization statistics mismatch: mean=%d std=%d obs=%d", len(m.Mean), len(m.Std), m.ObsSize)
	}
	return nil
}

func (m Model) clone() Model {
	out := m
	out.Params = append([]float64(nil), m.Params...)
	out.Mean = append([]float64(nil), m.Mean...)
	out.Std = append([]float64(nil), m.Std...)
	return out
}

// Encode runs the recurrent encoder over a trace and returns the final
// hidden state as the behavior descriptor. The input is normalized with the
// model's statistics, the recurrence stops at the trace's valid length and
// holds its state constant over padding, and the call has no side effects:
// identical inputs under identical model state always yield identical
// descriptors.
func (m Model) Encode(trace model.Trace) ([]float64, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	o := layoutFor(m.ObsSize, m.HiddenSize)
	h := make([]float64, m.HiddenSize)
	next := make([]float64, m.HiddenSize)
	x := make([]float64, m.ObsSize)

	steps := trace.Length
	if steps > len(trace.Steps) {
		steps = len(trace.Steps)
	}
	for t := 0; t < steps; t++ {
		step := trace.Steps[t]
		if len(step) != m.ObsSize {
			return nil, fmt.Errorf("trace step %d: expected %d features, got %d", t, m.ObsSize, len(step))
		}
		for i := range x {
			x[i] = (step[i] - m.Mean[i]) / m.Std[i]
		}
		m.cell(o.encWx, o.encWh, o.encB, x, h, next)
		h, next = next, h
	}
	return append([]float64(nil), h...), nil
}

// EncodeBatch encodes every trace under the same model state.
func (m Model) EncodeBatch(traces []model.Trace) ([][]float64, error) {
	out := make([][]float64, len(traces))
	for i, trace := range traces {
		descriptor, err := m.Encode(trace)
		if err != nil {
			return nil, fmt.Errorf("encode trace %d: %w", i, err)
		}
		out[i] = descriptor
	}
	return out, nil
}

// cell computes dst = tanh(Wx*x + Wh*h + b) for the weight block starting at
// the given offsets.
func (m Model) cell(wx, wh, b int, x, h, dst []float64) {
	hidden := m.HiddenSize
	obs := len(x)
	for i := 0; i < hidden; i++ {
		total := m.Params[b+i]
		rowX := wx + i*obs
		for j := 0; j < obs; j++ {
			total += m.Params[rowX+j] * x[j]
		}
		rowH := wh + i*hidden
		for j := 0; j < hidden; j++ {
			total += m.Params[rowH+j] * h[j]
		}
		dst[i] = math.Tanh(total)
	}
}
