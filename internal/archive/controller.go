package archive

import "fmt"

// DensityController nudges the insertion threshold toward a target archive
// occupancy with a discrete proportional-derivative law. Growing the
// threshold makes more candidates contested and shrinks occupancy; shrinking
// it grows occupancy.
type DensityController struct {
	target        int
	gain          float64
	minThreshold  float64
	maxThreshold  float64
	previousError float64
}

type ControllerConfig struct {
	TargetOccupancy int
	Gain            float64
	MinThreshold    float64
	MaxThreshold    float64
	// InitialOccupancy seeds the derivative term so the first step does not
	// see a spurious error jump from zero.
	InitialOccupancy int
}

func NewDensityController(cfg ControllerConfig) (*DensityController, error) {
	if cfg.TargetOccupancy <= 0 {
		return nil, fmt.Errorf("target occupancy must be > 0")
	}
	if cfg.Gain <= 0 {
		return nil, fmt.Errorf("controller gain must be > 0")
	}
	if cfg.MinThreshold <= 0 {
		return nil, fmt.Errorf("min threshold must be > 0")
	}
	if cfg.MaxThreshold <= cfg.MinThreshold {
		return nil, fmt.Errorf("max threshold must be > min threshold")
	}
	if cfg.InitialOccupancy < 0 {
		return nil, fmt.Errorf("initial occupancy must be >= 0")
	}

	return &DensityController{
		target:        cfg.TargetOccupancy,
		gain:          cfg.Gain,
		minThreshold:  cfg.MinThreshold,
		maxThreshold:  cfg.MaxThreshold,
		previousError: float64(cfg.InitialOccupancy - cfg.TargetOccupancy),
	}, nil
}

func (c *DensityController) Target() int {
	return c.target
}

// Step consumes the current occupancy and threshold and returns the corrected
// threshold, clamped so it can never collapse to zero or diverge. The
// controller state advances on every call.
func (c *DensityController) Step(occupancy int, threshold float64) float64 {
	err := float64(occupancy - c.target)
	delta := err - c.previousError
	c.previousError = err

	next := threshold + c.gain*err + c.gain*delta
	if next < c.minThreshold {
		next = c.minThreshold
	}
	if next > c.maxThreshold {
		next = c.maxThreshold
	}
	return next
}
