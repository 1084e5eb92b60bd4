package archive

import (
	"fmt"
	"math"
)

// RetrainSchedule is the fixed set of generation indices at which the
// descriptor model is retrained and the archive rebuilt. It is computed once
// from a base interval and a log frequency: the gaps between retrain events
// grow linearly, so early generations retrain often and late ones rarely.
type RetrainSchedule struct {
	generations map[int]struct{}
	ordered     []int
}

func NewRetrainSchedule(baseInterval, logFreq, horizon int) (RetrainSchedule, error) {
	if baseInterval <= 0 {
		return RetrainSchedule{}, fmt.Errorf("base interval must be > 0")
	}
	if logFreq <= 0 {
		return RetrainSchedule{}, fmt.Errorf("log frequency must be > 0")
	}
	if horizon <= 0 {
		return RetrainSchedule{}, fmt.Errorf("horizon must be > 0")
	}

	updateBase := int(math.Ceil(float64(baseInterval) / float64(logFreq)))
	generations := make(map[int]struct{})
	ordered := make([]int, 0)
	total := 0
	for step := updateBase; step < horizon; step += updateBase {
		total += step
		if total >= horizon {
			break
		}
		generations[total] = struct{}{}
		ordered = append(ordered, total)
	}
	return RetrainSchedule{generations: generations, ordered: ordered}, nil
}

// Contains reports whether retraining fires at generation index gen.
func (s RetrainSchedule) Contains(gen int) bool {
	_, ok := s.generations[gen]
	return ok
}

// Generations returns the scheduled retrain points in ascending order.
func (s RetrainSchedule) Generations() []int {
	return append([]int(nil), s.ordered...)
}
