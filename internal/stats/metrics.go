package stats

import (
	"proteus/internal/archive"
)

// Metrics are the read-only aggregate statistics of an archive snapshot.
type Metrics struct {
	Occupancy  int     `json:"occupancy"`
	QDScore    float64 `json:"qd_score"`
	Coverage   float64 `json:"coverage"`
	MaxFitness float64 `json:"max_fitness"`
}

// ArchiveMetrics computes QD score (total fitness over occupied slots),
// coverage percentage, and max fitness for a snapshot. An empty archive
// reports a zero max rather than the empty sentinel.
func ArchiveMetrics(a archive.Archive) Metrics {
	occupancy := 0
	qdScore := 0.0
	maxFitness := 0.0
	first := true

	for _, fitness := range a.Fitnesses() {
		if fitness == archive.EmptyFitness {
			continue
		}
		occupancy++
		qdScore += fitness
		if first || fitness > maxFitness {
			maxFitness = fitness
			first = false
		}
	}

	return Metrics{
		Occupancy:  occupancy,
		QDScore:    qdScore,
		Coverage:   100 * float64(occupancy) / float64(a.Capacity()),
		MaxFitness: maxFitness,
	}
}
