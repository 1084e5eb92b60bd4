package archive

import (
	"fmt"
	"math"

	"proteus/internal/model"
)

// EmptyFitness marks an unoccupied slot. No evaluation may produce it, so
// occupancy is defined everywhere as fitness != EmptyFitness.
var EmptyFitness = math.Inf(-1)

// Archive is an unstructured behavior repertoire: a fixed number of slots
// keyed by descriptor proximity under an insertion threshold. It is a value;
// every mutating operation returns a new Archive and leaves the receiver
// untouched, so readers can keep using a snapshot during an update.
type Archive struct {
	capacity  int
	threshold float64

	genotypes    []model.Genotype
	fitnesses    []float64
	descriptors  [][]float64
	observations []model.Trace
}

func New(capacity int, threshold float64) (Archive, error) {
	if capacity <= 0 {
		return Archive{}, fmt.Errorf("archive capacity must be > 0")
	}
	if threshold <= 0 {
		return Archive{}, fmt.Errorf("insertion threshold must be > 0")
	}

	fitnesses := make([]float64, capacity)
	for i := range fitnesses {
		fitnesses[i] = EmptyFitness
	}
	return Archive{
		capacity:     capacity,
		threshold:    threshold,
		genotypes:    make([]model.Genotype, capacity),
		fitnesses:    fitnesses,
		descriptors:  make([][]float64, capacity),
		observations: make([]model.Trace, capacity),
	}, nil
}

func (a Archive) Capacity() int {
	return a.capacity
}

func (a Archive) Threshold() float64 {
	return a.threshold
}

func (a Archive) Occupancy() int {
	count := 0
	for _, fitness := range a.fitnesses {
		if fitness != EmptyFitness {
			count++
		}
	}
	return count
}

func (a Archive) Occupied(slot int) bool {
	return a.fitnesses[slot] != EmptyFitness
}

func (a Archive) Fitness(slot int) float64 {
	return a.fitnesses[slot]
}

// Fitnesses returns a copy of all slot fitnesses; empty slots carry
// EmptyFitness.
func (a Archive) Fitnesses() []float64 {
	return append([]float64(nil), a.fitnesses...)
}

func (a Archive) Genotype(slot int) model.Genotype {
	return a.genotypes[slot].Clone()
}

func (a Archive) Descriptor(slot int) []float64 {
	return append([]float64(nil), a.descriptors[slot]...)
}

func (a Archive) Observation(slot int) model.Trace {
	return a.observations[slot].Clone()
}

// Occupants returns the occupied entries in ascending slot order.
func (a Archive) Occupants() []model.Individual {
	out := make([]model.Individual, 0, a.capacity)
	for slot := 0; slot < a.capacity; slot++ {
		if a.fitnesses[slot] == EmptyFitness {
			continue
		}
		out = append(out, model.Individual{
			Genotype:    a.genotypes[slot].Clone(),
			Fitness:     a.fitnesses[slot],
			Descriptor:  append([]float64(nil), a.descriptors[slot]...),
			Observation: a.observations[slot].Clone(),
		})
	}
	return out
}

// WithThreshold returns a copy of the archive carrying a new insertion
// threshold. Existing placements are kept; only future insertions see the
// new radius.
func (a Archive) WithThreshold(threshold float64) Archive {
	next := a.clone()
	next.threshold = threshold
	return next
}

// Insert resolves a batch of candidates against the archive and returns the
// updated archive plus a per-candidate added mask. Candidates are processed
// left to right against a working copy, so a candidate accepted earlier in
// the batch competes with the ones after it. A candidate whose nearest
// occupied neighbor is closer than the threshold contests that slot and wins
// only on strictly greater fitness; otherwise it claims the lowest free slot,
// or is dropped when the archive is at hard capacity. Insert never fails:
// dropped candidates are reported only through the mask.
func (a Archive) Insert(candidates []model.Individual) (Archive, []bool) {
	next := a.clone()
	added := make([]bool, len(candidates))

	for i, candidate := range candidates {
		if candidate.Fitness == EmptyFitness {
			continue
		}
		nearest, distance := next.nearestOccupied(candidate.Descriptor)
		if nearest >= 0 && distance < next.threshold {
			if candidate.Fitness > next.fitnesses[nearest] {
				next.write(nearest, candidate)
				added[i] = true
			}
			continue
		}
		free := next.lowestFreeSlot()
		if free < 0 {
			continue
		}
		next.write(free, candidate)
		added[i] = true
	}

	return next, added
}

// Rebuild starts from an empty archive with the same capacity and threshold
// and re-inserts every entry with its freshly computed descriptor, in the
// order given. Entries whose new descriptors collide resolve under the usual
// contested rule, so occupancy after a rebuild may be lower than before.
func (a Archive) Rebuild(entries []model.Individual, descriptors [][]float64) (Archive, error) {
	if len(entries) != len(descriptors) {
		return Archive{}, fmt.Errorf("rebuild mismatch: %d entries, %d descriptors", len(entries), len(descriptors))
	}

	next, err := New(a.capacity, a.threshold)
	if err != nil {
		return Archive{}, err
	}
	batch := make([]model.Individual, len(entries))
	for i, entry := range entries {
		batch[i] = model.Individual{
			Genotype:    entry.Genotype,
			Fitness:     entry.Fitness,
			Descriptor:  descriptors[i],
			Observation: entry.Observation,
		}
	}
	next, _ = next.Insert(batch)
	return next, nil
}

// Snapshot captures the archive for persistence.
func (a Archive) Snapshot() []model.Individual {
	return a.Occupants()
}

func (a Archive) nearestOccupied(descriptor []float64) (int, float64) {
	nearest := -1
	best := math.MaxFloat64
	for slot := 0; slot < a.capacity; slot++ {
		if a.fitnesses[slot] == EmptyFitness {
			continue
		}
		d := euclidean(descriptor, a.descriptors[slot])
		if d < best {
			best = d
			nearest = slot
		}
	}
	return nearest, best
}

func (a Archive) lowestFreeSlot() int {
	for slot := 0; slot < a.capacity; slot++ {
		if a.fitnesses[slot] == EmptyFitness {
			return slot
		}
	}
	return -1
}

func (a *Archive) write(slot int, candidate model.Individual) {
	a.genotypes[slot] = candidate.Genotype.Clone()
	a.fitnesses[slot] = candidate.Fitness
	a.descriptors[slot] = append([]float64(nil), candidate.Descriptor...)
	a.observations[slot] = candidate.Observation.Clone()
}

func (a Archive) clone() Archive {
	out := Archive{
		capacity:     a.capacity,
		threshold:    a.threshold,
		genotypes:    make([]model.Genotype, a.capacity),
		fitnesses:    append([]float64(nil), a.fitnesses...),
		descriptors:  make([][]float64, a.capacity),
		observations: make([]model.Trace, a.capacity),
	}
	for slot := 0; slot < a.capacity; slot++ {
		out.genotypes[slot] = a.genotypes[slot].Clone()
		out.descriptors[slot] = append([]float64(nil), a.descriptors[slot]...)
		out.observations[slot] = a.observations[slot].Clone()
	}
	return out
}

func euclidean(a, b []float64) float64 {
	total := 0.0
	for i := range a {
		diff := a[i] - b[i]
		total += diff * diff
	}
	return math.Sqrt(total)
}
