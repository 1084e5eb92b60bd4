package evo

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"proteus/internal/archive"
	"proteus/internal/encoder"
	"proteus/internal/model"
	"proteus/internal/scape"
	"proteus/internal/stats"
)

type OrchestratorConfig struct {
	Scape     scape.Scape
	Variation Variation
	Trainer   encoder.Trainer

	Capacity         int
	TargetOccupancy  int
	InitialThreshold float64
	MinThreshold     float64
	MaxThreshold     float64
	ControllerGain   float64
	// ControllerCadence is the generation stride of threshold updates
	// (counted 1-based, so a cadence of 2 fires on every even generation).
	ControllerCadence int

	// RetrainBase and LogFreq shape the retrain schedule ramp.
	RetrainBase int
	LogFreq     int

	BatchSize   int
	Generations int
	HiddenSize  int
	Workers     int
	Seed        int64
}

type RunResult struct {
	Diagnostics []model.GenerationDiagnostics
	Checkpoints []model.ArchiveSnapshot
	Archive     archive.Archive
	Model       encoder.Model
}

// Orchestrator drives the generation loop: sample parents from the archive,
// vary, score, encode, insert, and on schedule retrain the descriptor model
// and rebuild the whole archive in the new descriptor space. The archive,
// model, and controller are threaded state; every generation replaces them
// wholesale, so no partial state is ever observable.
type Orchestrator struct {
	cfg OrchestratorConfig
	rng *rand.Rand
}

func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Scape == nil {
		return nil, fmt.Errorf("scape is required")
	}
	if cfg.Variation == nil {
		return nil, fmt.Errorf("variation operator is required")
	}
	if cfg.Trainer == nil {
		return nil, fmt.Errorf("trainer is required")
	}
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("archive capacity must be > 0")
	}
	if cfg.TargetOccupancy <= 0 || cfg.TargetOccupancy > cfg.Capacity {
		return nil, fmt.Errorf("target occupancy must be in [1, capacity]")
	}
	if cfg.InitialThreshold <= 0 {
		return nil, fmt.Errorf("initial threshold must be > 0")
	}
	if cfg.MinThreshold <= 0 || cfg.MaxThreshold <= cfg.MinThreshold {
		return nil, fmt.Errorf("threshold bounds are invalid")
	}
	if cfg.ControllerGain <= 0 {
		return nil, fmt.Errorf("controller gain must be > 0")
	}
	if cfg.ControllerCadence <= 0 {
		return nil, fmt.Errorf("controller cadence must be > 0")
	}
	if cfg.RetrainBase <= 0 || cfg.LogFreq <= 0 {
		return nil, fmt.Errorf("retrain schedule parameters must be > 0")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be > 0")
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0")
	}
	if cfg.HiddenSize <= 0 {
		return nil, fmt.Errorf("hidden size must be > 0")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	return &Orchestrator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (o *Orchestrator) Run(ctx context.Context) (RunResult, error) {
	descModel, err := encoder.NewModel(o.cfg.Scape.ObservationSize(), o.cfg.HiddenSize, o.rng)
	if err != nil {
		return RunResult{}, err
	}
	repo, err := archive.New(o.cfg.Capacity, o.cfg.InitialThreshold)
	if err != nil {
		return RunResult{}, err
	}
	schedule, err := archive.NewRetrainSchedule(o.cfg.RetrainBase, o.cfg.LogFreq, o.cfg.Generations+1)
	if err != nil {
		return RunResult{}, err
	}

	// Seed the archive with random genotypes, then fit the model once on
	// the seed behaviors and re-place everything in the learned space.
	seeds := make([]model.Genotype, o.cfg.BatchSize)
	for i := range seeds {
		seeds[i] = o.cfg.Scape.SeedGenotype(o.rng)
	}
	candidates, err := o.scoreAndEncode(ctx, seeds, descModel)
	if err != nil {
		return RunResult{}, err
	}
	repo, _ = repo.Insert(candidates)

	descModel, repo, err = o.retrain(ctx, descModel, repo)
	if err != nil {
		return RunResult{}, err
	}

	controller, err := archive.NewDensityController(archive.ControllerConfig{
		TargetOccupancy:  o.cfg.TargetOccupancy,
		Gain:             o.cfg.ControllerGain,
		MinThreshold:     o.cfg.MinThreshold,
		MaxThreshold:     o.cfg.MaxThreshold,
		InitialOccupancy: repo.Occupancy(),
	})
	if err != nil {
		return RunResult{}, err
	}

	diagnostics := make([]model.GenerationDiagnostics, 0, o.cfg.Generations)
	checkpoints := make([]model.ArchiveSnapshot, 0)

	for gen := 0; gen < o.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}

		parents, err := o.sampleParents(repo, seeds)
		if err != nil {
			return RunResult{}, err
		}
		offspring, err := o.cfg.Variation.Apply(o.rng, parents)
		if err != nil {
			return RunResult{}, err
		}
		candidates, err := o.scoreAndEncode(ctx, offspring, descModel)
		if err != nil {
			return RunResult{}, err
		}

		var added []bool
		repo, added = repo.Insert(candidates)
		inserted := 0
		for _, ok := range added {
			if ok {
				inserted++
			}
		}

		iteration := gen + 1
		retrained := false
		if schedule.Contains(iteration) {
			// Retraining supersedes the controller for this generation.
			descModel, repo, err = o.retrain(ctx, descModel, repo)
			if err != nil {
				return RunResult{}, err
			}
			retrained = true
			checkpoints = append(checkpoints, model.ArchiveSnapshot{
				Generation:   iteration,
				Capacity:     repo.Capacity(),
				Threshold:    repo.Threshold(),
				ModelVersion: descModel.Version,
				Individuals:  repo.Snapshot(),
			})
		} else if iteration%o.cfg.ControllerCadence == 0 {
			next := controller.Step(repo.Occupancy(), repo.Threshold())
			// Descriptors are unchanged; only future insertions see the
			// corrected threshold.
			repo = repo.WithThreshold(next)
		}

		metrics := stats.ArchiveMetrics(repo)
		diagnostics = append(diagnostics, model.GenerationDiagnostics{
			Generation:   iteration,
			Occupancy:    repo.Occupancy(),
			Threshold:    repo.Threshold(),
			Inserted:     inserted,
			BestFitness:  metrics.MaxFitness,
			QDScore:      metrics.QDScore,
			Coverage:     metrics.Coverage,
			Retrained:    retrained,
			ModelVersion: descModel.Version,
		})
	}

	return RunResult{
		Diagnostics: diagnostics,
		Checkpoints: checkpoints,
		Archive:     repo,
		Model:       descModel,
	}, nil
}

// retrain fits the model on every occupant's observations and rebuilds the
// archive in the new descriptor space as one atomic transition. Old and new
// descriptors never meet in a distance comparison.
func (o *Orchestrator) retrain(ctx context.Context, descModel encoder.Model, repo archive.Archive) (encoder.Model, archive.Archive, error) {
	occupants := repo.Occupants()
	if len(occupants) == 0 {
		return descModel, repo, nil
	}

	observations := make([]model.Trace, len(occupants))
	for i, occupant := range occupants {
		observations[i] = occupant.Observation
	}
	trained, err := o.cfg.Trainer.Train(ctx, descModel, observations)
	if err != nil {
		return encoder.Model{}, archive.Archive{}, fmt.Errorf("train descriptor model: %w", err)
	}
	descriptors, err := trained.EncodeBatch(observations)
	if err != nil {
		return encoder.Model{}, archive.Archive{}, fmt.Errorf("re-encode occupants: %w", err)
	}
	rebuilt, err := repo.Rebuild(occupants, descriptors)
	if err != nil {
		return encoder.Model{}, archive.Archive{}, fmt.Errorf("rebuild archive: %w", err)
	}
	return trained, rebuilt, nil
}

func (o *Orchestrator) sampleParents(repo archive.Archive, seeds []model.Genotype) ([]model.Genotype, error) {
	occupants := repo.Occupants()
	parents := make([]model.Genotype, o.cfg.BatchSize)
	if len(occupants) == 0 {
		// The archive can only be empty before the first insert ever lands;
		// fall back to the seed pool.
		for i := range parents {
			parents[i] = seeds[o.rng.Intn(len(seeds))].Clone()
		}
		return parents, nil
	}
	for i := range parents {
		parents[i] = occupants[o.rng.Intn(len(occupants))].Genotype
	}
	return parents, nil
}

// scoreAndEncode evaluates a batch on the worker pool and encodes the traces
// under the current model. Results commit in input order so the insertion
// pass stays deterministic for a fixed seed.
func (o *Orchestrator) scoreAndEncode(ctx context.Context, genotypes []model.Genotype, descModel encoder.Model) ([]model.Individual, error) {
	type job struct {
		idx      int
		genotype model.Genotype
	}
	type result struct {
		idx     int
		fitness float64
		trace   model.Trace
		err     error
	}

	jobs := make(chan job)
	results := make(chan result, len(genotypes))

	workerCount := o.cfg.Workers
	if workerCount > len(genotypes) {
		workerCount = len(genotypes)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				fitness, trace, err := o.cfg.Scape.Evaluate(ctx, j.genotype)
				results <- result{idx: j.idx, fitness: fitness, trace: trace, err: err}
			}
		}()
	}

	for i := range genotypes {
		jobs <- job{idx: i, genotype: genotypes[i]}
	}
	close(jobs)

	wg.Wait()
	close(results)

	candidates := make([]model.Individual, len(genotypes))
	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		candidates[res.idx] = model.Individual{
			Genotype:    genotypes[res.idx],
			Fitness:     res.fitness,
			Observation: res.trace,
		}
	}

	traces := make([]model.Trace, len(candidates))
	for i := range candidates {
		traces[i] = candidates[i].Observation
	}
	encoded, err := descModel.EncodeBatch(traces)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		candidates[i].Descriptor = encoded[i]
	}
	return candidates, nil
}
