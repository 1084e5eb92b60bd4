package proteus

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"proteus/internal/encoder"
	"proteus/internal/evo"
	"proteus/internal/model"
	"proteus/internal/scape"
	"proteus/internal/stats"
	"proteus/internal/storage"
)

const (
	defaultBenchmarksDir = "benchmarks"
	defaultDBPath        = "proteus.db"
)

type Options struct {
	StoreKind     string
	DBPath        string
	BenchmarksDir string
}

// Client is the embedding surface: it owns the store and the artifacts
// directory and runs whole experiments against them.
type Client struct {
	store       storage.Store
	initialized bool

	benchmarksDir string
}

type RunRequest struct {
	Scape             string
	Seed              int64
	Workers           int
	Capacity          int
	TargetOccupancy   int
	InitialThreshold  float64
	MinThreshold      float64
	MaxThreshold      float64
	ControllerGain    float64
	ControllerCadence int
	RetrainBase       int
	LogFreq           int
	BatchSize         int
	Generations       int
	HiddenSize        int
	IsoSigma          float64
	LineSigma         float64
	TrainAttempts     int
	TrainCandidates   int
	TrainStepSize     float64
	TrainAnnealing    float64
	TeacherForce      bool
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	BestByGeneration []float64
	FinalOccupancy   int
	FinalBestFitness float64
	FinalQDScore     float64
	FinalCoverage    float64
	ModelVersion     int
}

type RunsRequest struct {
	Limit int
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ArchiveRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarksDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		benchmarksDir: benchmarksDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Scape == "" {
		req.Scape = "point-walk"
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}
	if req.Capacity <= 0 {
		req.Capacity = 50
	}
	if req.TargetOccupancy <= 0 {
		req.TargetOccupancy = req.Capacity / 2
	}
	if req.InitialThreshold <= 0 {
		req.InitialThreshold = 0.2
	}
	if req.MinThreshold <= 0 {
		req.MinThreshold = 1e-6
	}
	if req.MaxThreshold <= 0 {
		req.MaxThreshold = 10.0
	}
	if req.ControllerGain <= 0 {
		req.ControllerGain = 1e-5
	}
	if req.ControllerCadence <= 0 {
		req.ControllerCadence = 2
	}
	if req.RetrainBase <= 0 {
		req.RetrainBase = 10
	}
	if req.LogFreq <= 0 {
		req.LogFreq = 5
	}
	if req.BatchSize <= 0 {
		req.BatchSize = 20
	}
	if req.Generations <= 0 {
		req.Generations = 100
	}
	if req.HiddenSize <= 0 {
		req.HiddenSize = 5
	}
	if req.IsoSigma <= 0 {
		req.IsoSigma = 0.05
	}
	if req.LineSigma <= 0 {
		req.LineSigma = 0.1
	}
	if req.TrainAttempts <= 0 {
		req.TrainAttempts = 4
	}
	if req.TrainCandidates <= 0 {
		req.TrainCandidates = 6
	}
	if req.TrainStepSize <= 0 {
		req.TrainStepSize = 0.35
	}
	if req.TrainAnnealing <= 0 {
		req.TrainAnnealing = 0.9
	}

	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	environment, err := scape.ByName(req.Scape)
	if err != nil {
		return RunSummary{}, err
	}

	orchestrator, err := evo.NewOrchestrator(evo.OrchestratorConfig{
		Scape:     environment,
		Variation: evo.IsolineVariation{IsoSigma: req.IsoSigma, LineSigma: req.LineSigma},
		Trainer: &encoder.HillClimbTrainer{
			Rand:         rand.New(rand.NewSource(req.Seed + 1000)),
			Attempts:     req.TrainAttempts,
			Candidates:   req.TrainCandidates,
			StepSize:     req.TrainStepSize,
			Annealing:    req.TrainAnnealing,
			TeacherForce: req.TeacherForce,
		},
		Capacity:          req.Capacity,
		TargetOccupancy:   req.TargetOccupancy,
		InitialThreshold:  req.InitialThreshold,
		MinThreshold:      req.MinThreshold,
		MaxThreshold:      req.MaxThreshold,
		ControllerGain:    req.ControllerGain,
		ControllerCadence: req.ControllerCadence,
		RetrainBase:       req.RetrainBase,
		LogFreq:           req.LogFreq,
		BatchSize:         req.BatchSize,
		Generations:       req.Generations,
		HiddenSize:        req.HiddenSize,
		Workers:           req.Workers,
		Seed:              req.Seed,
	})
	if err != nil {
		return RunSummary{}, err
	}

	result, err := orchestrator.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	now := time.Now().UTC()
	runID := fmt.Sprintf("%s-%d-%d", req.Scape, req.Seed, now.Unix())

	finalMetrics := stats.ArchiveMetrics(result.Archive)
	run := model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		RunID:            runID,
		Scape:            req.Scape,
		Seed:             req.Seed,
		Capacity:         req.Capacity,
		TargetOccupancy:  req.TargetOccupancy,
		Generations:      req.Generations,
		FinalOccupancy:   finalMetrics.Occupancy,
		FinalBestFitness: finalMetrics.MaxFitness,
		CreatedAtUTC:     now.Format(time.RFC3339Nano),
	}

	history := make([]float64, len(result.Diagnostics))
	for i, diag := range result.Diagnostics {
		history[i] = diag.BestFitness
	}
	snapshot := model.ArchiveSnapshot{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		RunID:        runID,
		Generation:   req.Generations,
		Capacity:     result.Archive.Capacity(),
		Threshold:    result.Archive.Threshold(),
		ModelVersion: result.Model.Version,
		Individuals:  result.Archive.Snapshot(),
	}

	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveArchiveSnapshot(ctx, snapshot); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveDiagnostics(ctx, runID, result.Diagnostics); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, history); err != nil {
		return RunSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.benchmarksDir, stats.RunArtifacts{
		Run:         run,
		Diagnostics: result.Diagnostics,
		Final:       finalMetrics,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.benchmarksDir, run); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            runID,
		ArtifactsDir:     filepath.Clean(runDir),
		BestByGeneration: history,
		FinalOccupancy:   finalMetrics.Occupancy,
		FinalBestFitness: finalMetrics.MaxFitness,
		FinalQDScore:     finalMetrics.QDScore,
		FinalCoverage:    finalMetrics.Coverage,
		ModelVersion:     result.Model.Version,
	}, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.RunRecord, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	return entries, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest, req.Limit)
	if err != nil {
		return nil, err
	}

	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest, req.Limit)
	if err != nil {
		return nil, err
	}

	diagnostics, ok, err := c.store.GetDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	out := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(out, diagnostics)
	return out, nil
}

func (c *Client) ArchiveSnapshot(ctx context.Context, req ArchiveRequest) (model.ArchiveSnapshot, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest, req.Limit)
	if err != nil {
		return model.ArchiveSnapshot{}, err
	}

	snapshot, ok, err := c.store.GetArchiveSnapshot(ctx, runID)
	if err != nil {
		return model.ArchiveSnapshot{}, err
	}
	if !ok {
		return model.ArchiveSnapshot{}, fmt.Errorf("archive snapshot not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(snapshot.Individuals) > req.Limit {
		snapshot.Individuals = snapshot.Individuals[:req.Limit]
	}
	return snapshot, nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool, limit int) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if limit < 0 {
		return "", errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return "", err
	}

	if latest {
		entries, err := stats.ListRunIndex(c.benchmarksDir)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", errors.New("no runs available")
		}
		return entries[0].RunID, nil
	}
	if runID == "" {
		return "", errors.New("run id or latest is required")
	}
	return runID, nil
}
