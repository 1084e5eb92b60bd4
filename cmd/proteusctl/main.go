package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"proteus/internal/storage"
	protoapi "proteus/pkg/proteus"
)

const benchmarksDir = "benchmarks"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "archive":
		return runArchive(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func newClient(storeKind, dbPath string) (*protoapi.Client, error) {
	return protoapi.New(protoapi.Options{
		StoreKind:     storeKind,
		DBPath:        dbPath,
		BenchmarksDir: benchmarksDir,
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "proteus.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	scapeName := fs.String("scape", "point-walk", "scape name: point-walk|cart-sprint")
	seed := fs.Int64("seed", 1, "rng seed")
	workers := fs.Int("workers", 4, "worker count")
	capacity := fs.Int("capacity", 50, "archive capacity")
	target := fs.Int("target", 0, "target occupancy (0 uses half of capacity)")
	threshold := fs.Float64("threshold", 0.2, "initial insertion distance threshold")
	gain := fs.Float64("gain", 1e-5, "density controller gain")
	cadence := fs.Int("cadence", 2, "controller update cadence in generations")
	retrainBase := fs.Int("retrain-base", 10, "retrain schedule base interval")
	logFreq := fs.Int("log-freq", 5, "retrain schedule log frequency")
	batch := fs.Int("batch", 20, "offspring batch size per generation")
	generations := fs.Int("gens", 100, "generation count")
	hidden := fs.Int("hidden", 5, "descriptor model hidden size")
	isoSigma := fs.Float64("iso-sigma", 0.05, "isotropic variation spread")
	lineSigma := fs.Float64("line-sigma", 0.1, "directional variation spread")
	trainAttempts := fs.Int("train-attempts", 4, "trainer annealing attempts per retrain")
	trainCandidates := fs.Int("train-candidates", 6, "trainer candidates per attempt")
	trainStepSize := fs.Float64("train-step-size", 0.35, "trainer perturbation magnitude")
	trainAnnealing := fs.Float64("train-annealing", 0.9, "trainer per-attempt annealing factor")
	teacherForce := fs.Bool("teacher-force", false, "feed ground truth into the decoder during training")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "proteus.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, protoapi.RunRequest{
		Scape:             *scapeName,
		Seed:              *seed,
		Workers:           *workers,
		Capacity:          *capacity,
		TargetOccupancy:   *target,
		InitialThreshold:  *threshold,
		ControllerGain:    *gain,
		ControllerCadence: *cadence,
		RetrainBase:       *retrainBase,
		LogFreq:           *logFreq,
		BatchSize:         *batch,
		Generations:       *generations,
		HiddenSize:        *hidden,
		IsoSigma:          *isoSigma,
		LineSigma:         *lineSigma,
		TrainAttempts:     *trainAttempts,
		TrainCandidates:   *trainCandidates,
		TrainStepSize:     *trainStepSize,
		TrainAnnealing:    *trainAnnealing,
		TeacherForce:      *teacherForce,
	})
	if err != nil {
		return err
	}

	fmt.Printf("run completed run_id=%s scape=%s capacity=%d gens=%d seed=%d\n",
		summary.RunID, *scapeName, *capacity, *generations, *seed)
	for i, best := range summary.BestByGeneration {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
	}
	fmt.Printf("final occupancy=%d best_fitness=%.6f qd_score=%.6f coverage=%.4f model_version=%d\n",
		summary.FinalOccupancy,
		summary.FinalBestFitness,
		summary.FinalQDScore,
		summary.FinalCoverage,
		summary.ModelVersion,
	)
	fmt.Printf("artifacts_dir=%s\n", summary.ArtifactsDir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "proteus.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	entries, err := client.Runs(ctx, protoapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, e := range entries {
		fmt.Printf("run_id=%s created_at=%s scape=%s seed=%d capacity=%d gens=%d occupancy=%d final_best_fitness=%.6f\n",
			e.RunID,
			e.CreatedAtUTC,
			e.Scape,
			e.Seed,
			e.Capacity,
			e.Generations,
			e.FinalOccupancy,
			e.FinalBestFitness,
		)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show fitness history for the most recent run from run index")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "proteus.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, protoapi.FitnessHistoryRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("no fitness history")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}

	for i, best := range history {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show diagnostics for the most recent run from run index")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "proteus.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, protoapi.DiagnosticsRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(diagnostics) == 0 {
		fmt.Println("no diagnostics")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(diagnostics)
	}

	for _, d := range diagnostics {
		fmt.Printf("generation=%d occupancy=%d threshold=%.6f inserted=%d best=%.6f qd_score=%.6f coverage=%.4f retrained=%t model_version=%d\n",
			d.Generation,
			d.Occupancy,
			d.Threshold,
			d.Inserted,
			d.BestFitness,
			d.QDScore,
			d.Coverage,
			d.Retrained,
			d.ModelVersion,
		)
	}
	return nil
}

func runArchive(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("archive", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show archive for the most recent run from run index")
	limit := fs.Int("limit", 50, "max individuals to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit archive snapshot as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "proteus.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	snapshot, err := client.ArchiveSnapshot(ctx, protoapi.ArchiveRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot)
	}

	fmt.Printf("run_id=%s generation=%d capacity=%d occupancy=%d threshold=%.6f model_version=%d\n",
		snapshot.RunID,
		snapshot.Generation,
		snapshot.Capacity,
		len(snapshot.Individuals),
		snapshot.Threshold,
		snapshot.ModelVersion,
	)
	for i, individual := range snapshot.Individuals {
		fmt.Printf("slot=%d fitness=%.6f descriptor=%v\n", i, individual.Fitness, individual.Descriptor)
	}
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: proteusctl <init|run|runs|fitness|diagnostics|archive> [flags]", msg)
}
