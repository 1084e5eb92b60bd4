package storage

import (
	"context"
	"testing"

	"proteus/internal/model"
)

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := model.RunRecord{
		VersionedRecord:  model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		RunID:            "run-1",
		Scape:            "point-walk",
		Generations:      10,
		FinalBestFitness: 0.75,
	}
	if err := store.SaveRun(ctx, input); err != nil {
		t.Fatalf("save run: %v", err)
	}

	output, ok, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted run")
	}
	if output.RunID != input.RunID || output.FinalBestFitness != input.FinalBestFitness {
		t.Fatalf("unexpected run: %+v", output)
	}
}

func TestMemoryStoreRunMissing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	_, ok, err := store.GetRun(ctx, "missing")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if ok {
		t.Fatal("expected missing run")
	}
}

func TestMemoryStoreArchiveSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := model.ArchiveSnapshot{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		RunID:           "run-1",
		Generation:      6,
		Capacity:        50,
		Threshold:       0.21,
		ModelVersion:    2,
		Individuals: []model.Individual{
			{Genotype: model.Genotype{0.5, -0.5}, Fitness: 0.9, Descriptor: []float64{0.1, 0.2}},
		},
	}
	if err := store.SaveArchiveSnapshot(ctx, input); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	output, ok, err := store.GetArchiveSnapshot(ctx, "run-1")
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted snapshot")
	}
	if output.Generation != input.Generation || len(output.Individuals) != 1 {
		t.Fatalf("unexpected snapshot: %+v", output)
	}
}

func TestMemoryStoreFitnessHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := []float64{0.1, 0.2, 0.3}
	if err := store.SaveFitnessHistory(ctx, "run-1", input); err != nil {
		t.Fatalf("save history: %v", err)
	}
	output, ok, err := store.GetFitnessHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted fitness history")
	}
	if len(output) != len(input) || output[2] != input[2] {
		t.Fatalf("unexpected history: %+v", output)
	}

	output[0] = 99
	again, _, err := store.GetFitnessHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("get history again: %v", err)
	}
	if again[0] != input[0] {
		t.Fatalf("stored history mutated through returned slice: %+v", again)
	}
}

func TestMemoryStoreDiagnosticsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := []model.GenerationDiagnostics{
		{Generation: 1, Occupancy: 12, Threshold: 0.2, Inserted: 4, BestFitness: 0.8, QDScore: 5.1, Coverage: 0.24},
		{Generation: 2, Occupancy: 14, Threshold: 0.19, Inserted: 2, BestFitness: 0.9, QDScore: 6.4, Coverage: 0.28, Retrained: true, ModelVersion: 2},
	}
	if err := store.SaveDiagnostics(ctx, "run-1", input); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	output, ok, err := store.GetDiagnostics(ctx, "run-1")
	if err != nil {
		t.Fatalf("get diagnostics: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted diagnostics")
	}
	if len(output) != len(input) || output[1].ModelVersion != input[1].ModelVersion {
		t.Fatalf("unexpected diagnostics: %+v", output)
	}
}
