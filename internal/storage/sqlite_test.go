//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"proteus/internal/model"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "proteus.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	run := model.RunRecord{
		VersionedRecord:  model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		RunID:            "run-1",
		Scape:            "point-walk",
		Generations:      25,
		FinalBestFitness: 0.9,
	}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}
	loadedRun, ok, err := store.GetRun(ctx, run.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatalf("expected run %s", run.RunID)
	}
	if loadedRun.Scape != run.Scape || loadedRun.FinalBestFitness != run.FinalBestFitness {
		t.Fatalf("unexpected run loaded: %+v", loadedRun)
	}

	snapshot := model.ArchiveSnapshot{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		RunID:           "run-1",
		Generation:      12,
		Capacity:        50,
		Threshold:       0.18,
		ModelVersion:    2,
		Individuals: []model.Individual{
			{Genotype: model.Genotype{0.5}, Fitness: 0.7, Descriptor: []float64{0.1, 0.2}},
		},
	}
	if err := store.SaveArchiveSnapshot(ctx, snapshot); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	loadedSnapshot, ok, err := store.GetArchiveSnapshot(ctx, "run-1")
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if !ok {
		t.Fatal("expected archive snapshot run-1")
	}
	if loadedSnapshot.Generation != snapshot.Generation || len(loadedSnapshot.Individuals) != 1 {
		t.Fatalf("unexpected snapshot loaded: %+v", loadedSnapshot)
	}

	diagnostics := []model.GenerationDiagnostics{
		{Generation: 1, Occupancy: 10, Threshold: 0.2, Inserted: 4, BestFitness: 0.6, QDScore: 4.0, Coverage: 0.2},
	}
	if err := store.SaveDiagnostics(ctx, "run-1", diagnostics); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	loadedDiagnostics, ok, err := store.GetDiagnostics(ctx, "run-1")
	if err != nil {
		t.Fatalf("get diagnostics: %v", err)
	}
	if !ok {
		t.Fatal("expected diagnostics run-1")
	}
	if len(loadedDiagnostics) != 1 || loadedDiagnostics[0].Occupancy != 10 {
		t.Fatalf("unexpected diagnostics loaded: %+v", loadedDiagnostics)
	}

	history := []float64{0.5, 0.7, 0.9}
	if err := store.SaveFitnessHistory(ctx, "run-1", history); err != nil {
		t.Fatalf("save history: %v", err)
	}
	loadedHistory, ok, err := store.GetFitnessHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if !ok {
		t.Fatal("expected fitness history run-1")
	}
	if len(loadedHistory) != len(history) || loadedHistory[1] != history[1] {
		t.Fatalf("unexpected history loaded: %+v", loadedHistory)
	}
}

func TestSQLiteStoreUpsertReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "proteus.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	first := model.ArchiveSnapshot{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		RunID:           "run-1",
		Generation:      6,
	}
	second := first
	second.Generation = 12
	if err := store.SaveArchiveSnapshot(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := store.SaveArchiveSnapshot(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	loaded, ok, err := store.GetArchiveSnapshot(ctx, "run-1")
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if !ok || loaded.Generation != 12 {
		t.Fatalf("expected latest snapshot, got ok=%t value=%+v", ok, loaded)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "proteus.db")

	first := NewSQLiteStore(dbPath)
	if err := first.Init(ctx); err != nil {
		t.Fatalf("first init: %v", err)
	}
	run := model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		RunID:           "persisted-run",
	}
	if err := first.SaveRun(ctx, run); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}

	second := NewSQLiteStore(dbPath)
	if err := second.Init(ctx); err != nil {
		t.Fatalf("second init: %v", err)
	}
	t.Cleanup(func() {
		_ = second.Close()
	})

	loaded, ok, err := second.GetRun(ctx, run.RunID)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if !ok || loaded.RunID != run.RunID {
		t.Fatalf("expected persisted run, got ok=%t value=%+v", ok, loaded)
	}
}
