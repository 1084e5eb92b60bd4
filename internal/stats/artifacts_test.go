package stats

import (
	"testing"

	"proteus/internal/model"
)

func TestWriteAndReadRunArtifacts(t *testing.T) {
	dir := t.TempDir()

	artifacts := RunArtifacts{
		Run: model.RunRecord{
			RunID:            "point-walk-42-1",
			Scape:            "point-walk",
			Seed:             42,
			Capacity:         50,
			TargetOccupancy:  30,
			Generations:      10,
			FinalOccupancy:   12,
			FinalBestFitness: 0.8,
			CreatedAtUTC:     "2026-01-02T03:04:05Z",
		},
		Diagnostics: []model.GenerationDiagnostics{
			{Generation: 1, Occupancy: 5, Threshold: 0.2},
		},
		Final: Metrics{Occupancy: 12, QDScore: 7.5, Coverage: 24, MaxFitness: 0.8},
	}

	runDir, err := WriteRunArtifacts(dir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	if runDir == "" {
		t.Fatalf("expected run directory")
	}

	loaded, ok, err := ReadRunArtifacts(dir, "point-walk-42-1")
	if err != nil {
		t.Fatalf("read artifacts: %v", err)
	}
	if !ok {
		t.Fatalf("expected artifacts to exist")
	}
	if loaded.Run.RunID != artifacts.Run.RunID || loaded.Final.QDScore != 7.5 {
		t.Fatalf("roundtrip mismatch: %+v", loaded)
	}
	if len(loaded.Diagnostics) != 1 || loaded.Diagnostics[0].Occupancy != 5 {
		t.Fatalf("diagnostics roundtrip mismatch: %+v", loaded.Diagnostics)
	}

	if _, ok, err := ReadRunArtifacts(dir, "missing"); err != nil || ok {
		t.Fatalf("missing run should be (false, nil), got ok=%v err=%v", ok, err)
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatalf("expected error for missing run id")
	}
}

func TestRunIndexNewestFirst(t *testing.T) {
	dir := t.TempDir()

	entries, err := ListRunIndex(dir)
	if err != nil {
		t.Fatalf("list empty index: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty index, got %d entries", len(entries))
	}

	older := model.RunRecord{RunID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z"}
	newer := model.RunRecord{RunID: "b", CreatedAtUTC: "2026-02-01T00:00:00Z"}
	if err := AppendRunIndex(dir, older); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := AppendRunIndex(dir, newer); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err = ListRunIndex(dir)
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RunID != "b" || entries[1].RunID != "a" {
		t.Fatalf("expected newest first, got %v then %v", entries[0].RunID, entries[1].RunID)
	}

	if err := AppendRunIndex(dir, model.RunRecord{}); err == nil {
		t.Fatalf("expected error for missing run id")
	}
}
