package storage

import (
	"context"

	"proteus/internal/model"
)

// Store defines transaction-like persistence operations for run records,
// archive snapshots, and per-run histories.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, runID string) (model.RunRecord, bool, error)
	SaveArchiveSnapshot(ctx context.Context, snapshot model.ArchiveSnapshot) error
	GetArchiveSnapshot(ctx context.Context, runID string) (model.ArchiveSnapshot, bool, error)
	SaveDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
}
