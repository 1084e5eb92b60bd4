package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"proteus/internal/model"
)

const runIndexFile = "run_index.json"

// RunArtifacts is everything written to disk for one run.
type RunArtifacts struct {
	Run         model.RunRecord               `json:"run"`
	Diagnostics []model.GenerationDiagnostics `json:"diagnostics,omitempty"`
	Final       Metrics                       `json:"final"`
}

// WriteRunArtifacts persists a run's artifacts under
// <benchmarksDir>/<runID>/ and returns the run directory.
func WriteRunArtifacts(benchmarksDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}
	runDir := filepath.Join(benchmarksDir, artifacts.Run.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "run.json"), artifacts); err != nil {
		return "", err
	}
	return runDir, nil
}

// AppendRunIndex adds one entry to the shared run index, newest first.
func AppendRunIndex(benchmarksDir string, entry model.RunRecord) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(benchmarksDir, 0o755); err != nil {
		return err
	}

	entries, err := ListRunIndex(benchmarksDir)
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAtUTC > entries[j].CreatedAtUTC
	})
	return writeJSON(filepath.Join(benchmarksDir, runIndexFile), entries)
}

// ListRunIndex returns the recorded runs, newest first. A missing index is
// an empty list, not an error.
func ListRunIndex(benchmarksDir string) ([]model.RunRecord, error) {
	data, err := os.ReadFile(filepath.Join(benchmarksDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var entries []model.RunRecord
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode run index: %w", err)
	}
	return entries, nil
}

// ReadRunArtifacts loads a previously written run.
func ReadRunArtifacts(benchmarksDir, runID string) (RunArtifacts, bool, error) {
	data, err := os.ReadFile(filepath.Join(benchmarksDir, runID, "run.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return RunArtifacts{}, false, nil
		}
		return RunArtifacts{}, false, err
	}
	var artifacts RunArtifacts
	if err := json.Unmarshal(data, &artifacts); err != nil {
		return RunArtifacts{}, false, fmt.Errorf("decode run artifacts %s: %w", runID, err)
	}
	return artifacts, true, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
