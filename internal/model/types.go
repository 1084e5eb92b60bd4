package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Genotype is an opaque parameter blob. The archive stores it by value and
// never inspects its structure; only the scape knows how to decode it.
type Genotype []float64

func (g Genotype) Clone() Genotype {
	return append(Genotype(nil), g...)
}

// Trace is a fixed-length observation sequence recorded during scoring.
// Steps beyond Length are padding and must not influence a descriptor.
type Trace struct {
	Steps  [][]float64 `json:"steps"`
	Length int         `json:"length"`
}

func (t Trace) Clone() Trace {
	steps := make([][]float64, len(t.Steps))
	for i, step := range t.Steps {
		steps[i] = append([]float64(nil), step...)
	}
	return Trace{Steps: steps, Length: t.Length}
}

// Individual is one archive candidate: a genotype together with its score,
// behavior descriptor, and the raw trace the descriptor was computed from.
type Individual struct {
	Genotype    Genotype  `json:"genotype"`
	Fitness     float64   `json:"fitness"`
	Descriptor  []float64 `json:"descriptor"`
	Observation Trace     `json:"observation"`
}

// ArchiveSnapshot is the persisted form of one archive state.
type ArchiveSnapshot struct {
	VersionedRecord
	RunID        string       `json:"run_id"`
	Generation   int          `json:"generation"`
	Capacity     int          `json:"capacity"`
	Threshold    float64      `json:"threshold"`
	ModelVersion int          `json:"model_version"`
	Individuals  []Individual `json:"individuals"`
}

// GenerationDiagnostics summarizes one orchestrator generation.
type GenerationDiagnostics struct {
	Generation   int     `json:"generation"`
	Occupancy    int     `json:"occupancy"`
	Threshold    float64 `json:"threshold"`
	Inserted     int     `json:"inserted"`
	BestFitness  float64 `json:"best_fitness"`
	QDScore      float64 `json:"qd_score"`
	Coverage     float64 `json:"coverage"`
	Retrained    bool    `json:"retrained"`
	ModelVersion int     `json:"model_version"`
}

// RunRecord indexes a completed run for listing and export.
type RunRecord struct {
	VersionedRecord
	RunID            string  `json:"run_id"`
	Scape            string  `json:"scape"`
	Seed             int64   `json:"seed"`
	Capacity         int     `json:"capacity"`
	TargetOccupancy  int     `json:"target_occupancy"`
	Generations      int     `json:"generations"`
	FinalOccupancy   int     `json:"final_occupancy"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}
