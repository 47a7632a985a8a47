package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// SegmentRecord is the persisted form of one genome segment. Orientation is
// empty for non-coding segments.
type SegmentRecord struct {
	Kind        string `json:"kind"`
	Length      int    `json:"length"`
	Orientation string `json:"orientation,omitempty"`
}

type GenomeSnapshot struct {
	Circular bool            `json:"circular"`
	Segments []SegmentRecord `json:"segments"`
}

type PopulationSnapshot struct {
	VersionedRecord
	RunID      string           `json:"run_id"`
	Generation int              `json:"generation"`
	Genomes    []GenomeSnapshot `json:"genomes"`
}

// GenerationStats summarizes one generation after mutation and replenishment.
type GenerationStats struct {
	Generation          int     `json:"generation"`
	PopulationSize      int     `json:"population_size"`
	MeanLength          float64 `json:"mean_length"`
	MinLength           int     `json:"min_length"`
	MaxLength           int     `json:"max_length"`
	StdLength           float64 `json:"std_length"`
	TotalMutations      int     `json:"total_mutations"`
	NeutralMutations    int     `json:"neutral_mutations"`
	NonNeutralMutations int     `json:"non_neutral_mutations"`
	FailedMutations     int     `json:"failed_mutations"`
	Survivors           int     `json:"survivors"`
	LengthDiversity     float64 `json:"length_diversity"`
	SurvivalRate        float64 `json:"survival_rate"`
	MeanSegmentCount    float64 `json:"mean_segment_count"`
	MeanCodingFraction  float64 `json:"mean_coding_fraction"`
}

type RunRecord struct {
	VersionedRecord
	ID                   string  `json:"id"`
	CreatedAtUTC         string  `json:"created_at_utc"`
	Seed                 int64   `json:"seed"`
	PopulationSize       int     `json:"population_size"`
	Generations          int     `json:"generations"`
	CompletedGenerations int     `json:"completed_generations"`
	MutationRate         float64 `json:"mutation_rate"`
	Circular             bool    `json:"circular"`
	InitialLength        int     `json:"initial_length"`
	FinalMeanLength      float64 `json:"final_mean_length"`
	Extinct              bool    `json:"extinct"`
	ArtifactsDir         string  `json:"artifacts_dir,omitempty"`
}
