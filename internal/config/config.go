// Package config holds the simulation configuration and its YAML form.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"emergents/internal/evo"
	"emergents/internal/genome"
	"emergents/internal/logging"
	"emergents/internal/mutation"
)

type Simulation struct {
	Genome     GenomeConfig     `yaml:"genome" mapstructure:"genome"`
	Population PopulationConfig `yaml:"population" mapstructure:"population"`
	Evolution  EvolutionConfig  `yaml:"evolution" mapstructure:"evolution"`
	Mutations  MutationConfig   `yaml:"mutations" mapstructure:"mutations"`
	Storage    StorageConfig    `yaml:"storage" mapstructure:"storage"`
	Logging    logging.Config   `yaml:"logging" mapstructure:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
}

// GenomeConfig describes the ancestral genome. Single-entry lists apply to
// every segment of that kind.
type GenomeConfig struct {
	InitialLength      int      `yaml:"initial_length" mapstructure:"initial_length"`
	NumCodingSegments  int      `yaml:"num_coding_segments" mapstructure:"num_coding_segments"`
	CodingLengths      []int    `yaml:"coding_lengths" mapstructure:"coding_lengths"`
	NonCodingLengths   []int    `yaml:"non_coding_lengths" mapstructure:"non_coding_lengths"`
	PromoterDirections []string `yaml:"promoter_directions" mapstructure:"promoter_directions"`
	Circular           bool     `yaml:"circular" mapstructure:"circular"`
	Extremities        string   `yaml:"extremities" mapstructure:"extremities"`
}

type PopulationConfig struct {
	Size         int     `yaml:"size" mapstructure:"size"`
	MutationRate float64 `yaml:"mutation_rate" mapstructure:"mutation_rate"`
	Seed         int64   `yaml:"seed" mapstructure:"seed"`
	Workers      int     `yaml:"workers" mapstructure:"workers"`
	Selector     string  `yaml:"selector" mapstructure:"selector"`
}

type EvolutionConfig struct {
	Generations    int    `yaml:"generations" mapstructure:"generations"`
	ReportInterval int    `yaml:"report_interval" mapstructure:"report_interval"`
	ShowProgress   bool   `yaml:"show_progress" mapstructure:"show_progress"`
	EnablePlotting bool   `yaml:"enable_plotting" mapstructure:"enable_plotting"`
	ArtifactsDir   string `yaml:"artifacts_dir" mapstructure:"artifacts_dir"`
}

type MutationConfig struct {
	PointMutation  float64 `yaml:"point_mutation" mapstructure:"point_mutation"`
	SmallInsertion float64 `yaml:"small_insertion" mapstructure:"small_insertion"`
	SmallDeletion  float64 `yaml:"small_deletion" mapstructure:"small_deletion"`
	Deletion       float64 `yaml:"deletion" mapstructure:"deletion"`
	Duplication    float64 `yaml:"duplication" mapstructure:"duplication"`
	Inversion      float64 `yaml:"inversion" mapstructure:"inversion"`
	SmallMaxSize   int     `yaml:"small_mutation_max_size" mapstructure:"small_mutation_max_size"`
}

type StorageConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
	Path    string `yaml:"path" mapstructure:"path"`
}

type MetricsConfig struct {
	// Addr serves /metrics when set, for example ":9090".
	Addr string `yaml:"addr" mapstructure:"addr"`
}

func Default() Simulation {
	return Simulation{
		Genome: GenomeConfig{
			InitialLength:      100,
			NumCodingSegments:  5,
			CodingLengths:      []int{10},
			NonCodingLengths:   []int{10},
			PromoterDirections: []string{"forward"},
			Circular:           true,
			Extremities:        string(evo.ExtremitiesNCNC),
		},
		Population: PopulationConfig{
			Size:         100,
			MutationRate: 3e-2,
			Workers:      1,
			Selector:     "uniform",
		},
		Evolution: EvolutionConfig{
			Generations:    1000,
			ReportInterval: 50,
			ShowProgress:   true,
			EnablePlotting: true,
			ArtifactsDir:   "artifacts",
		},
		Mutations: MutationConfig{
			PointMutation:  1,
			SmallInsertion: 1,
			SmallDeletion:  1,
			Deletion:       1,
			Duplication:    1,
			Inversion:      1,
			SmallMaxSize:   10,
		},
		Storage: StorageConfig{Backend: "memory"},
		Logging: logging.DefaultConfig(),
	}
}

// Validate reports every problem at once.
func (c Simulation) Validate() error {
	var errs []error
	spec, err := c.GenomeSpec()
	if err == nil {
		_, err = spec.Segments()
	}
	if err != nil {
		errs = append(errs, fmt.Errorf("genome: %w", err))
	}
	if c.Population.Size <= 0 {
		errs = append(errs, errors.New("population: size must be > 0"))
	}
	if c.Population.MutationRate < 0 || c.Population.MutationRate > 1 {
		errs = append(errs, errors.New("population: mutation_rate must be in [0, 1]"))
	}
	if c.Population.Workers < 0 {
		errs = append(errs, errors.New("population: workers must be >= 0"))
	}
	if _, err := evo.SelectorFromName(c.Population.Selector); err != nil {
		errs = append(errs, fmt.Errorf("population: %w", err))
	}
	if c.Evolution.Generations <= 0 {
		errs = append(errs, errors.New("evolution: generations must be > 0"))
	}
	if c.Evolution.ReportInterval <= 0 {
		errs = append(errs, errors.New("evolution: report_interval must be > 0"))
	}
	if _, err := mutation.NewProposer(c.Mutations.Policy(), c.Mutations.Params()); err != nil {
		errs = append(errs, fmt.Errorf("mutations: %w", err))
	}
	switch c.Storage.Backend {
	case "", "memory":
	case "sqlite", "badger":
		if c.Storage.Path == "" {
			errs = append(errs, fmt.Errorf("storage: path is required for %s", c.Storage.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("storage: unsupported backend %q", c.Storage.Backend))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	return errors.Join(errs...)
}

// GenomeSpec converts the genome section into a builder spec.
func (c Simulation) GenomeSpec() (evo.GenomeSpec, error) {
	extremities, err := evo.ParseExtremities(c.Genome.Extremities)
	if err != nil {
		return evo.GenomeSpec{}, err
	}
	orientations := make([]genome.Orientation, 0, len(c.Genome.PromoterDirections))
	for _, dir := range c.Genome.PromoterDirections {
		o, err := genome.ParseOrientation(dir)
		if err != nil {
			return evo.GenomeSpec{}, err
		}
		orientations = append(orientations, o)
	}
	return evo.GenomeSpec{
		InitialLength:    c.Genome.InitialLength,
		CodingCount:      c.Genome.NumCodingSegments,
		CodingLengths:    c.Genome.CodingLengths,
		NonCodingLengths: c.Genome.NonCodingLengths,
		Orientations:     orientations,
		Circular:         c.Genome.Circular,
		Extremities:      extremities,
	}, nil
}

// Policy lists the operator weights in a fixed order.
func (m MutationConfig) Policy() []mutation.WeightedKind {
	return []mutation.WeightedKind{
		{Kind: mutation.KindPointMutation, Weight: m.PointMutation},
		{Kind: mutation.KindSmallInsertion, Weight: m.SmallInsertion},
		{Kind: mutation.KindSmallDeletion, Weight: m.SmallDeletion},
		{Kind: mutation.KindDeletion, Weight: m.Deletion},
		{Kind: mutation.KindDuplication, Weight: m.Duplication},
		{Kind: mutation.KindInversion, Weight: m.Inversion},
	}
}

func (m MutationConfig) Params() mutation.Params {
	return mutation.Params{SmallMaxSize: m.SmallMaxSize}
}

// Load reads a YAML file on top of the defaults, so omitted keys keep their
// default values.
func Load(path string) (Simulation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Simulation{}, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Simulation{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Simulation{}, err
	}
	return cfg, nil
}

func Write(path string, cfg Simulation) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
