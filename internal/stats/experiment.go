package stats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/stat"

	"emergents/internal/model"
)

const experimentsDir = "experiments"

// Experiment groups replicate runs that share a configuration and differ
// only by seed.
type Experiment struct {
	ID             string    `json:"id"`
	Notes          string    `json:"notes,omitempty"`
	ProgressFlag   string    `json:"progress_flag"`
	RunIndex       int       `json:"run_index"`
	TotalRuns      int       `json:"total_runs"`
	StartedAtUTC   string    `json:"started_at_utc,omitempty"`
	CompletedAtUTC string    `json:"completed_at_utc,omitempty"`
	Seeds          []int64   `json:"seeds,omitempty"`
	RunIDs         []string  `json:"run_ids,omitempty"`
	Summaries      []Summary `json:"summaries,omitempty"`
}

// SeriesPoint is one generation of a series aggregated across replicates.
type SeriesPoint struct {
	Generation int     `json:"generation"`
	Mean       float64 `json:"mean"`
	Std        float64 `json:"std"`
	Max        float64 `json:"max"`
	Runs       int     `json:"runs"`
}

func WriteExperiment(baseDir string, exp Experiment) error {
	if exp.ID == "" {
		return fmt.Errorf("experiment id is required")
	}
	path := experimentPath(baseDir, exp.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return writeJSON(path, exp)
}

func ReadExperiment(baseDir, id string) (Experiment, bool, error) {
	if id == "" {
		return Experiment{}, false, fmt.Errorf("experiment id is required")
	}
	var exp Experiment
	ok, err := readJSON(experimentPath(baseDir, id), &exp)
	return exp, ok, err
}

// ListExperiments returns the stored experiments, most recently started
// first. Experiments without a start time sort last.
func ListExperiments(baseDir string) ([]Experiment, error) {
	entries, err := os.ReadDir(filepath.Join(baseDir, experimentsDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Experiment{}, nil
		}
		return nil, err
	}

	exps := make([]Experiment, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		exp, ok, err := ReadExperiment(baseDir, entry.Name())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		exps = append(exps, exp)
	}
	sort.Slice(exps, func(i, j int) bool {
		switch {
		case exps[i].StartedAtUTC == exps[j].StartedAtUTC:
			return exps[i].ID < exps[j].ID
		case exps[i].StartedAtUTC == "":
			return false
		case exps[j].StartedAtUTC == "":
			return true
		default:
			return exps[i].StartedAtUTC > exps[j].StartedAtUTC
		}
	})
	return exps, nil
}

func experimentPath(baseDir, id string) string {
	return filepath.Join(baseDir, experimentsDir, id, "experiment.json")
}

// AggregateMeanLength lines up the mean-length series of several runs by
// generation. Runs that went extinct early simply stop contributing.
func AggregateMeanLength(histories [][]model.GenerationStats) []SeriesPoint {
	byGeneration := map[int][]float64{}
	for _, history := range histories {
		for _, s := range history {
			byGeneration[s.Generation] = append(byGeneration[s.Generation], s.MeanLength)
		}
	}

	generations := make([]int, 0, len(byGeneration))
	for gen := range byGeneration {
		generations = append(generations, gen)
	}
	sort.Ints(generations)

	points := make([]SeriesPoint, 0, len(generations))
	for _, gen := range generations {
		values := byGeneration[gen]
		mean, std := meanStd(values)
		point := SeriesPoint{Generation: gen, Mean: mean, Std: std, Runs: len(values), Max: values[0]}
		for _, v := range values[1:] {
			point.Max = max(point.Max, v)
		}
		points = append(points, point)
	}
	return points
}

// MeanFinalLength averages the final mean length of every replicate.
func MeanFinalLength(summaries []Summary) float64 {
	if len(summaries) == 0 {
		return 0
	}
	values := make([]float64, len(summaries))
	for i, s := range summaries {
		values[i] = s.FinalMeanLength
	}
	return stat.Mean(values, nil)
}
