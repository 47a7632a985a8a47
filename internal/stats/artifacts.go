package stats

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"emergents/internal/model"
)

const (
	runIndexFile        = "run_index.json"
	configFile          = "config.yaml"
	historyFile         = "history.json"
	historyCSVFile      = "history.csv"
	finalPopulationFile = "final_population.json"
	summaryFile         = "summary.json"
)

var historyCSVHeader = []string{
	"generation",
	"population_size",
	"mean_length",
	"min_length",
	"max_length",
	"std_length",
	"total_mutations",
	"neutral_mutations",
	"non_neutral_mutations",
	"failed_mutations",
	"survivors",
	"length_diversity",
	"survival_rate",
	"mean_segment_count",
	"mean_coding_fraction",
}

type RunArtifacts struct {
	RunID           string
	Config          any
	History         []model.GenerationStats
	FinalPopulation model.PopulationSnapshot
	Summary         Summary
	Diversity       Diversity
}

type RunIndexEntry struct {
	RunID                string  `json:"run_id"`
	PopulationSize       int     `json:"population_size"`
	Generations          int     `json:"generations"`
	CompletedGenerations int     `json:"completed_generations"`
	Seed                 int64   `json:"seed"`
	Workers              int     `json:"workers"`
	MutationRate         float64 `json:"mutation_rate"`
	Circular             bool    `json:"circular"`
	Extinct              bool    `json:"extinct"`
	FinalMeanLength      float64 `json:"final_mean_length"`
	CreatedAtUTC         string  `json:"created_at_utc"`
}

type summaryDocument struct {
	Summary   Summary   `json:"summary"`
	Diversity Diversity `json:"diversity"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if strings.TrimSpace(artifacts.RunID) == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if artifacts.Config != nil {
		if err := writeYAML(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
			return "", err
		}
	}
	history := artifacts.History
	if history == nil {
		history = []model.GenerationStats{}
	}
	if err := writeJSON(filepath.Join(runDir, historyFile), history); err != nil {
		return "", err
	}
	if err := WriteHistoryCSV(filepath.Join(runDir, historyCSVFile), history); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, finalPopulationFile), artifacts.FinalPopulation); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, summaryFile), summaryDocument{Summary: artifacts.Summary, Diversity: artifacts.Diversity}); err != nil {
		return "", err
	}
	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns the indexed runs, newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ExportRunArtifacts copies a run directory. Plots are copied when present.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{historyFile, historyCSVFile, finalPopulationFile, summaryFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	for _, file := range []string{configFile, LengthPlotFile, HistogramPlotFile} {
		path := filepath.Join(src, file)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", err
		}
		if err := copyFile(path, filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	return dst, nil
}

func ReadHistory(baseDir, runID string) ([]model.GenerationStats, bool, error) {
	var history []model.GenerationStats
	ok, err := readJSON(filepath.Join(baseDir, runID, historyFile), &history)
	return history, ok, err
}

func ReadFinalPopulation(baseDir, runID string) (model.PopulationSnapshot, bool, error) {
	var snapshot model.PopulationSnapshot
	ok, err := readJSON(filepath.Join(baseDir, runID, finalPopulationFile), &snapshot)
	return snapshot, ok, err
}

func ReadSummary(baseDir, runID string) (Summary, Diversity, bool, error) {
	var doc summaryDocument
	ok, err := readJSON(filepath.Join(baseDir, runID, summaryFile), &doc)
	return doc.Summary, doc.Diversity, ok, err
}

func WriteHistoryCSV(path string, history []model.GenerationStats) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(historyCSVHeader); err != nil {
		return err
	}
	for _, s := range history {
		if err := writer.Write([]string{
			strconv.Itoa(s.Generation),
			strconv.Itoa(s.PopulationSize),
			formatFloat(s.MeanLength),
			strconv.Itoa(s.MinLength),
			strconv.Itoa(s.MaxLength),
			formatFloat(s.StdLength),
			strconv.Itoa(s.TotalMutations),
			strconv.Itoa(s.NeutralMutations),
			strconv.Itoa(s.NonNeutralMutations),
			strconv.Itoa(s.FailedMutations),
			strconv.Itoa(s.Survivors),
			formatFloat(s.LengthDiversity),
			formatFloat(s.SurvivalRate),
			formatFloat(s.MeanSegmentCount),
			formatFloat(s.MeanCodingFraction),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadHistoryCSV parses the generation, mean, min and max length columns of a
// history written by WriteHistoryCSV.
func ReadHistoryCSV(path string) ([]model.GenerationStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []model.GenerationStats{}, nil
		}
		return nil, err
	}
	if len(header) != len(historyCSVHeader) {
		return nil, fmt.Errorf("history csv header must have %d columns, got %d", len(historyCSVHeader), len(header))
	}

	history := make([]model.GenerationStats, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		var s model.GenerationStats
		if s.Generation, err = strconv.Atoi(record[0]); err != nil {
			return nil, err
		}
		if s.PopulationSize, err = strconv.Atoi(record[1]); err != nil {
			return nil, err
		}
		if s.MeanLength, err = strconv.ParseFloat(record[2], 64); err != nil {
			return nil, err
		}
		if s.MinLength, err = strconv.Atoi(record[3]); err != nil {
			return nil, err
		}
		if s.MaxLength, err = strconv.Atoi(record[4]); err != nil {
			return nil, err
		}
		history = append(history, s)
	}
	return history, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func readJSON(path string, value any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func writeYAML(path string, value any) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
