package stats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emergents/internal/model"
)

func sampleHistory() []model.GenerationStats {
	return []model.GenerationStats{
		{Generation: 1, PopulationSize: 4, MeanLength: 100, MinLength: 98, MaxLength: 103, TotalMutations: 3, NeutralMutations: 2, NonNeutralMutations: 1, Survivors: 3},
		{Generation: 2, PopulationSize: 4, MeanLength: 101.5, MinLength: 97, MaxLength: 106, TotalMutations: 5, NeutralMutations: 5, Survivors: 4},
	}
}

func sampleSnapshot() model.PopulationSnapshot {
	return model.PopulationSnapshot{
		RunID:      "run-1",
		Generation: 2,
		Genomes: []model.GenomeSnapshot{
			{Segments: []model.SegmentRecord{{Kind: "noncoding", Length: 90}, {Kind: "coding", Length: 10, Orientation: "forward"}}},
			{Segments: []model.SegmentRecord{{Kind: "noncoding", Length: 97}}},
		},
	}
}

func TestWriteRunArtifactsRoundTrip(t *testing.T) {
	base := t.TempDir()
	runDir, err := WriteRunArtifacts(base, RunArtifacts{
		RunID:           "run-1",
		Config:          map[string]any{"population": map[string]any{"size": 4}},
		History:         sampleHistory(),
		FinalPopulation: sampleSnapshot(),
		Summary:         Summarize(sampleHistory()),
		Diversity:       Diversity{UniqueLengthCount: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "run-1"), runDir)

	for _, file := range []string{"config.yaml", "history.json", "history.csv", "final_population.json", "summary.json"} {
		assert.FileExists(t, filepath.Join(runDir, file))
	}

	history, ok, err := ReadHistory(base, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleHistory(), history)

	snapshot, ok, err := ReadFinalPopulation(base, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int{100, 97}, SnapshotLengths(snapshot))

	summary, diversity, ok, err := ReadSummary(base, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, summary.TotalGenerations)
	assert.Equal(t, 2, diversity.UniqueLengthCount)

	config, err := os.ReadFile(filepath.Join(runDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(config), "size: 4")

	parsed, err := ReadHistoryCSV(filepath.Join(runDir, "history.csv"))
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.InDelta(t, 101.5, parsed[1].MeanLength, 1e-9)
	assert.Equal(t, 106, parsed[1].MaxLength)
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	_, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{})
	require.Error(t, err)
}

func TestReadMissingArtifacts(t *testing.T) {
	_, ok, err := ReadHistory(t.TempDir(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunIndexNewestFirstAndReplace(t *testing.T) {
	base := t.TempDir()
	entries, err := ListRunIndex(base)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, AppendRunIndex(base, RunIndexEntry{RunID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z"}))
	require.NoError(t, AppendRunIndex(base, RunIndexEntry{RunID: "b", CreatedAtUTC: "2026-01-02T00:00:00Z"}))
	require.NoError(t, AppendRunIndex(base, RunIndexEntry{RunID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z", Extinct: true}))
	require.Error(t, AppendRunIndex(base, RunIndexEntry{}))

	entries, err = ListRunIndex(base)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].RunID)
	assert.Equal(t, "a", entries[1].RunID)
	assert.True(t, entries[1].Extinct)
}

func TestExportRunArtifacts(t *testing.T) {
	base := t.TempDir()
	_, err := WriteRunArtifacts(base, RunArtifacts{RunID: "run-1", History: sampleHistory(), FinalPopulation: sampleSnapshot()})
	require.NoError(t, err)

	out := t.TempDir()
	dst, err := ExportRunArtifacts(base, "run-1", out)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dst, "history.json"))
	assert.FileExists(t, filepath.Join(dst, "summary.json"))
	assert.NoFileExists(t, filepath.Join(dst, "config.yaml"))

	_, err = ExportRunArtifacts(base, "missing", out)
	require.Error(t, err)
}

func TestWritePlots(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WritePlots(dir, sampleHistory(), []int{100, 97, 103, 98}))

	for _, file := range []string{LengthPlotFile, HistogramPlotFile} {
		info, err := os.Stat(filepath.Join(dir, file))
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	require.Error(t, PlotLengthHistory(nil, filepath.Join(dir, "empty.png")))
	require.Error(t, PlotLengthHistogram(nil, filepath.Join(dir, "empty.png")))
}
