package emergents

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emergents/internal/config"
	"emergents/internal/model"
	"emergents/internal/stats"
)

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:    "memory",
		ArtifactsDir: filepath.Join(base, "artifacts"),
		ExportsDir:   filepath.Join(base, "exports"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, base
}

func smallConfig() config.Simulation {
	cfg := config.Default()
	cfg.Genome.InitialLength = 60
	cfg.Genome.NumCodingSegments = 2
	cfg.Genome.CodingLengths = []int{20}
	cfg.Genome.NonCodingLengths = []int{10}
	cfg.Population.Size = 12
	cfg.Population.MutationRate = 0.01
	cfg.Population.Seed = 42
	cfg.Population.Workers = 2
	cfg.Evolution.Generations = 5
	cfg.Evolution.ReportInterval = 2
	cfg.Evolution.ShowProgress = false
	cfg.Evolution.EnablePlotting = false
	return cfg
}

func TestClientRunRunsAndExport(t *testing.T) {
	client, base := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{Config: smallConfig()})
	require.NoError(t, err)
	require.NotEmpty(t, summary.RunID)
	assert.False(t, summary.Extinct)
	assert.Equal(t, 5, summary.CompletedGenerations)
	require.Len(t, summary.History, 5)
	assert.Equal(t, 5, summary.Summary.TotalGenerations)
	for i, s := range summary.History {
		assert.Equal(t, i+1, s.Generation)
		assert.Equal(t, 12, s.PopulationSize)
	}

	runs, err := client.Runs(ctx, RunsRequest{Limit: 5})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].RunID)
	assert.Equal(t, int64(42), runs[0].Seed)
	assert.Equal(t, 12, runs[0].Population)

	history, err := client.History(ctx, HistoryRequest{Latest: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 4, history[0].Generation)
	assert.Equal(t, 5, history[1].Generation)

	exported, err := client.Export(ctx, ExportRequest{Latest: true})
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, exported.RunID)
	assert.Equal(t, filepath.Join(base, "exports", summary.RunID), exported.Directory)
	for _, file := range []string{"history.json", "history.csv", "final_population.json", "summary.json", "config.yaml"} {
		_, err := os.Stat(filepath.Join(exported.Directory, file))
		assert.NoError(t, err, file)
	}
}

func TestClientRunIsReproducible(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	cfg := smallConfig()
	cfg.Population.MutationRate = 0.02
	first, err := client.Run(ctx, RunRequest{RunID: "a", Config: cfg})
	require.NoError(t, err)
	cfg.Population.Workers = 4
	second, err := client.Run(ctx, RunRequest{RunID: "b", Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, first.History, second.History)
}

func TestClientRunPersistsToStore(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{RunID: "stored", Config: smallConfig()})
	require.NoError(t, err)

	run, ok, err := client.store.GetRun(ctx, "stored")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, run.SchemaVersion)
	assert.Equal(t, 60, run.InitialLength)
	assert.Equal(t, summary.Summary.FinalMeanLength, run.FinalMeanLength)
	assert.Equal(t, summary.ArtifactsDir, run.ArtifactsDir)

	snapshot, ok, err := client.store.GetSnapshot(ctx, "stored")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, snapshot.Genomes, 12)
	assert.Equal(t, 5, snapshot.Generation)
}

func TestClientRunRecordsExtinction(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	cfg := smallConfig()
	cfg.Genome.InitialLength = 202
	cfg.Genome.CodingLengths = []int{100}
	cfg.Genome.NonCodingLengths = []int{1}
	cfg.Population.MutationRate = 1
	cfg.Mutations = config.MutationConfig{PointMutation: 1, SmallMaxSize: 10}

	summary, err := client.Run(ctx, RunRequest{RunID: "doomed", Config: cfg})
	require.NoError(t, err)
	assert.True(t, summary.Extinct)
	assert.Zero(t, summary.CompletedGenerations)

	runs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Extinct)
	assert.Zero(t, runs[0].CompletedGenerations)
}

func TestClientRunRejectsInvalidConfig(t *testing.T) {
	client, _ := newTestClient(t)

	cfg := smallConfig()
	cfg.Population.Size = 0
	_, err := client.Run(context.Background(), RunRequest{Config: cfg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size must be > 0")
}

func TestClientRunWritesPlots(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	cfg := smallConfig()
	cfg.Evolution.EnablePlotting = true
	summary, err := client.Run(ctx, RunRequest{Config: cfg})
	require.NoError(t, err)
	for _, file := range []string{stats.LengthPlotFile, stats.HistogramPlotFile} {
		_, err := os.Stat(filepath.Join(summary.ArtifactsDir, file))
		assert.NoError(t, err, file)
	}

	outDir := t.TempDir()
	plotted, err := client.Plot(ctx, PlotRequest{RunID: summary.RunID, OutDir: outDir})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(outDir, stats.LengthPlotFile),
		filepath.Join(outDir, stats.HistogramPlotFile),
	}, plotted.Files)
}

func TestClientHistoryFallsBackToArtifacts(t *testing.T) {
	client, base := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{RunID: "persisted", Config: smallConfig()})
	require.NoError(t, err)

	reopened, err := New(Options{
		StoreKind:    "memory",
		ArtifactsDir: filepath.Join(base, "artifacts"),
	})
	require.NoError(t, err)
	defer reopened.Close()

	history, err := reopened.History(ctx, HistoryRequest{RunID: "persisted"})
	require.NoError(t, err)
	assert.Equal(t, summary.History, history)
}

func TestClientRunSelectorsAndBadgerStore(t *testing.T) {
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:    "badger",
		DBPath:       filepath.Join(base, "db"),
		ArtifactsDir: filepath.Join(base, "artifacts"),
	})
	require.NoError(t, err)
	defer client.Close()

	cfg := smallConfig()
	cfg.Population.Selector = "tournament_short"
	summary, err := client.Run(context.Background(), RunRequest{RunID: "badger-run", Config: cfg})
	require.NoError(t, err)

	history, ok, err := client.store.GetHistory(context.Background(), "badger-run")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, summary.History, history)
}

func TestClientRequestValidation(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	_, err := client.History(ctx, HistoryRequest{RunID: "x", Latest: true})
	assert.EqualError(t, err, "use either run id or latest")
	_, err = client.History(ctx, HistoryRequest{})
	assert.EqualError(t, err, "run id or latest is required")
	_, err = client.History(ctx, HistoryRequest{RunID: "x", Limit: -1})
	assert.EqualError(t, err, "limit must be >= 0")
	_, err = client.History(ctx, HistoryRequest{Latest: true})
	assert.EqualError(t, err, "no runs available")
	_, err = client.History(ctx, HistoryRequest{RunID: "missing"})
	assert.EqualError(t, err, "history not found for run missing")
	_, err = client.Export(ctx, ExportRequest{})
	assert.EqualError(t, err, "export requires run id or latest")
}

func TestClientObserverReceivesGenerations(t *testing.T) {
	client, _ := newTestClient(t)

	var seen []model.GenerationStats
	observer := generationRecorder(func(s model.GenerationStats) {
		seen = append(seen, s)
	})
	summary, err := client.Run(context.Background(), RunRequest{Config: smallConfig(), Observer: observer})
	require.NoError(t, err)
	assert.Equal(t, summary.History, seen)
}
