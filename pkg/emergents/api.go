// Package emergents is the public entry point for running genome evolution
// simulations and reading back their results.
package emergents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"emergents/internal/config"
	"emergents/internal/evo"
	"emergents/internal/model"
	"emergents/internal/mutation"
	"emergents/internal/stats"
	"emergents/internal/storage"
)

const (
	defaultArtifactsDir = "artifacts"
	defaultExportsDir   = "exports"
	defaultDBPath       = "emergents.db"
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
	Logger       *slog.Logger
}

type Client struct {
	store storage.Store

	initMu      sync.Mutex
	initialized bool
	indexMu     sync.Mutex

	artifactsDir string
	exportsDir   string
	logger       *slog.Logger
	now          func() time.Time
}

type RunRequest struct {
	// RunID defaults to a random UUID.
	RunID  string
	Config config.Simulation
	// Observer receives population events in addition to the client's own
	// bookkeeping, for example a metrics collector or a progress bar.
	Observer evo.Observer
}

type RunSummary struct {
	RunID                string
	ArtifactsDir         string
	History              []model.GenerationStats
	Summary              stats.Summary
	Diversity            stats.Diversity
	CompletedGenerations int
	Extinct              bool
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID                string
	CreatedAtUTC         string
	Seed                 int64
	Population           int
	Generations          int
	CompletedGenerations int
	MutationRate         float64
	Circular             bool
	Extinct              bool
	FinalMeanLength      float64
}

type HistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type PlotRequest struct {
	RunID  string
	Latest bool
	// OutDir defaults to the run's artifacts directory.
	OutDir string
}

type PlotSummary struct {
	RunID string
	Files []string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = "memory"
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
		logger:       logger,
		now:          time.Now,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Init opens the store. Every other method calls it on first use.
func (c *Client) Init(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// Run evolves a population as configured and persists the outcome. An
// extinct population is a recorded result, not an error.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}
	cfg := req.Config
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := c.logger.With("run_id", runID)

	spec, err := cfg.GenomeSpec()
	if err != nil {
		return RunSummary{}, err
	}
	seed := uint64(cfg.Population.Seed)
	ancestor, err := spec.Build(evo.NewRand(^seed))
	if err != nil {
		return RunSummary{}, err
	}
	proposer, err := mutation.NewProposer(cfg.Mutations.Policy(), cfg.Mutations.Params())
	if err != nil {
		return RunSummary{}, err
	}
	selector, err := evo.SelectorFromName(cfg.Population.Selector)
	if err != nil {
		return RunSummary{}, err
	}
	observer := req.Observer
	if observer == nil {
		observer = evo.NopObserver{}
	}

	population, err := evo.NewPopulation(evo.Config{
		Size:           cfg.Population.Size,
		MutationRate:   cfg.Population.MutationRate,
		Seed:           cfg.Population.Seed,
		Workers:        cfg.Population.Workers,
		ReportInterval: cfg.Evolution.ReportInterval,
		Proposer:       proposer,
		Selector:       selector,
		Observer:       observer,
		Logger:         log,
	}, ancestor)
	if err != nil {
		return RunSummary{}, err
	}

	createdAt := c.now().UTC().Format(time.RFC3339)
	history, err := population.Evolve(ctx, cfg.Evolution.Generations)
	extinct := errors.Is(err, evo.ErrExtinct)
	if err != nil && !extinct {
		return RunSummary{}, err
	}
	if extinct {
		log.Warn("population went extinct", "completed_generations", len(history))
	}

	snapshot := population.Snapshot(runID)
	snapshot.VersionedRecord = storage.CurrentVersion()
	summary := stats.Summarize(history)
	diversity := population.Diversity()

	run := model.RunRecord{
		VersionedRecord:      storage.CurrentVersion(),
		ID:                   runID,
		CreatedAtUTC:         createdAt,
		Seed:                 cfg.Population.Seed,
		PopulationSize:       cfg.Population.Size,
		Generations:          cfg.Evolution.Generations,
		CompletedGenerations: len(history),
		MutationRate:         cfg.Population.MutationRate,
		Circular:             cfg.Genome.Circular,
		InitialLength:        cfg.Genome.InitialLength,
		FinalMeanLength:      summary.FinalMeanLength,
		Extinct:              extinct,
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		RunID:           runID,
		Config:          cfg,
		History:         history,
		FinalPopulation: snapshot,
		Summary:         summary,
		Diversity:       diversity,
	})
	if err != nil {
		return RunSummary{}, err
	}
	run.ArtifactsDir = filepath.Clean(runDir)
	if cfg.Evolution.EnablePlotting && len(history) > 0 {
		if err := stats.WritePlots(runDir, history, stats.SnapshotLengths(snapshot)); err != nil {
			return RunSummary{}, fmt.Errorf("write plots: %w", err)
		}
	}

	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveHistory(ctx, runID, history); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveSnapshot(ctx, snapshot); err != nil {
		return RunSummary{}, err
	}
	c.indexMu.Lock()
	err = stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:                runID,
		PopulationSize:       run.PopulationSize,
		Generations:          run.Generations,
		CompletedGenerations: run.CompletedGenerations,
		Seed:                 run.Seed,
		Workers:              cfg.Population.Workers,
		MutationRate:         run.MutationRate,
		Circular:             run.Circular,
		Extinct:              extinct,
		FinalMeanLength:      run.FinalMeanLength,
		CreatedAtUTC:         createdAt,
	})
	c.indexMu.Unlock()
	if err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:                runID,
		ArtifactsDir:         run.ArtifactsDir,
		History:              history,
		Summary:              summary,
		Diversity:            diversity,
		CompletedGenerations: len(history),
		Extinct:              extinct,
	}, nil
}

// Runs lists recorded runs, newest first. The run index on disk is read so
// that runs from earlier processes are visible with the memory store too.
func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:                e.RunID,
			CreatedAtUTC:         e.CreatedAtUTC,
			Seed:                 e.Seed,
			Population:           e.PopulationSize,
			Generations:          e.Generations,
			CompletedGenerations: e.CompletedGenerations,
			MutationRate:         e.MutationRate,
			Circular:             e.Circular,
			Extinct:              e.Extinct,
			FinalMeanLength:      e.FinalMeanLength,
		})
	}
	return out, nil
}

func (c *Client) resolveRunID(runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", errors.New("run id or latest is required")
	}
	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

// History returns per-generation statistics, from the store when it has
// them and from the run's artifacts otherwise. A positive limit keeps only
// the last generations.
func (c *Client) History(ctx context.Context, req HistoryRequest) ([]model.GenerationStats, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	history, ok, err := c.store.GetHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		history, ok, err = stats.ReadHistory(c.artifactsDir, runID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("history not found for run %s", runID)
		}
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[len(history)-req.Limit:]
	}
	return history, nil
}

func (c *Client) finalPopulation(ctx context.Context, runID string) (model.PopulationSnapshot, bool, error) {
	snapshot, ok, err := c.store.GetSnapshot(ctx, runID)
	if err != nil || ok {
		return snapshot, ok, err
	}
	return stats.ReadFinalPopulation(c.artifactsDir, runID)
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// Plot renders the length plots of a recorded run.
func (c *Client) Plot(ctx context.Context, req PlotRequest) (PlotSummary, error) {
	history, err := c.History(ctx, HistoryRequest{RunID: req.RunID, Latest: req.Latest})
	if err != nil {
		return PlotSummary{}, err
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return PlotSummary{}, err
	}
	if len(history) == 0 {
		return PlotSummary{}, fmt.Errorf("run %s has no generations to plot", runID)
	}

	outDir := req.OutDir
	if outDir == "" {
		outDir = filepath.Join(c.artifactsDir, runID)
	}
	var lengths []int
	snapshot, ok, err := c.finalPopulation(ctx, runID)
	if err != nil {
		return PlotSummary{}, err
	}
	if ok {
		lengths = stats.SnapshotLengths(snapshot)
	}
	if err := stats.WritePlots(outDir, history, lengths); err != nil {
		return PlotSummary{}, err
	}

	files := []string{filepath.Join(outDir, stats.LengthPlotFile)}
	if len(lengths) > 0 {
		files = append(files, filepath.Join(outDir, stats.HistogramPlotFile))
	}
	return PlotSummary{RunID: runID, Files: files}, nil
}
