package emergents

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"emergents/internal/config"
	"emergents/internal/evo"
	"emergents/internal/model"
	"emergents/internal/stats"
)

const (
	experimentInProgress = "in_progress"
	experimentCompleted  = "completed"
	experimentFailed     = "failed"

	// AggregatePlotFile is written next to experiment.json.
	AggregatePlotFile = "mean_length.png"
)

type ExperimentRequest struct {
	ID     string
	Notes  string
	Config config.Simulation
	// Replicates run with seeds Config.Population.Seed, Seed+1, ...
	Replicates int
	// Parallel bounds concurrent replicates. Zero runs them one at a time.
	Parallel int
	Observer evo.Observer
}

type ExperimentSummary struct {
	ID              string
	Runs            []RunSummary
	Series          []stats.SeriesPoint
	MeanFinalLength float64
	Extinctions     int
	Directory       string
}

// Experiment runs independent replicates of one configuration and records
// their aggregate length trajectory.
func (c *Client) Experiment(ctx context.Context, req ExperimentRequest) (ExperimentSummary, error) {
	if req.Replicates <= 0 {
		return ExperimentSummary{}, errors.New("replicates must be > 0")
	}
	if req.Parallel < 0 {
		return ExperimentSummary{}, errors.New("parallel must be >= 0")
	}
	if err := req.Config.Validate(); err != nil {
		return ExperimentSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return ExperimentSummary{}, err
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	log := c.logger.With("experiment_id", id)

	exp := stats.Experiment{
		ID:           id,
		Notes:        req.Notes,
		ProgressFlag: experimentInProgress,
		TotalRuns:    req.Replicates,
		StartedAtUTC: c.now().UTC().Format(time.RFC3339),
		Seeds:        make([]int64, req.Replicates),
		RunIDs:       make([]string, req.Replicates),
	}
	for i := range exp.Seeds {
		exp.Seeds[i] = req.Config.Population.Seed + int64(i)
		exp.RunIDs[i] = fmt.Sprintf("%s-r%02d", id, i+1)
	}
	if err := stats.WriteExperiment(c.artifactsDir, exp); err != nil {
		return ExperimentSummary{}, err
	}
	log.Info("experiment started", "replicates", req.Replicates, "parallel", req.Parallel)

	runs := make([]RunSummary, req.Replicates)
	g, gctx := errgroup.WithContext(ctx)
	limit := req.Parallel
	if limit == 0 {
		limit = 1
	}
	g.SetLimit(limit)
	for i := range runs {
		cfg := req.Config
		cfg.Population.Seed = exp.Seeds[i]
		runID := exp.RunIDs[i]
		g.Go(func() error {
			summary, err := c.Run(gctx, RunRequest{RunID: runID, Config: cfg, Observer: req.Observer})
			if err != nil {
				return fmt.Errorf("replicate %s: %w", runID, err)
			}
			runs[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		exp.ProgressFlag = experimentFailed
		exp.CompletedAtUTC = c.now().UTC().Format(time.RFC3339)
		if werr := stats.WriteExperiment(c.artifactsDir, exp); werr != nil {
			log.Error("record failed experiment", "error", werr)
		}
		return ExperimentSummary{}, err
	}

	histories := make([][]model.GenerationStats, len(runs))
	exp.Summaries = make([]stats.Summary, len(runs))
	extinctions := 0
	for i, run := range runs {
		histories[i] = run.History
		exp.Summaries[i] = run.Summary
		if run.Extinct {
			extinctions++
		}
	}
	exp.RunIndex = len(runs)
	exp.ProgressFlag = experimentCompleted
	exp.CompletedAtUTC = c.now().UTC().Format(time.RFC3339)
	if err := stats.WriteExperiment(c.artifactsDir, exp); err != nil {
		return ExperimentSummary{}, err
	}

	dir := filepath.Join(c.artifactsDir, "experiments", id)
	series := stats.AggregateMeanLength(histories)
	if req.Config.Evolution.EnablePlotting && len(series) > 0 {
		if err := stats.PlotAggregate(series, filepath.Join(dir, AggregatePlotFile)); err != nil {
			return ExperimentSummary{}, fmt.Errorf("plot experiment: %w", err)
		}
	}

	meanFinal := stats.MeanFinalLength(exp.Summaries)
	log.Info("experiment completed", "mean_final_length", meanFinal, "extinctions", extinctions)
	return ExperimentSummary{
		ID:              id,
		Runs:            runs,
		Series:          series,
		MeanFinalLength: meanFinal,
		Extinctions:     extinctions,
		Directory:       dir,
	}, nil
}

// Experiments lists recorded experiments, newest first.
func (c *Client) Experiments(_ context.Context) ([]stats.Experiment, error) {
	return stats.ListExperiments(c.artifactsDir)
}
