package storage

import (
	"context"

	"emergents/internal/model"
)

// Store persists simulation runs: the run record, its per-generation
// statistics and the final population.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns every run, most recently created first.
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	DeleteRun(ctx context.Context, id string) error
	SaveHistory(ctx context.Context, runID string, history []model.GenerationStats) error
	GetHistory(ctx context.Context, runID string) ([]model.GenerationStats, bool, error)
	SaveSnapshot(ctx context.Context, snapshot model.PopulationSnapshot) error
	GetSnapshot(ctx context.Context, runID string) (model.PopulationSnapshot, bool, error)
}
