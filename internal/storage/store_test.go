package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emergents/internal/model"
)

func sampleRun(id, createdAt string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: CurrentVersion(),
		ID:              id,
		CreatedAtUTC:    createdAt,
		Seed:            7,
		PopulationSize:  10,
		Generations:     5,
		MutationRate:    0.03,
		Circular:        true,
		InitialLength:   100,
		FinalMeanLength: 103.5,
	}
}

func sampleSnapshot(runID string) model.PopulationSnapshot {
	return model.PopulationSnapshot{
		VersionedRecord: CurrentVersion(),
		RunID:           runID,
		Generation:      5,
		Genomes: []model.GenomeSnapshot{
			{Circular: true, Segments: []model.SegmentRecord{{Kind: "coding", Length: 10, Orientation: "forward"}, {Kind: "noncoding", Length: 90}}},
		},
	}
}

// exerciseStore checks the behaviour every backend must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.GetRun(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	older := sampleRun("run-a", "2026-01-01T00:00:00Z")
	newer := sampleRun("run-b", "2026-01-02T00:00:00Z")
	require.NoError(t, store.SaveRun(ctx, older))
	require.NoError(t, store.SaveRun(ctx, newer))

	loaded, ok, err := store.GetRun(ctx, "run-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, older, loaded)

	older.Extinct = true
	require.NoError(t, store.SaveRun(ctx, older))
	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-b", runs[0].ID)
	assert.Equal(t, "run-a", runs[1].ID)
	assert.True(t, runs[1].Extinct)

	history := []model.GenerationStats{
		{Generation: 1, PopulationSize: 10, MeanLength: 100.5, TotalMutations: 3},
		{Generation: 2, PopulationSize: 10, MeanLength: 101, TotalMutations: 4},
	}
	require.NoError(t, store.SaveHistory(ctx, "run-a", history))
	loadedHistory, ok, err := store.GetHistory(ctx, "run-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, history, loadedHistory)

	_, ok, err = store.GetHistory(ctx, "run-b")
	require.NoError(t, err)
	assert.False(t, ok)

	snapshot := sampleSnapshot("run-a")
	require.NoError(t, store.SaveSnapshot(ctx, snapshot))
	loadedSnapshot, ok, err := store.GetSnapshot(ctx, "run-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snapshot, loadedSnapshot)

	require.NoError(t, store.DeleteRun(ctx, "run-a"))
	_, ok, err = store.GetRun(ctx, "run-a")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.GetHistory(ctx, "run-a")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.GetSnapshot(ctx, "run-a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	require.Error(t, store.SaveRun(context.Background(), sampleRun("x", "")))
	require.NoError(t, store.Init(context.Background()))
	exerciseStore(t, store)
}

func TestMemoryStoreCopiesSnapshots(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	snapshot := sampleSnapshot("run-a")
	require.NoError(t, store.SaveSnapshot(ctx, snapshot))
	snapshot.Genomes[0].Segments[0].Length = 999

	loaded, _, err := store.GetSnapshot(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, 10, loaded.Genomes[0].Segments[0].Length)
}

func TestBadgerStoreInMemory(t *testing.T) {
	store := NewBadgerStore(BadgerConfig{InMemory: true})
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	exerciseStore(t, store)
}

func TestBadgerStorePersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := NewBadgerStore(BadgerConfig{Path: dir, SyncWrites: true})
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.SaveRun(ctx, sampleRun("run-a", "2026-01-01T00:00:00Z")))
	require.NoError(t, store.Close())

	reopened := NewBadgerStore(BadgerConfig{Path: dir})
	require.NoError(t, reopened.Init(ctx))
	t.Cleanup(func() { _ = reopened.Close() })
	_, ok, err := reopened.GetRun(ctx, "run-a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBadgerStoreRequiresInit(t *testing.T) {
	store := NewBadgerStore(BadgerConfig{InMemory: true})
	_, _, err := store.GetRun(context.Background(), "run-a")
	require.Error(t, err)

	require.Error(t, NewBadgerStore(BadgerConfig{}).Init(context.Background()))
}
