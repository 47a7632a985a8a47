package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emergents/internal/genome"
	"emergents/internal/mutation"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	spec, err := cfg.GenomeSpec()
	require.NoError(t, err)
	segments, err := spec.Segments()
	require.NoError(t, err)
	assert.Len(t, segments, 10)
	assert.Equal(t, genome.Coding, segments[0].Kind())

	assert.Len(t, cfg.Mutations.Policy(), len(mutation.AllKinds))
	assert.Equal(t, 10, cfg.Mutations.Params().SmallMaxSize)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Population.Size = 0
	cfg.Population.MutationRate = 2
	cfg.Evolution.Generations = 0
	cfg.Storage.Backend = "badger"
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"size", "mutation_rate", "generations", "path is required", "log level"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateGenomeAndMutations(t *testing.T) {
	cfg := Default()
	cfg.Genome.Circular = false
	require.ErrorContains(t, cfg.Validate(), "genome")

	cfg = Default()
	cfg.Genome.PromoterDirections = []string{"sideways"}
	require.ErrorContains(t, cfg.Validate(), "genome")

	cfg = Default()
	cfg.Mutations = MutationConfig{SmallMaxSize: 10}
	require.ErrorContains(t, cfg.Validate(), "mutations")

	cfg = Default()
	cfg.Population.Selector = "roulette"
	require.ErrorContains(t, cfg.Validate(), "selector")
}

func TestWriteThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Population.Seed = 1234
	cfg.Genome.PromoterDirections = []string{"forward", "reverse", "forward", "reverse", "forward"}
	require.NoError(t, Write(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadKeepsDefaultsForOmittedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("population:\n  size: 12\n  mutation_rate: 0.01\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Population.Size)
	assert.InDelta(t, 0.01, cfg.Population.MutationRate, 1e-12)
	assert.Equal(t, 1000, cfg.Evolution.Generations)
	assert.Equal(t, 100, cfg.Genome.InitialLength)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("population: ["), 0o644))
	_, err = Load(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("population:\n  size: -1\n"), 0o644))
	_, err = Load(path)
	require.Error(t, err)
}
