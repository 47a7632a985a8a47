package evo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emergents/internal/genome"
)

func survivorsOf(t *testing.T, lengths ...int) []*genome.Genome {
	t.Helper()
	out := make([]*genome.Genome, 0, len(lengths))
	for i, l := range lengths {
		g, err := genome.New(NewRand(uint64(i)), false, genome.NewNonCoding(l))
		require.NoError(t, err)
		out = append(out, g)
	}
	return out
}

func TestUniformSelector(t *testing.T) {
	survivors := survivorsOf(t, 5, 6, 7)
	rng := NewRand(1)

	picked := map[int]int{}
	for range 300 {
		g, err := UniformSelector{}.PickParent(rng, survivors)
		require.NoError(t, err)
		picked[g.Len()]++
	}
	assert.Len(t, picked, 3)

	_, err := UniformSelector{}.PickParent(nil, survivors)
	require.Error(t, err)
	_, err = UniformSelector{}.PickParent(rng, nil)
	require.Error(t, err)
}

func TestTournamentSelectorPrefersLength(t *testing.T) {
	survivors := survivorsOf(t, 5, 50)
	rng := NewRand(2)

	long, short := 0, 0
	for range 200 {
		g, err := TournamentSelector{TournamentSize: 4}.PickParent(rng, survivors)
		require.NoError(t, err)
		if g.Len() == 50 {
			long++
		}
		g, err = TournamentSelector{TournamentSize: 4, PreferShort: true}.PickParent(rng, survivors)
		require.NoError(t, err)
		if g.Len() == 5 {
			short++
		}
	}
	assert.Greater(t, long, 150)
	assert.Greater(t, short, 150)

	_, err := TournamentSelector{}.PickParent(rng, nil)
	require.Error(t, err)
}

func TestSelectorFromName(t *testing.T) {
	for name, want := range map[string]string{"": "uniform", "uniform": "uniform", "tournament": "tournament", "tournament_short": "tournament"} {
		s, err := SelectorFromName(name)
		require.NoError(t, err)
		assert.Equal(t, want, s.Name())
	}
	_, err := SelectorFromName("roulette")
	require.Error(t, err)
}
