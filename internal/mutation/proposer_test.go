package mutation

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emergents/internal/genome"
)

func TestNewProposerValidation(t *testing.T) {
	params := Params{SmallMaxSize: 10}

	_, err := NewProposer(nil, params)
	require.Error(t, err)

	_, err = NewProposer(DefaultWeights(), Params{})
	require.Error(t, err)

	_, err = NewProposer([]WeightedKind{{Kind: KindDeletion, Weight: -1}}, params)
	require.Error(t, err)

	_, err = NewProposer([]WeightedKind{{Kind: KindDeletion, Weight: 0}}, params)
	require.Error(t, err)

	_, err = NewProposer([]WeightedKind{{Kind: "transposition", Weight: 1}}, params)
	require.ErrorIs(t, err, ErrKindNotFound)
}

func TestProposerProbabilitiesAreNormalized(t *testing.T) {
	p, err := NewProposer([]WeightedKind{
		{Kind: KindPointMutation, Weight: 3},
		{Kind: KindInversion, Weight: 1},
	}, Params{SmallMaxSize: 5})
	require.NoError(t, err)

	probs := p.Probabilities()
	assert.InDelta(t, 0.75, probs[KindPointMutation], 1e-12)
	assert.InDelta(t, 0.25, probs[KindInversion], 1e-12)
}

func TestProposerSkipsZeroWeights(t *testing.T) {
	p, err := NewProposer([]WeightedKind{
		{Kind: KindPointMutation, Weight: 0},
		{Kind: KindInversion, Weight: 2},
		{Kind: KindDeletion, Weight: 0},
	}, Params{SmallMaxSize: 5})
	require.NoError(t, err)

	rng := testRand(3)
	for i := 0; i < 200; i++ {
		assert.Equal(t, KindInversion, p.ChooseKind(rng))
	}
}

func TestProposeEmptyGenome(t *testing.T) {
	p, err := NewProposer(DefaultWeights(), Params{SmallMaxSize: 5})
	require.NoError(t, err)
	g := newGenome(t, false)

	_, err = p.Propose(testRand(1), g)
	require.ErrorIs(t, err, ErrEmptyGenome)
	_, err = p.ProposeKind(testRand(1), g, KindDeletion)
	require.ErrorIs(t, err, ErrEmptyGenome)
}

func TestProposalsAreInRange(t *testing.T) {
	p, err := NewProposer(DefaultWeights(), Params{SmallMaxSize: 4})
	require.NoError(t, err)

	for _, circular := range []bool{false, true} {
		rng := testRand(17)
		g := newGenome(t, circular,
			genome.NewNonCoding(40), genome.NewCoding(10, genome.Forward), genome.NewNonCoding(40), genome.NewCoding(10, genome.Reverse),
		)
		for i := 0; i < 2000; i++ {
			m, err := p.Propose(rng, g)
			require.NoError(t, err)
			ok, err := m.IsNeutral(g)
			require.NoError(t, err, m.Describe())
			if !ok {
				continue
			}
			require.NoError(t, m.Apply(g), m.Describe())
			g.CoalesceAll()
			require.NoError(t, g.Validate())
			if g.Len() == 0 {
				break
			}
		}
	}
}

func TestProposeKindUsesRequestedKind(t *testing.T) {
	p, err := NewProposer(DefaultWeights(), Params{SmallMaxSize: 4})
	require.NoError(t, err)
	g := newGenome(t, true, genome.NewNonCoding(30), genome.NewCoding(10, genome.Forward))
	rng := testRand(5)

	for _, kind := range AllKinds {
		m, err := p.ProposeKind(rng, g, kind)
		require.NoError(t, err)
		assert.Equal(t, kind, m.Kind())
	}
}

func TestCircularSourcesCanWrap(t *testing.T) {
	g := newGenome(t, true, genome.NewNonCoding(10))
	rng := testRand(23)
	wrapped := false
	for i := 0; i < 200 && !wrapped; i++ {
		start, end := sourceRange(rng, g)
		require.GreaterOrEqual(t, start, 0)
		require.Less(t, end, g.Len())
		wrapped = start > end
	}
	assert.True(t, wrapped)
}

type fixedFactory struct{}

func (fixedFactory) propose(_ *rand.Rand, _ *genome.Genome, _ Params) (Mutation, error) {
	return NewPointMutation(0)
}

func TestRegisterKind(t *testing.T) {
	resetKindRegistryForTests()
	t.Cleanup(resetKindRegistryForTests)

	require.ErrorIs(t, RegisterKind(KindSpec{Kind: KindDeletion, Factory: proposeDeletion}), ErrKindExists)
	require.Error(t, RegisterKind(KindSpec{Kind: "", Factory: proposeDeletion}))
	require.Error(t, RegisterKind(KindSpec{Kind: "fixed"}))

	require.NoError(t, RegisterKind(KindSpec{Kind: "fixed", Factory: fixedFactory{}.propose}))
	assert.Contains(t, ListKinds(), Kind("fixed"))

	p, err := NewProposer([]WeightedKind{{Kind: "fixed", Weight: 1}}, Params{SmallMaxSize: 1})
	require.NoError(t, err)
	m, err := p.Propose(testRand(1), newGenome(t, false, genome.NewNonCoding(3)))
	require.NoError(t, err)
	assert.Equal(t, KindPointMutation, m.Kind())

	resetKindRegistryForTests()
	_, err = ResolveKind("fixed")
	require.ErrorIs(t, err, ErrKindNotFound)
	assert.Len(t, ListKinds(), len(AllKinds))
}
