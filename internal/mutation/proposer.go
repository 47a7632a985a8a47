package mutation

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"emergents/internal/genome"
)

type WeightedKind struct {
	Kind   Kind
	Weight float64
}

// DefaultWeights gives every built-in operator the same weight.
func DefaultWeights() []WeightedKind {
	weights := make([]WeightedKind, 0, len(AllKinds))
	for _, kind := range AllKinds {
		weights = append(weights, WeightedKind{Kind: kind, Weight: 1})
	}
	return weights
}

// Proposer draws mutation kinds by weight and random coordinates for them.
// It holds no random state; callers pass their own source so that genomes
// mutated on different goroutines stay reproducible.
type Proposer struct {
	policy    []WeightedKind
	factories []Factory
	total     float64
	params    Params
}

func NewProposer(policy []WeightedKind, params Params) (*Proposer, error) {
	if len(policy) == 0 {
		return nil, errors.New("mutation policy is required")
	}
	if params.SmallMaxSize <= 0 {
		return nil, fmt.Errorf("small mutation max size must be > 0, got %d", params.SmallMaxSize)
	}

	p := &Proposer{params: params}
	for i, item := range policy {
		if item.Weight < 0 {
			return nil, fmt.Errorf("mutation policy weight must be >= 0 at index %d", i)
		}
		factory, err := ResolveKind(item.Kind)
		if err != nil {
			return nil, err
		}
		p.policy = append(p.policy, item)
		p.factories = append(p.factories, factory)
		p.total += item.Weight
	}
	if p.total <= 0 {
		return nil, errors.New("mutation policy requires at least one positive weight")
	}
	return p, nil
}

// Probabilities returns the normalized weight of every kind in the policy.
func (p *Proposer) Probabilities() map[Kind]float64 {
	out := make(map[Kind]float64, len(p.policy))
	for _, item := range p.policy {
		out[item.Kind] += item.Weight / p.total
	}
	return out
}

func (p *Proposer) chooseIndex(rng *rand.Rand) int {
	pick := rng.Float64() * p.total
	acc := 0.0
	for i, item := range p.policy {
		acc += item.Weight
		if item.Weight > 0 && pick < acc {
			return i
		}
	}
	for i := len(p.policy) - 1; i >= 0; i-- {
		if p.policy[i].Weight > 0 {
			return i
		}
	}
	return len(p.policy) - 1
}

func (p *Proposer) ChooseKind(rng *rand.Rand) Kind {
	return p.policy[p.chooseIndex(rng)].Kind
}

// Propose draws a kind and then coordinates for it against the current length
// of g.
func (p *Proposer) Propose(rng *rand.Rand, g *genome.Genome) (Mutation, error) {
	if g.Len() == 0 {
		return nil, ErrEmptyGenome
	}
	return p.factories[p.chooseIndex(rng)](rng, g, p.params)
}

// ProposeKind draws coordinates for a specific kind.
func (p *Proposer) ProposeKind(rng *rand.Rand, g *genome.Genome, kind Kind) (Mutation, error) {
	if g.Len() == 0 {
		return nil, ErrEmptyGenome
	}
	factory, err := ResolveKind(kind)
	if err != nil {
		return nil, err
	}
	return factory(rng, g, p.params)
}
