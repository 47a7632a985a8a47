package evo

import (
	"fmt"
	"math/rand/v2"

	"emergents/internal/genome"
)

// Selector chooses the parent a replacement genome is copied from.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, survivors []*genome.Genome) (*genome.Genome, error)
}

// UniformSelector picks any survivor with equal probability, so even a
// long-lived lineage can fail to reproduce. This is what drives drift.
type UniformSelector struct{}

func (UniformSelector) Name() string {
	return "uniform"
}

func (UniformSelector) PickParent(rng *rand.Rand, survivors []*genome.Genome) (*genome.Genome, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if len(survivors) == 0 {
		return nil, fmt.Errorf("no survivors to pick from")
	}
	return survivors[rng.IntN(len(survivors))], nil
}

// TournamentSelector samples TournamentSize survivors and keeps the longest
// or shortest one depending on PreferShort.
type TournamentSelector struct {
	TournamentSize int
	PreferShort    bool
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParent(rng *rand.Rand, survivors []*genome.Genome) (*genome.Genome, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if len(survivors) == 0 {
		return nil, fmt.Errorf("no survivors to pick from")
	}

	size := s.TournamentSize
	if size <= 0 {
		size = 3
	}

	best := survivors[rng.IntN(len(survivors))]
	for i := 1; i < size; i++ {
		candidate := survivors[rng.IntN(len(survivors))]
		if s.PreferShort {
			if candidate.Len() < best.Len() {
				best = candidate
			}
		} else if candidate.Len() > best.Len() {
			best = candidate
		}
	}
	return best, nil
}

// SelectorFromName resolves a selector by its configured name.
func SelectorFromName(name string) (Selector, error) {
	switch name {
	case "", "uniform":
		return UniformSelector{}, nil
	case "tournament":
		return TournamentSelector{}, nil
	case "tournament_short":
		return TournamentSelector{PreferShort: true}, nil
	default:
		return nil, fmt.Errorf("unsupported selector: %s", name)
	}
}
