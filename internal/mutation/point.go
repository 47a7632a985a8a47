package mutation

import (
	"fmt"

	"emergents/internal/genome"
)

// PointMutation substitutes one base. Base content is not modelled, so Apply
// leaves the genome unchanged.
type PointMutation struct {
	Position int
}

func NewPointMutation(position int) (*PointMutation, error) {
	if err := checkPosition("position", position); err != nil {
		return nil, err
	}
	return &PointMutation{Position: position}, nil
}

func (m *PointMutation) Kind() Kind { return KindPointMutation }

func (m *PointMutation) IsNeutral(g *genome.Genome) (bool, error) {
	loc, err := g.FindSegmentAtPosition(m.Position, genome.Base)
	if err != nil {
		return false, err
	}
	return loc.Segment.IsNonCoding(), nil
}

func (m *PointMutation) Apply(_ *genome.Genome) error {
	return nil
}

func (m *PointMutation) Describe() string {
	return fmt.Sprintf("PointMutation(position=%d)", m.Position)
}
