package mutation

import (
	"fmt"

	"emergents/internal/genome"
)

// SmallInsertion inserts Length non-coding bases at GAP Position.
type SmallInsertion struct {
	Position int
	Length   int
}

func NewSmallInsertion(position, length int) (*SmallInsertion, error) {
	if err := checkPosition("position", position); err != nil {
		return nil, err
	}
	if err := checkLength(length); err != nil {
		return nil, err
	}
	return &SmallInsertion{Position: position, Length: length}, nil
}

func (m *SmallInsertion) Kind() Kind { return KindSmallInsertion }

// IsNeutral accepts the genome end, any gap inside a non-coding segment and
// any segment boundary.
func (m *SmallInsertion) IsNeutral(g *genome.Genome) (bool, error) {
	return safeGap(g, m.Position)
}

func (m *SmallInsertion) Apply(g *genome.Genome) error {
	return g.InsertAtGap(m.Position, genome.NewNonCoding(m.Length))
}

func (m *SmallInsertion) Describe() string {
	return fmt.Sprintf("SmallInsertion(position=%d, length=%d)", m.Position, m.Length)
}
