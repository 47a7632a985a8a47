package mutation

import (
	"fmt"

	"emergents/internal/genome"
)

// Inversion reverses the GAP range [Start, End) and flips the promoters of
// the coding segments inside it. Endpoints given in reverse order are swapped
// and Reverted records it.
type Inversion struct {
	Start    int
	End      int
	Reverted bool
}

func NewInversion(start, end int) (*Inversion, error) {
	if err := checkPosition("start", start); err != nil {
		return nil, err
	}
	if err := checkPosition("end", end); err != nil {
		return nil, err
	}
	m := &Inversion{Start: start, End: end}
	if start > end {
		m.Start, m.End = end, start
		m.Reverted = true
	}
	return m, nil
}

func (m *Inversion) Kind() Kind { return KindInversion }

// IsNeutral holds when neither cut point falls inside a coding segment.
func (m *Inversion) IsNeutral(g *genome.Genome) (bool, error) {
	ok, err := safeGap(g, m.Start)
	if err != nil || !ok {
		return false, err
	}
	return safeGap(g, m.End)
}

func (m *Inversion) Apply(g *genome.Genome) error {
	return g.InvertRange(m.Start, m.End)
}

func (m *Inversion) Describe() string {
	return fmt.Sprintf("Inversion(start=%d, end=%d)", m.Start, m.End)
}
