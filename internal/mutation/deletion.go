package mutation

import (
	"fmt"

	"emergents/internal/genome"
)

// SmallDeletion removes Length bases starting at BASE Position.
type SmallDeletion struct {
	Position int
	Length   int
}

func NewSmallDeletion(position, length int) (*SmallDeletion, error) {
	if err := checkPosition("position", position); err != nil {
		return nil, err
	}
	if err := checkLength(length); err != nil {
		return nil, err
	}
	return &SmallDeletion{Position: position, Length: length}, nil
}

func (m *SmallDeletion) Kind() Kind { return KindSmallDeletion }

// IsNeutral holds when every deleted base belongs to the same non-coding
// segment instance.
func (m *SmallDeletion) IsNeutral(g *genome.Genome) (bool, error) {
	last := m.Position + m.Length - 1
	if err := validateBaseEnds(g, m.Position, last); err != nil {
		return false, err
	}
	return sameInstance(g, m.Position, last)
}

func (m *SmallDeletion) Apply(g *genome.Genome) error {
	return g.DeleteRange(m.Position, m.Position+m.Length)
}

func (m *SmallDeletion) Describe() string {
	return fmt.Sprintf("SmallDeletion(position=%d, length=%d)", m.Position, m.Length)
}

// Deletion removes the inclusive base range [Start, End]. On a circular
// genome Start > End selects the range wrapping through the origin.
type Deletion struct {
	Start int
	End   int
}

func NewDeletion(start, end int) (*Deletion, error) {
	if err := checkPosition("start", start); err != nil {
		return nil, err
	}
	if err := checkPosition("end", end); err != nil {
		return nil, err
	}
	return &Deletion{Start: start, End: end}, nil
}

func (m *Deletion) Kind() Kind { return KindDeletion }

// IsNeutral requires every non-wrapping piece of the range to lie inside one
// non-coding segment instance.
func (m *Deletion) IsNeutral(g *genome.Genome) (bool, error) {
	if err := validateBaseEnds(g, m.Start, m.End); err != nil {
		return false, err
	}
	intervals, err := sourceIntervals(g, m.Start, m.End)
	if err != nil {
		return false, err
	}
	for _, iv := range intervals {
		ok, err := sameInstance(g, iv.start, iv.end)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (m *Deletion) Apply(g *genome.Genome) error {
	if err := validateBaseEnds(g, m.Start, m.End); err != nil {
		return err
	}
	if m.Start > m.End && !g.Circular() {
		return fmt.Errorf("%w: start %d > end %d on a linear genome", genome.ErrInvalidArgument, m.Start, m.End)
	}
	// A wrapping range with Start == End+1 is empty.
	return g.DeleteRange(m.Start, m.End+1)
}

func (m *Deletion) Describe() string {
	return fmt.Sprintf("Deletion(start=%d, end=%d)", m.Start, m.End)
}
