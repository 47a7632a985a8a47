package mutation

import (
	"fmt"

	"emergents/internal/genome"
)

// Duplication copies the inclusive base range [Start, End] to GAP
// InsertionPos. Only the length of the copy is materialized: Apply inserts an
// inert non-coding block, while IsNeutral still reasons about the coding
// segments of the source.
type Duplication struct {
	Start        int
	End          int
	InsertionPos int
}

func NewDuplication(start, end, insertionPos int) (*Duplication, error) {
	if err := checkPosition("start", start); err != nil {
		return nil, err
	}
	if err := checkPosition("end", end); err != nil {
		return nil, err
	}
	if err := checkPosition("insertion position", insertionPos); err != nil {
		return nil, err
	}
	return &Duplication{Start: start, End: end, InsertionPos: insertionPos}, nil
}

func (m *Duplication) Kind() Kind { return KindDuplication }

// DuplicatedLength is the number of copied bases for a genome of the given
// length.
func (m *Duplication) DuplicatedLength(genomeLength int) int {
	if m.Start <= m.End {
		return m.End - m.Start + 1
	}
	return genomeLength - (m.Start - m.End - 1)
}

// IsNeutral rejects insertion inside a coding segment and any source range
// that contains a promoter: the first base of a forward coding segment or the
// last base of a reverse one.
func (m *Duplication) IsNeutral(g *genome.Genome) (bool, error) {
	if err := validateBaseEnds(g, m.Start, m.End); err != nil {
		return false, err
	}
	ok, err := safeGap(g, m.InsertionPos)
	if err != nil || !ok {
		return false, err
	}
	intervals, err := sourceIntervals(g, m.Start, m.End)
	if err != nil {
		return false, err
	}
	for _, iv := range intervals {
		if copiesPromoter(g, iv) {
			return false, nil
		}
	}
	return true, nil
}

func copiesPromoter(g *genome.Genome, iv interval) bool {
	for span := range g.Iterate() {
		if span.Start > iv.end {
			return false
		}
		first := max(span.Start, iv.start)
		last := min(span.End-1, iv.end)
		if first > last || span.Segment.IsNonCoding() {
			continue
		}
		switch span.Segment.Orientation() {
		case genome.Forward:
			if first == span.Start {
				return true
			}
		case genome.Reverse:
			if last == span.End-1 {
				return true
			}
		}
	}
	return false
}

func (m *Duplication) Apply(g *genome.Genome) error {
	if err := validateBaseEnds(g, m.Start, m.End); err != nil {
		return err
	}
	if m.Start > m.End && !g.Circular() {
		return fmt.Errorf("%w: start %d > end %d on a linear genome", genome.ErrInvalidArgument, m.Start, m.End)
	}
	return g.InsertAtGap(m.InsertionPos, genome.NewNonCoding(m.DuplicatedLength(g.Len())))
}

func (m *Duplication) Describe() string {
	return fmt.Sprintf("Duplication(start=%d, end=%d, insertion_pos=%d)", m.Start, m.End, m.InsertionPos)
}
