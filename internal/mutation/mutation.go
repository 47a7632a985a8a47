// Package mutation implements the structural mutation operators applied to
// genomes and the weighted policy that proposes them.
//
// Every operator is a neutrality predicate plus an action. Callers are
// expected to check IsNeutral before Apply; applying a non-neutral mutation is
// not guarded against. Coordinates are only checked against the genome when
// IsNeutral or Apply runs, never at construction.
package mutation

import (
	"errors"
	"fmt"

	"emergents/internal/genome"
)

// Kind names a mutation operator.
type Kind string

const (
	KindPointMutation  Kind = "point_mutation"
	KindSmallInsertion Kind = "small_insertion"
	KindSmallDeletion  Kind = "small_deletion"
	KindDeletion       Kind = "deletion"
	KindDuplication    Kind = "duplication"
	KindInversion      Kind = "inversion"
)

// AllKinds lists the built-in operators in a stable order.
var AllKinds = []Kind{
	KindPointMutation,
	KindSmallInsertion,
	KindSmallDeletion,
	KindDeletion,
	KindDuplication,
	KindInversion,
}

type Mutation interface {
	Kind() Kind
	IsNeutral(g *genome.Genome) (bool, error)
	Apply(g *genome.Genome) error
	Describe() string
}

func checkPosition(name string, pos int) error {
	if pos < 0 {
		return fmt.Errorf("%w: %s must be >= 0, got %d", genome.ErrInvalidArgument, name, pos)
	}
	return nil
}

func checkLength(length int) error {
	if length <= 0 {
		return fmt.Errorf("%w: length must be > 0, got %d", genome.ErrInvalidArgument, length)
	}
	return nil
}

// interval is an inclusive base range [start, end].
type interval struct {
	start, end int
}

// sourceIntervals splits an inclusive base range that may wrap around the
// origin of a circular genome into non-wrapping pieces. Both ends must already
// be valid base positions.
func sourceIntervals(g *genome.Genome, start, end int) ([]interval, error) {
	if start <= end {
		return []interval{{start, end}}, nil
	}
	if !g.Circular() {
		return nil, fmt.Errorf("%w: start %d > end %d on a linear genome", genome.ErrInvalidArgument, start, end)
	}
	return []interval{{start, g.Len() - 1}, {0, end}}, nil
}

func validateBaseEnds(g *genome.Genome, start, end int) error {
	return errors.Join(
		genome.ValidatePosition(start, g.Len(), genome.Base),
		genome.ValidatePosition(end, g.Len(), genome.Base),
	)
}

// sameInstance reports whether the inclusive base range [first, last] lies
// inside one non-coding segment instance.
func sameInstance(g *genome.Genome, first, last int) (bool, error) {
	atStart, err := g.FindSegmentAtPosition(first, genome.Base)
	if err != nil {
		return false, err
	}
	if !atStart.Segment.IsNonCoding() {
		return false, nil
	}
	atEnd, err := g.FindSegmentAtPosition(last, genome.Gap)
	if err != nil {
		return false, err
	}
	return atStart.Segment.SameInstance(atEnd.Segment), nil
}

// safeGap reports whether pos is a GAP position at which the genome can be
// cut without breaking a coding segment.
func safeGap(g *genome.Genome, pos int) (bool, error) {
	if pos == g.Len() {
		return true, nil
	}
	loc, err := g.FindSegmentAtPosition(pos, genome.Gap)
	if err != nil {
		return false, err
	}
	return loc.Segment.IsNonCoding() || loc.Offset == 0, nil
}
