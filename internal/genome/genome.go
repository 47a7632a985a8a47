// Package genome stores a linear or circular genome as an implicit treap of
// typed segments and exposes coordinate-based lookups and structural edits.
//
// Positions are read either as BASE coordinates (an actual base) or GAP
// coordinates (the point between two bases). All edits run in expected
// O(log n) on the number of segments, except CoalesceAll which is O(n).
//
// A Genome is not safe for concurrent use. Distinct genomes share nothing and
// can be mutated in parallel as long as each has its own PrioritySource.
package genome

import (
	"fmt"
	"iter"
	"strings"
)

type Genome struct {
	root     *node
	circular bool
	src      PrioritySource
}

// Span is one segment together with its half-open base range [Start, End).
type Span struct {
	Segment Segment
	Start   int
	End     int
}

// Location is the result of a coordinate lookup. Offset is the distance from
// the start of the segment; a GAP lookup at the very end of the genome yields
// the last segment with Offset == Segment.Len().
type Location struct {
	Segment Segment
	Offset  int
	Start   int
	End     int
}

// New builds a genome from segments in order.
func New(src PrioritySource, circular bool, segments ...Segment) (*Genome, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: priority source is required", ErrInvalidArgument)
	}
	for _, seg := range segments {
		if err := seg.validate(); err != nil {
			return nil, err
		}
	}
	return &Genome{
		root:     build(segments, src),
		circular: circular,
		src:      src,
	}, nil
}

func (g *Genome) Len() int {
	return g.root.subtreeLen()
}

func (g *Genome) Circular() bool {
	return g.circular
}

func (g *Genome) newNode(seg Segment) *node {
	return newNode(seg, g.src)
}

// FindSegmentAtPosition returns the segment owning pos. An empty genome has no
// addressable position in either coordinate system.
func (g *Genome) FindSegmentAtPosition(pos int, system CoordinateSystem) (Location, error) {
	length := g.Len()
	if err := ValidatePosition(pos, length, system); err != nil {
		return Location{}, err
	}
	if g.root == nil {
		return Location{}, fmt.Errorf("%w: genome is empty", ErrOutOfRange)
	}
	if pos == length {
		last := rightmost(g.root).seg
		return Location{
			Segment: last,
			Offset:  last.length,
			Start:   length - last.length,
			End:     length,
		}, nil
	}

	current := g.root
	prefix := 0
	for current != nil {
		leftLen := current.left.subtreeLen()
		switch {
		case pos < prefix+leftLen:
			current = current.left
		case pos >= prefix+leftLen+current.seg.length:
			prefix += leftLen + current.seg.length
			current = current.right
		default:
			start := prefix + leftLen
			return Location{
				Segment: current.seg,
				Offset:  pos - start,
				Start:   start,
				End:     start + current.seg.length,
			}, nil
		}
	}
	return Location{}, fmt.Errorf("%w: descent for position %d left the tree", ErrInternalInvariant, pos)
}

// InsertAtGap inserts a non-coding segment at a GAP position. Non-coding
// neighbours on either side are fused with it into a single fresh segment.
func (g *Genome) InsertAtGap(pos int, seg Segment) error {
	if !seg.IsNonCoding() {
		return fmt.Errorf("%w: only non-coding segments can be inserted, got %s", ErrTypeMismatch, seg.kind)
	}
	if err := seg.validate(); err != nil {
		return err
	}
	if err := ValidatePosition(pos, g.Len(), Gap); err != nil {
		return err
	}
	// On a circular genome gap length is gap 0. Inserting at the origin lets
	// a non-coding first segment absorb the block when the last one is coding.
	if g.circular && pos > 0 && pos == g.Len() && !rightmost(g.root).seg.IsNonCoding() {
		pos = 0
	}

	left, right, err := splitAt(g.root, pos)
	if err != nil {
		return err
	}
	merged := seg
	if left != nil && rightmost(left).seg.IsNonCoding() {
		var last Segment
		left, last = detachLast(left)
		merged = merged.CloneWithLength(last.length + merged.length)
	}
	if right != nil && leftmost(right).seg.IsNonCoding() {
		var first Segment
		right, first = detachFirst(right)
		merged = merged.CloneWithLength(merged.length + first.length)
	}
	g.root = merge(merge(left, g.newNode(merged)), right)
	return nil
}

// DeleteRange removes bases in [start, end). start is a BASE coordinate and
// end a GAP coordinate. On a circular genome start > end deletes the wrapping
// range [start, length) followed by [0, end).
func (g *Genome) DeleteRange(start, end int) error {
	length := g.Len()
	if err := ValidatePosition(start, length, Base); err != nil {
		return err
	}
	if err := ValidatePosition(end, length, Gap); err != nil {
		return err
	}
	if start == end {
		return nil
	}
	if start > end {
		if !g.circular {
			return fmt.Errorf("%w: start %d > end %d on a linear genome", ErrInvalidArgument, start, end)
		}
		if err := g.DeleteRange(start, length); err != nil {
			return err
		}
		if end == 0 {
			return nil
		}
		return g.DeleteRange(0, end)
	}

	left, rest, err := splitAt(g.root, start)
	if err != nil {
		return err
	}
	_, right, err := splitAt(rest, end-start)
	if err != nil {
		g.root = merge(left, rest)
		return err
	}
	g.root = merge(left, right)
	return nil
}

// ExtendSegmentAt grows the non-coding segment found at GAP pos by delta
// bases. The grown segment gets a fresh identity.
func (g *Genome) ExtendSegmentAt(pos, delta int) error {
	if delta < 0 {
		return fmt.Errorf("%w: delta must be >= 0, got %d", ErrInvalidArgument, delta)
	}
	loc, err := g.FindSegmentAtPosition(pos, Gap)
	if err != nil {
		return err
	}
	if !loc.Segment.IsNonCoding() {
		return fmt.Errorf("%w: cannot extend %s", ErrTypeMismatch, loc.Segment)
	}

	left, rest, err := splitAt(g.root, loc.Start)
	if err != nil {
		return err
	}
	mid, right, err := splitAt(rest, loc.Segment.length)
	if err != nil {
		g.root = merge(left, rest)
		return err
	}
	if mid == nil || mid.left != nil || mid.right != nil || !mid.seg.SameInstance(loc.Segment) {
		g.root = merge(merge(left, mid), right)
		return fmt.Errorf("%w: could not isolate segment at %d", ErrInternalInvariant, pos)
	}
	grown := g.newNode(loc.Segment.CloneWithLength(loc.Segment.length + delta))
	g.root = merge(merge(left, grown), right)
	return nil
}

// InvertRange reverses the segments in the GAP range [start, end) and flips
// the orientation of every coding segment inside it. Non-coding pieces that
// end up next to a non-coding flank are fused with it.
func (g *Genome) InvertRange(start, end int) error {
	length := g.Len()
	if err := ValidatePosition(start, length, Gap); err != nil {
		return err
	}
	if err := ValidatePosition(end, length, Gap); err != nil {
		return err
	}
	if start > end {
		return fmt.Errorf("%w: inversion start %d > end %d", ErrInvalidArgument, start, end)
	}
	if start == end {
		return nil
	}

	left, rest, err := splitAt(g.root, start)
	if err != nil {
		return err
	}
	mid, right, err := splitAt(rest, end-start)
	if err != nil {
		g.root = merge(left, rest)
		return err
	}

	segments := appendSegments(nil, mid)
	inverted := make([]Segment, len(segments))
	for i, seg := range segments {
		inverted[len(segments)-1-i] = seg.inverted()
	}

	if left != nil && rightmost(left).seg.IsNonCoding() && inverted[0].IsNonCoding() {
		var last Segment
		left, last = detachLast(left)
		inverted[0] = last.CloneWithLength(last.length + inverted[0].length)
	}
	tail := len(inverted) - 1
	if right != nil && leftmost(right).seg.IsNonCoding() && inverted[tail].IsNonCoding() {
		var first Segment
		right, first = detachFirst(right)
		inverted[tail] = first.CloneWithLength(inverted[tail].length + first.length)
	}

	g.root = merge(merge(left, build(inverted, g.src)), right)
	return nil
}

// CoalesceAll fuses every run of adjacent non-coding segments into one fresh
// segment and rebuilds the tree with new priorities. Segments that are not
// fused keep their identity.
func (g *Genome) CoalesceAll() {
	segments := appendSegments(nil, g.root)
	if len(segments) == 0 {
		g.root = nil
		return
	}

	coalesced := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		last := len(coalesced) - 1
		if last >= 0 && coalesced[last].IsNonCoding() && seg.IsNonCoding() {
			coalesced[last] = coalesced[last].CloneWithLength(coalesced[last].length + seg.length)
			continue
		}
		coalesced = append(coalesced, seg)
	}
	g.root = build(coalesced, g.src)
}

// Iterate yields the segments in genome order. Each call starts a fresh
// traversal; the tree is not modified.
func (g *Genome) Iterate() iter.Seq[Span] {
	return func(yield func(Span) bool) {
		var stack []*node
		current := g.root
		pos := 0
		for current != nil || len(stack) > 0 {
			for current != nil {
				stack = append(stack, current)
				current = current.left
			}
			current = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(Span{Segment: current.seg, Start: pos, End: pos + current.seg.length}) {
				return
			}
			pos += current.seg.length
			current = current.right
		}
	}
}

func (g *Genome) Segments() []Segment {
	return appendSegments(nil, g.root)
}

func (g *Genome) SegmentCount() int {
	count := 0
	for range g.Iterate() {
		count++
	}
	return count
}

// Validate checks the tree bookkeeping. It is O(n) and meant for tests and
// debugging.
func (g *Genome) Validate() error {
	return checkTree(g.root)
}

func (g *Genome) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Genome of length %d", g.Len())
	if g.circular {
		b.WriteString(" (circular)")
	}
	b.WriteString(":")
	for span := range g.Iterate() {
		fmt.Fprintf(&b, "\n\t%s@[%d,%d)", span.Segment, span.Start, span.End)
	}
	b.WriteString("\n")
	return b.String()
}
