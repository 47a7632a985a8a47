package genome

import (
	"fmt"

	"emergents/internal/model"
)

// Clone deep-copies g onto a new priority source. Every segment of the copy
// gets a fresh identity so the two genomes never share an instance.
func (g *Genome) Clone(src PrioritySource) (*Genome, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: priority source is required", ErrInvalidArgument)
	}
	return &Genome{root: cloneTree(g.root), circular: g.circular, src: src}, nil
}

func cloneTree(n *node) *node {
	if n == nil {
		return nil
	}
	return &node{
		seg:      n.seg.CloneWithLength(n.seg.length),
		priority: n.priority,
		left:     cloneTree(n.left),
		right:    cloneTree(n.right),
		size:     n.size,
	}
}

func (g *Genome) Snapshot() model.GenomeSnapshot {
	snap := model.GenomeSnapshot{Circular: g.circular, Segments: []model.SegmentRecord{}}
	for span := range g.Iterate() {
		record := model.SegmentRecord{Kind: span.Segment.kind.String(), Length: span.Segment.length}
		if span.Segment.kind == Coding {
			record.Orientation = span.Segment.orientation.String()
		}
		snap.Segments = append(snap.Segments, record)
	}
	return snap
}

func FromSnapshot(src PrioritySource, snap model.GenomeSnapshot) (*Genome, error) {
	segments := make([]Segment, 0, len(snap.Segments))
	for i, record := range snap.Segments {
		kind, err := ParseKind(record.Kind)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		switch kind {
		case Coding:
			orientation, err := ParseOrientation(record.Orientation)
			if err != nil {
				return nil, fmt.Errorf("segment %d: %w", i, err)
			}
			segments = append(segments, NewCoding(record.Length, orientation))
		default:
			segments = append(segments, NewNonCoding(record.Length))
		}
	}
	return New(src, snap.Circular, segments...)
}
