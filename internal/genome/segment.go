package genome

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Kind is the closed set of segment variants.
type Kind uint8

const (
	NonCoding Kind = iota
	Coding
)

func (k Kind) String() string {
	switch k {
	case NonCoding:
		return "noncoding"
	case Coding:
		return "coding"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "noncoding", "nc":
		return NonCoding, nil
	case "coding", "c":
		return Coding, nil
	default:
		return 0, fmt.Errorf("%w: unknown segment kind %q", ErrInvalidArgument, s)
	}
}

// Orientation is the promoter direction of a coding segment. A forward
// promoter sits on the first base, a reverse promoter on the last one.
type Orientation uint8

const (
	Forward Orientation = iota
	Reverse
)

func (o Orientation) String() string {
	switch o {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return fmt.Sprintf("orientation(%d)", uint8(o))
	}
}

func (o Orientation) Flip() Orientation {
	if o == Forward {
		return Reverse
	}
	return Forward
}

func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "fwd", "+":
		return Forward, nil
	case "reverse", "rev", "-":
		return Reverse, nil
	default:
		return 0, fmt.Errorf("%w: unknown orientation %q", ErrInvalidArgument, s)
	}
}

var lastSegmentID atomic.Uint64

func nextSegmentID() uint64 {
	return lastSegmentID.Add(1)
}

// Segment is an immutable run of bases of one kind. Two segments are the same
// physical instance iff their identities are equal; identities come from a
// process-wide counter and are never reused.
type Segment struct {
	id          uint64
	length      int
	kind        Kind
	orientation Orientation
}

func NewNonCoding(length int) Segment {
	return Segment{id: nextSegmentID(), length: length, kind: NonCoding}
}

func NewCoding(length int, orientation Orientation) Segment {
	return Segment{id: nextSegmentID(), length: length, kind: Coding, orientation: orientation}
}

func (s Segment) ID() uint64 { return s.id }

func (s Segment) Len() int { return s.length }

func (s Segment) Kind() Kind { return s.kind }

// Orientation is only meaningful for coding segments.
func (s Segment) Orientation() Orientation { return s.orientation }

func (s Segment) IsNonCoding() bool { return s.kind == NonCoding }

func (s Segment) SameInstance(other Segment) bool { return s.id == other.id }

// CloneWithLength returns a segment of the same variant and orientation with
// a fresh identity.
func (s Segment) CloneWithLength(length int) Segment {
	return Segment{id: nextSegmentID(), length: length, kind: s.kind, orientation: s.orientation}
}

// inverted is the same instance read on the opposite strand.
func (s Segment) inverted() Segment {
	if s.kind == Coding {
		s.orientation = s.orientation.Flip()
	}
	return s
}

func (s Segment) validate() error {
	if s.id == 0 {
		return fmt.Errorf("%w: segment was not constructed", ErrInvalidArgument)
	}
	if s.length <= 0 {
		return fmt.Errorf("%w: segment length must be > 0, got %d", ErrInvalidArgument, s.length)
	}
	switch s.kind {
	case NonCoding:
		return nil
	case Coding:
		if s.orientation != Forward && s.orientation != Reverse {
			return fmt.Errorf("%w: %s", ErrInvalidArgument, s.orientation)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidArgument, s.kind)
	}
}

func (s Segment) String() string {
	if s.kind == Coding {
		return fmt.Sprintf("Coding(len=%d, id=%d, dir=%s)", s.length, s.id, s.orientation)
	}
	return fmt.Sprintf("NonCoding(len=%d, id=%d)", s.length, s.id)
}
