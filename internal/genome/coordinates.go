package genome

import "fmt"

// CoordinateSystem selects how an integer position is read.
//
// Base addresses an actual base in [0, length). Gap addresses the point
// between two bases in [0, length]; on a circular genome gap length and gap 0
// denote the same point.
type CoordinateSystem uint8

const (
	Base CoordinateSystem = iota + 1
	Gap
)

func (c CoordinateSystem) String() string {
	switch c {
	case Base:
		return "base"
	case Gap:
		return "gap"
	default:
		return fmt.Sprintf("coordinate_system(%d)", uint8(c))
	}
}

func ValidatePosition(pos, length int, system CoordinateSystem) error {
	switch system {
	case Base:
		if pos < 0 || pos >= length {
			return fmt.Errorf("%w: base position %d not in [0, %d)", ErrOutOfRange, pos, length)
		}
		return nil
	case Gap:
		if pos < 0 || pos > length {
			return fmt.Errorf("%w: gap position %d not in [0, %d]", ErrOutOfRange, pos, length)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown coordinate system %s", ErrInvalidArgument, system)
	}
}

// ValidateBaseRange checks the half-open base range [start, end).
func ValidateBaseRange(start, end, length int) error {
	if start < 0 || end > length {
		return fmt.Errorf("%w: range [%d, %d) not within [0, %d)", ErrOutOfRange, start, end, length)
	}
	if start >= end {
		return fmt.Errorf("%w: range start %d must be < end %d", ErrInvalidArgument, start, end)
	}
	return nil
}
