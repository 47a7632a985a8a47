package genome

import "errors"

var (
	// ErrOutOfRange reports a BASE or GAP coordinate outside the genome.
	ErrOutOfRange = errors.New("position out of range")
	// ErrInvalidArgument reports malformed parameters such as non-positive
	// lengths or reversed ranges on a linear genome.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTypeMismatch reports an operation applied to the wrong segment kind.
	ErrTypeMismatch = errors.New("segment type mismatch")
	// ErrInternalInvariant means the tree bookkeeping is inconsistent. It is a
	// bug, not a caller error.
	ErrInternalInvariant = errors.New("internal invariant violation")
)
