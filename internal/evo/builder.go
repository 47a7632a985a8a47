package evo

import (
	"fmt"

	"emergents/internal/genome"
)

// Extremities names what sits at the two ends of a linear genome.
type Extremities string

const (
	ExtremitiesNCNC Extremities = "NC--NC"
	ExtremitiesCNC  Extremities = "C--NC"
	ExtremitiesCC   Extremities = "C--C"
)

func ParseExtremities(s string) (Extremities, error) {
	switch Extremities(s) {
	case ExtremitiesNCNC, ExtremitiesCNC, ExtremitiesCC:
		return Extremities(s), nil
	case "":
		return ExtremitiesNCNC, nil
	default:
		return "", fmt.Errorf("unsupported extremities: %q", s)
	}
}

// GenomeSpec describes the ancestral genome every individual starts from.
// A length or orientation list with a single entry applies to every segment
// of that kind.
type GenomeSpec struct {
	InitialLength    int
	CodingCount      int
	CodingLengths    []int
	NonCodingLengths []int
	Orientations     []genome.Orientation
	Circular         bool
	Extremities      Extremities
}

// NonCodingCount is the number of non-coding segments the layout needs.
// Circular genomes alternate coding and non-coding segments, so the counts
// match; linear genomes add or drop one depending on the extremities.
func (s GenomeSpec) NonCodingCount() int {
	if s.CodingCount == 0 {
		return 1
	}
	if s.Circular {
		return s.CodingCount
	}
	switch s.Extremities {
	case ExtremitiesCC:
		return s.CodingCount - 1
	case ExtremitiesCNC:
		return s.CodingCount
	default:
		return s.CodingCount + 1
	}
}

func broadcast[T any](name string, values []T, n int) ([]T, error) {
	if n == 0 {
		return nil, nil
	}
	switch len(values) {
	case 1:
		out := make([]T, n)
		for i := range out {
			out[i] = values[0]
		}
		return out, nil
	case n:
		return append([]T(nil), values...), nil
	default:
		return nil, fmt.Errorf("%s: got %d values, want 1 or %d", name, len(values), n)
	}
}

// Segments lays out the ancestral genome in order.
func (s GenomeSpec) Segments() ([]genome.Segment, error) {
	if s.InitialLength <= 0 {
		return nil, fmt.Errorf("initial genome length must be > 0")
	}
	if s.CodingCount < 0 {
		return nil, fmt.Errorf("coding segment count must be >= 0")
	}
	if s.CodingCount > s.InitialLength {
		return nil, fmt.Errorf("coding segment count exceeds initial genome length")
	}
	if _, err := ParseExtremities(string(s.Extremities)); err != nil {
		return nil, err
	}

	codingLengths, err := broadcast("coding lengths", s.CodingLengths, s.CodingCount)
	if err != nil {
		return nil, err
	}
	orientations, err := broadcast("orientations", s.Orientations, s.CodingCount)
	if err != nil {
		return nil, err
	}
	nonCodingCount := s.NonCodingCount()
	nonCodingLengths, err := broadcast("non-coding lengths", s.NonCodingLengths, nonCodingCount)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, l := range codingLengths {
		total += l
	}
	for _, l := range nonCodingLengths {
		total += l
	}
	if total != s.InitialLength {
		return nil, fmt.Errorf("segment lengths sum to %d, want initial length %d", total, s.InitialLength)
	}

	segments := make([]genome.Segment, 0, s.CodingCount+nonCodingCount)
	if s.CodingCount == 0 {
		return append(segments, genome.NewNonCoding(nonCodingLengths[0])), nil
	}

	nc := nonCodingLengths
	if !s.Circular && (s.Extremities == ExtremitiesNCNC || s.Extremities == "") {
		segments = append(segments, genome.NewNonCoding(nc[0]))
		nc = nc[1:]
	}
	for i := range codingLengths {
		segments = append(segments, genome.NewCoding(codingLengths[i], orientations[i]))
		if i < len(nc) {
			segments = append(segments, genome.NewNonCoding(nc[i]))
		}
	}
	return segments, nil
}

// Build validates the spec and returns the ancestral genome.
func (s GenomeSpec) Build(src genome.PrioritySource) (*genome.Genome, error) {
	segments, err := s.Segments()
	if err != nil {
		return nil, err
	}
	return genome.New(src, s.Circular, segments...)
}
