package stats

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"

	"emergents/internal/genome"
	"emergents/internal/model"
)

// MutationCounts tallies mutation attempts over one generation.
type MutationCounts struct {
	Total      int `json:"total"`
	Neutral    int `json:"neutral"`
	NonNeutral int `json:"non_neutral"`
	Failed     int `json:"failed"`
}

func (c *MutationCounts) Add(other MutationCounts) {
	c.Total += other.Total
	c.Neutral += other.Neutral
	c.NonNeutral += other.NonNeutral
	c.Failed += other.Failed
}

type Diversity struct {
	LengthDiversity            float64 `json:"length_diversity"`
	LengthStd                  float64 `json:"length_std"`
	LengthCoefficientVariation float64 `json:"length_coefficient_variation"`
	UniqueLengthCount          int     `json:"unique_length_count"`
}

func lengths(genomes []*genome.Genome) []float64 {
	out := make([]float64, len(genomes))
	for i, g := range genomes {
		out[i] = float64(g.Len())
	}
	return out
}

func uniqueCount(values []float64) int {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return len(slices.Compact(sorted))
}

// meanStd returns the mean and the sample standard deviation; a single value
// has a deviation of zero.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	if len(values) == 1 {
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// Calculate summarizes a population after replenishment.
func Calculate(genomes []*genome.Genome, generation int, counts MutationCounts, survivors int) model.GenerationStats {
	out := model.GenerationStats{
		Generation:          generation,
		PopulationSize:      len(genomes),
		TotalMutations:      counts.Total,
		NeutralMutations:    counts.Neutral,
		NonNeutralMutations: counts.NonNeutral,
		FailedMutations:     counts.Failed,
		Survivors:           survivors,
	}
	if counts.Total > 0 {
		out.SurvivalRate = float64(counts.Neutral) / float64(counts.Total)
	}
	if len(genomes) == 0 {
		return out
	}

	values := lengths(genomes)
	out.MeanLength, out.StdLength = meanStd(values)
	out.MinLength = int(slices.Min(values))
	out.MaxLength = int(slices.Max(values))
	out.LengthDiversity = float64(uniqueCount(values)) / float64(len(values))

	segments := make([]float64, len(genomes))
	coding := make([]float64, len(genomes))
	for i, g := range genomes {
		segments[i], coding[i] = composition(g)
	}
	out.MeanSegmentCount = stat.Mean(segments, nil)
	out.MeanCodingFraction = stat.Mean(coding, nil)
	return out
}

func composition(g *genome.Genome) (segmentCount, codingFraction float64) {
	codingBases := 0
	for span := range g.Iterate() {
		segmentCount++
		if !span.Segment.IsNonCoding() {
			codingBases += span.Segment.Len()
		}
	}
	if g.Len() > 0 {
		codingFraction = float64(codingBases) / float64(g.Len())
	}
	return segmentCount, codingFraction
}

func CalculateDiversity(genomes []*genome.Genome) Diversity {
	if len(genomes) == 0 {
		return Diversity{}
	}
	values := lengths(genomes)
	mean, std := meanStd(values)
	unique := uniqueCount(values)
	out := Diversity{
		LengthDiversity:   float64(unique) / float64(len(values)),
		LengthStd:         std,
		UniqueLengthCount: unique,
	}
	if mean > 0 {
		out.LengthCoefficientVariation = std / mean
	}
	return out
}

// Format renders one line of progress output.
func Format(s model.GenerationStats) string {
	return fmt.Sprintf("Gen %d: Pop=%d, AvgLen=%.1f±%.1f, Mutations=%d (Survival: %.1f%%), Survivors: %d",
		s.Generation,
		s.PopulationSize,
		s.MeanLength,
		s.StdLength,
		s.TotalMutations,
		s.SurvivalRate*100,
		s.Survivors,
	)
}
