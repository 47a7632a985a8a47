package emergents

import (
	"fmt"

	"emergents/internal/evo"
	"emergents/internal/genome"
	"emergents/internal/mutation"
)

type DemoStep struct {
	Mutation    string
	Neutral     bool
	Applied     bool
	LengthAfter int
}

type DemoReport struct {
	Genome       string
	Length       int
	Circular     bool
	SegmentCount int
	Steps        []DemoStep
	Final        string
	FinalLength  int
}

// demoSegments is a small linear genome with coding segments in both
// orientations, flanked by non-coding runs.
func demoSegments() []genome.Segment {
	return []genome.Segment{
		genome.NewNonCoding(10),
		genome.NewCoding(200, genome.Forward),
		genome.NewNonCoding(50),
		genome.NewCoding(100, genome.Forward),
		genome.NewCoding(150, genome.Reverse),
		genome.NewCoding(100, genome.Forward),
		genome.NewNonCoding(100),
	}
}

func demoMutations() ([]mutation.Mutation, error) {
	var out []mutation.Mutation
	add := func(m mutation.Mutation, err error) error {
		if err != nil {
			return err
		}
		out = append(out, m)
		return nil
	}
	for _, err := range []error{
		add(mutation.NewPointMutation(5)),
		add(mutation.NewPointMutation(50)),
		add(mutation.NewSmallInsertion(230, 5)),
		add(mutation.NewSmallDeletion(615, 10)),
		add(mutation.NewInversion(10, 265)),
		add(mutation.NewDeletion(0, 300)),
		add(mutation.NewDuplication(0, 9, 705)),
	} {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Demo builds the demonstration genome and walks a fixed list of mutations
// over it, applying each one only when it is neutral.
func Demo(seed uint64) (DemoReport, error) {
	g, err := genome.New(evo.NewRand(seed), false, demoSegments()...)
	if err != nil {
		return DemoReport{}, err
	}
	report := DemoReport{
		Genome:       g.String(),
		Length:       g.Len(),
		Circular:     g.Circular(),
		SegmentCount: g.SegmentCount(),
	}

	mutations, err := demoMutations()
	if err != nil {
		return DemoReport{}, err
	}
	for _, m := range mutations {
		neutral, err := m.IsNeutral(g)
		if err != nil {
			return DemoReport{}, fmt.Errorf("%s: %w", m.Describe(), err)
		}
		step := DemoStep{Mutation: m.Describe(), Neutral: neutral}
		if neutral {
			if err := m.Apply(g); err != nil {
				return DemoReport{}, fmt.Errorf("%s: %w", m.Describe(), err)
			}
			g.CoalesceAll()
			step.Applied = true
		}
		step.LengthAfter = g.Len()
		report.Steps = append(report.Steps, step)
	}
	if err := g.Validate(); err != nil {
		return DemoReport{}, err
	}
	report.Final = g.String()
	report.FinalLength = g.Len()
	return report, nil
}
