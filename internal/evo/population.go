package evo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"emergents/internal/genome"
	"emergents/internal/model"
	"emergents/internal/mutation"
	"emergents/internal/stats"
)

// ErrExtinct is returned when no genome survives a generation.
var ErrExtinct = errors.New("population extinct")

type Config struct {
	Size           int
	MutationRate   float64
	Seed           int64
	Workers        int
	ReportInterval int
	Proposer       *mutation.Proposer
	Selector       Selector
	Observer       Observer
	Logger         *slog.Logger
}

// Population evolves a fixed-size set of genomes. Each generation every
// genome receives Binomial(length, rate) mutation attempts; the first
// non-neutral or failing attempt kills it. Survivors are then resampled
// with replacement back to full size.
type Population struct {
	cfg        Config
	rng        *rand.Rand
	genomes    []*genome.Genome
	generation int
	tracker    *stats.Tracker
}

type genomeResult struct {
	counts   stats.MutationCounts
	survived bool
}

// NewRand returns the generator used for a seed throughout the simulator.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func NewPopulation(cfg Config, ancestor *genome.Genome) (*Population, error) {
	if ancestor == nil {
		return nil, fmt.Errorf("ancestor genome is required")
	}
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("population size must be > 0")
	}
	if cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		return nil, fmt.Errorf("mutation rate must be in [0, 1]")
	}
	if cfg.Proposer == nil {
		return nil, fmt.Errorf("mutation proposer is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.ReportInterval < 0 {
		return nil, fmt.Errorf("report interval must be >= 0")
	}
	if cfg.Selector == nil {
		cfg.Selector = UniformSelector{}
	}
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	p := &Population{
		cfg:     cfg,
		rng:     NewRand(uint64(cfg.Seed)),
		genomes: make([]*genome.Genome, 0, cfg.Size),
		tracker: stats.NewTracker(),
	}
	for range cfg.Size {
		clone, err := ancestor.Clone(p.newSource())
		if err != nil {
			return nil, err
		}
		p.genomes = append(p.genomes, clone)
	}

	cfg.Logger.Info("population initialized",
		"size", cfg.Size,
		"mutation_rate", cfg.MutationRate,
		"seed", cfg.Seed,
		"workers", cfg.Workers,
		"ancestor_length", ancestor.Len(),
		"selector", cfg.Selector.Name(),
	)
	return p, nil
}

func (p *Population) newSource() *rand.Rand {
	return NewRand(p.rng.Uint64())
}

func (p *Population) Genomes() []*genome.Genome {
	return append([]*genome.Genome(nil), p.genomes...)
}

func (p *Population) Generation() int {
	return p.generation
}

func (p *Population) Tracker() *stats.Tracker {
	return p.tracker
}

func (p *Population) Diversity() stats.Diversity {
	return stats.CalculateDiversity(p.genomes)
}

func (p *Population) Snapshot(runID string) model.PopulationSnapshot {
	snap := model.PopulationSnapshot{
		RunID:      runID,
		Generation: p.generation,
		Genomes:    make([]model.GenomeSnapshot, 0, len(p.genomes)),
	}
	for _, g := range p.genomes {
		snap.Genomes = append(snap.Genomes, g.Snapshot())
	}
	return snap
}

// Step runs one generation: parallel mutation, removal of dead genomes,
// replenishment and statistics.
func (p *Population) Step(ctx context.Context) (model.GenerationStats, error) {
	// Seeds are drawn up front so results do not depend on scheduling.
	seeds := make([]uint64, len(p.genomes))
	for i := range seeds {
		seeds[i] = p.rng.Uint64()
	}

	results := make([]genomeResult, len(p.genomes))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.cfg.Workers)
	for i := range p.genomes {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			results[i] = p.mutateGenome(p.genomes[i], NewRand(seeds[i]))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return model.GenerationStats{}, err
	}

	var counts stats.MutationCounts
	survivors := make([]*genome.Genome, 0, len(p.genomes))
	for i, res := range results {
		counts.Add(res.counts)
		if res.survived {
			survivors = append(survivors, p.genomes[i])
		}
	}
	if len(survivors) == 0 {
		return model.GenerationStats{}, fmt.Errorf("%w at generation %d", ErrExtinct, p.generation+1)
	}

	next := make([]*genome.Genome, 0, p.cfg.Size)
	for range p.cfg.Size {
		parent, err := p.cfg.Selector.PickParent(p.rng, survivors)
		if err != nil {
			return model.GenerationStats{}, err
		}
		child, err := parent.Clone(p.newSource())
		if err != nil {
			return model.GenerationStats{}, err
		}
		next = append(next, child)
	}
	p.genomes = next
	p.generation++

	s := stats.Calculate(p.genomes, p.generation, counts, len(survivors))
	p.tracker.Record(s)
	p.cfg.Observer.GenerationCompleted(s)
	return s, nil
}

func (p *Population) mutateGenome(g *genome.Genome, rng *rand.Rand) genomeResult {
	var res genomeResult
	if g.Len() == 0 {
		return res
	}
	attempts := 0
	if p.cfg.MutationRate > 0 {
		attempts = int(distuv.Binomial{N: float64(g.Len()), P: p.cfg.MutationRate, Src: rng}.Rand())
	}

	for range attempts {
		if g.Len() == 0 {
			return res
		}
		m, err := p.cfg.Proposer.Propose(rng, g)
		if err != nil {
			res.counts.Total++
			res.counts.Failed++
			p.cfg.Observer.MutationEvaluated("", OutcomeFailed)
			return res
		}
		res.counts.Total++

		neutral, err := m.IsNeutral(g)
		if err == nil && neutral {
			err = m.Apply(g)
		}
		switch {
		case err != nil:
			res.counts.Failed++
			p.cfg.Observer.MutationEvaluated(m.Kind(), OutcomeFailed)
			return res
		case !neutral:
			res.counts.NonNeutral++
			p.cfg.Observer.MutationEvaluated(m.Kind(), OutcomeNonNeutral)
			return res
		}
		res.counts.Neutral++
		p.cfg.Observer.MutationEvaluated(m.Kind(), OutcomeNeutral)
		g.CoalesceAll()
	}
	res.survived = g.Len() > 0
	return res
}

// Evolve runs n generations and returns the statistics of every completed
// one. On extinction or cancellation the completed history is returned
// together with the error.
func (p *Population) Evolve(ctx context.Context, n int) ([]model.GenerationStats, error) {
	if n <= 0 {
		return nil, fmt.Errorf("generations must be > 0")
	}
	log := p.cfg.Logger
	log.Info("evolution started",
		"generations", n,
		"population_size", len(p.genomes),
		"mutation_rate", p.cfg.MutationRate,
	)

	history := make([]model.GenerationStats, 0, n)
	for gen := 0; gen < n; gen++ {
		if err := ctx.Err(); err != nil {
			return history, err
		}
		s, err := p.Step(ctx)
		if err != nil {
			log.Error("evolution failed", "generation", p.generation+1, "error", err)
			return history, err
		}
		history = append(history, s)
		if p.cfg.ReportInterval > 0 && gen%p.cfg.ReportInterval == 0 {
			log.Info(stats.Format(s))
		}
	}

	if len(history) > 0 {
		log.Info("evolution complete", "final", stats.Format(history[len(history)-1]))
	}
	return history, nil
}
