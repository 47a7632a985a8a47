package stats

import (
	"sync"

	"gonum.org/v1/gonum/stat"

	"emergents/internal/model"
)

type Summary struct {
	TotalGenerations  int     `json:"total_generations"`
	InitialMeanLength float64 `json:"initial_mean_length"`
	FinalMeanLength   float64 `json:"final_mean_length"`
	LengthChange      float64 `json:"length_change"`
	MaxPopulationSize int     `json:"max_population_size"`
	MinPopulationSize int     `json:"min_population_size"`
	TotalMutations    int     `json:"total_mutations"`
	MeanSurvivalRate  float64 `json:"mean_survival_rate"`
}

// Tracker keeps the per-generation history of a run.
type Tracker struct {
	mu      sync.RWMutex
	history []model.GenerationStats
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) Record(s model.GenerationStats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = append(t.history, s)
}

func (t *Tracker) History() []model.GenerationStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]model.GenerationStats(nil), t.history...)
}

func (t *Tracker) Latest() (model.GenerationStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.history) == 0 {
		return model.GenerationStats{}, false
	}
	return t.history[len(t.history)-1], true
}

func (t *Tracker) Generation(generation int) (model.GenerationStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, s := range t.history {
		if s.Generation == generation {
			return s, true
		}
	}
	return model.GenerationStats{}, false
}

// Range returns the generations in [start, end], both inclusive.
func (t *Tracker) Range(start, end int) []model.GenerationStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []model.GenerationStats
	for _, s := range t.history {
		if s.Generation >= start && s.Generation <= end {
			out = append(out, s)
		}
	}
	return out
}

func (t *Tracker) Summary() Summary {
	return Summarize(t.History())
}

// Summarize aggregates a stored history. The mean survival rate only counts
// generations in which at least one mutation was attempted.
func Summarize(history []model.GenerationStats) Summary {
	if len(history) == 0 {
		return Summary{}
	}
	first, last := history[0], history[len(history)-1]
	out := Summary{
		TotalGenerations:  len(history),
		InitialMeanLength: first.MeanLength,
		FinalMeanLength:   last.MeanLength,
		LengthChange:      last.MeanLength - first.MeanLength,
		MaxPopulationSize: first.PopulationSize,
		MinPopulationSize: first.PopulationSize,
	}
	var rates []float64
	for _, s := range history {
		out.MaxPopulationSize = max(out.MaxPopulationSize, s.PopulationSize)
		out.MinPopulationSize = min(out.MinPopulationSize, s.PopulationSize)
		out.TotalMutations += s.TotalMutations
		if s.TotalMutations > 0 {
			rates = append(rates, s.SurvivalRate)
		}
	}
	if len(rates) > 0 {
		out.MeanSurvivalRate = stat.Mean(rates, nil)
	}
	return out
}
