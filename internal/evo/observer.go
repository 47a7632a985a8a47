package evo

import (
	"emergents/internal/model"
	"emergents/internal/mutation"
)

// Outcome is what happened to one mutation attempt.
type Outcome string

const (
	OutcomeNeutral    Outcome = "neutral"
	OutcomeNonNeutral Outcome = "non_neutral"
	OutcomeFailed     Outcome = "failed"
)

// Observer receives population events. MutationEvaluated is called from
// worker goroutines and must be safe for concurrent use.
type Observer interface {
	MutationEvaluated(kind mutation.Kind, outcome Outcome)
	GenerationCompleted(s model.GenerationStats)
}

type NopObserver struct{}

func (NopObserver) MutationEvaluated(mutation.Kind, Outcome) {}

func (NopObserver) GenerationCompleted(model.GenerationStats) {}

// MultiObserver fans events out to every observer in order.
type MultiObserver []Observer

func (m MultiObserver) MutationEvaluated(kind mutation.Kind, outcome Outcome) {
	for _, o := range m {
		o.MutationEvaluated(kind, outcome)
	}
}

func (m MultiObserver) GenerationCompleted(s model.GenerationStats) {
	for _, o := range m {
		o.GenerationCompleted(s)
	}
}

// GenerationFunc adapts a plain callback to Observer.
type GenerationFunc func(model.GenerationStats)

func (GenerationFunc) MutationEvaluated(mutation.Kind, Outcome) {}

func (f GenerationFunc) GenerationCompleted(s model.GenerationStats) {
	f(s)
}
