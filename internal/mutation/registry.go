package mutation

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"emergents/internal/genome"
)

var (
	ErrKindExists   = errors.New("mutation kind already registered")
	ErrKindNotFound = errors.New("mutation kind not found")
	ErrEmptyGenome  = errors.New("cannot propose a mutation for an empty genome")
)

// Params bounds the coordinates drawn by a Factory.
type Params struct {
	SmallMaxSize int
}

// Factory draws a random mutation of one kind for the current state of g.
// g is never empty when a factory is called.
type Factory func(rng *rand.Rand, g *genome.Genome, params Params) (Mutation, error)

type KindSpec struct {
	Kind    Kind
	Factory Factory
}

var kindRegistry = struct {
	mu sync.RWMutex
	m  map[Kind]Factory
}{
	m: builtinKinds(),
}

func builtinKinds() map[Kind]Factory {
	return map[Kind]Factory{
		KindPointMutation:  proposePointMutation,
		KindSmallInsertion: proposeSmallInsertion,
		KindSmallDeletion:  proposeSmallDeletion,
		KindDeletion:       proposeDeletion,
		KindDuplication:    proposeDuplication,
		KindInversion:      proposeInversion,
	}
}

// RegisterKind adds a mutation kind that proposers can draw.
func RegisterKind(spec KindSpec) error {
	if spec.Kind == "" {
		return errors.New("mutation kind name is required")
	}
	if spec.Factory == nil {
		return errors.New("mutation factory is required")
	}

	kindRegistry.mu.Lock()
	defer kindRegistry.mu.Unlock()

	if _, exists := kindRegistry.m[spec.Kind]; exists {
		return fmt.Errorf("%w: %s", ErrKindExists, spec.Kind)
	}
	kindRegistry.m[spec.Kind] = spec.Factory
	return nil
}

func ResolveKind(kind Kind) (Factory, error) {
	kindRegistry.mu.RLock()
	factory, ok := kindRegistry.m[kind]
	kindRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKindNotFound, kind)
	}
	return factory, nil
}

func ListKinds() []Kind {
	kindRegistry.mu.RLock()
	defer kindRegistry.mu.RUnlock()

	kinds := make([]Kind, 0, len(kindRegistry.m))
	for kind := range kindRegistry.m {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func resetKindRegistryForTests() {
	kindRegistry.mu.Lock()
	defer kindRegistry.mu.Unlock()
	kindRegistry.m = builtinKinds()
}

// intBetween draws uniformly from [lo, hi].
func intBetween(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

func proposePointMutation(rng *rand.Rand, g *genome.Genome, _ Params) (Mutation, error) {
	return NewPointMutation(rng.IntN(g.Len()))
}

func proposeSmallInsertion(rng *rand.Rand, g *genome.Genome, params Params) (Mutation, error) {
	position := intBetween(rng, 0, g.Len())
	return NewSmallInsertion(position, intBetween(rng, 1, params.SmallMaxSize))
}

func proposeSmallDeletion(rng *rand.Rand, g *genome.Genome, params Params) (Mutation, error) {
	length := g.Len()
	size := intBetween(rng, 1, min(params.SmallMaxSize, length))
	return NewSmallDeletion(intBetween(rng, 0, length-size), size)
}

// sourceRange draws an inclusive base range of random size. On circular
// genomes the range may wrap through the origin.
func sourceRange(rng *rand.Rand, g *genome.Genome) (start, end int) {
	length := g.Len()
	size := intBetween(rng, 1, length)
	if g.Circular() {
		start = rng.IntN(length)
		return start, (start + size - 1) % length
	}
	start = intBetween(rng, 0, length-size)
	return start, start + size - 1
}

func proposeDeletion(rng *rand.Rand, g *genome.Genome, _ Params) (Mutation, error) {
	start, end := sourceRange(rng, g)
	return NewDeletion(start, end)
}

func proposeDuplication(rng *rand.Rand, g *genome.Genome, _ Params) (Mutation, error) {
	start, end := sourceRange(rng, g)
	return NewDuplication(start, end, intBetween(rng, 0, g.Len()))
}

func proposeInversion(rng *rand.Rand, g *genome.Genome, _ Params) (Mutation, error) {
	length := g.Len()
	size := intBetween(rng, 1, length)
	start := intBetween(rng, 0, length-size)
	return NewInversion(start, start+size)
}
