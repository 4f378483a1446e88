package genetic

import (
	"math/rand"
)

// Engine runs several generations with a single master random source.
type Engine[T Individual[T]] struct {
	// Workers bounds concurrent fitness evaluations; <= 0 means one per CPU.
	Workers int
	// OnGeneration, if set, receives the summary of each generation before
	// it is replaced.
	OnGeneration func(gen int, s Summary)

	rng *rand.Rand
}

// NewEngine returns an engine whose whole run is determined by seed.
func NewEngine[T Individual[T]](seed int64, workers int) *Engine[T] {
	return &Engine[T]{
		Workers: workers,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Rand exposes the master random source, for building the initial
// population from the same stream.
func (e *Engine[T]) Rand() *rand.Rand {
	return e.rng
}

// Result is the outcome of an evolution run.
type Result[T any] struct {
	Champion   T
	Fitness    float64
	Population []Scored[T]
	Summaries  []Summary
}

// Evolve steps population through the given number of generations, then
// ranks the final population once more to pick the champion.
func (e *Engine[T]) Evolve(population []T, generations int) (Result[T], error) {
	var res Result[T]

	for gen := range generations {
		next, summary, err := Step(population, e.Workers, e.rng)
		if err != nil {
			return res, err
		}
		res.Summaries = append(res.Summaries, summary)
		if e.OnGeneration != nil {
			e.OnGeneration(gen, summary)
		}
		population = next
	}

	ranked, err := Rank(population, e.Workers, e.rng)
	if err != nil {
		return res, err
	}
	res.Champion = ranked[0].Individual
	res.Fitness = ranked[0].Fitness
	res.Population = ranked
	return res, nil
}
