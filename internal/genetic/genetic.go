// Package genetic implements a generational evolution loop over any genome
// type that can score, cross and mutate itself.
//
// Each generation the population is ranked by fitness on a bounded worker
// pool, the best round(sqrt(n)) survive, every pair of survivors produces two
// children, and each survivor is mutated and carried over. A population of n
// therefore becomes one of m*m.
package genetic

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

// ErrEmptyPopulation is returned when a generation has no individuals.
var ErrEmptyPopulation = errors.New("genetic: empty population")

// Individual is a genome that can be evolved.
//
// Fitness may be expensive and is called concurrently on distinct
// individuals. Crossover must not depend on the order of the parents.
type Individual[T any] interface {
	Fitness(seed int64) (float64, error)
	Crossover(other T, rng *rand.Rand) (T, T)
	Mutate(rng *rand.Rand) T
}

// Scored pairs an individual with its fitness.
type Scored[T any] struct {
	Individual T
	Fitness    float64
}

// Rank evaluates every individual and returns them sorted by descending
// fitness. Equal fitness keeps the input order. workers <= 0 uses one worker
// per CPU.
//
// Seeds for each evaluation are drawn from rng before any work starts, so the
// result depends only on rng and not on scheduling. Any error or panic in a
// fitness call fails the whole ranking.
func Rank[T Individual[T]](population []T, workers int, rng *rand.Rand) ([]Scored[T], error) {
	if len(population) == 0 {
		return nil, ErrEmptyPopulation
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	seeds := make([]int64, len(population))
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	scored := make([]Scored[T], len(population))
	var g errgroup.Group
	g.SetLimit(workers)

	for i, ind := range population {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("genetic: fitness of individual %d panicked: %v", i, r)
				}
			}()

			f, err := ind.Fitness(seeds[i])
			if err != nil {
				return fmt.Errorf("genetic: fitness of individual %d: %w", i, err)
			}
			if math.IsNaN(f) {
				return fmt.Errorf("genetic: fitness of individual %d is NaN", i)
			}
			scored[i] = Scored[T]{Individual: ind, Fitness: f}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(scored, func(a, b Scored[T]) int {
		return cmp.Compare(b.Fitness, a.Fitness)
	})
	return scored, nil
}

// Summary is the five-number summary of a ranked population's fitness.
type Summary struct {
	Max           float64
	UpperQuartile float64
	Median        float64
	LowerQuartile float64
	Min           float64
}

// Summarize reads the summary off a ranking sorted by descending fitness.
func Summarize[T any](ranked []Scored[T]) Summary {
	n := len(ranked)
	if n == 0 {
		return Summary{}
	}
	return Summary{
		Max:           ranked[0].Fitness,
		UpperQuartile: ranked[n/4].Fitness,
		Median:        ranked[n/2].Fitness,
		LowerQuartile: ranked[3*n/4].Fitness,
		Min:           ranked[n-1].Fitness,
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("[%.1f %.1f %.1f %.1f %.1f]", s.Max, s.UpperQuartile, s.Median, s.LowerQuartile, s.Min)
}

// Survivors returns how many individuals of a population of n are kept.
func Survivors(n int) int {
	return int(math.Round(math.Sqrt(float64(n))))
}

// Step ranks population and breeds the next generation from its best
// members. It returns the new population and a summary of the old one.
func Step[T Individual[T]](population []T, workers int, rng *rand.Rand) ([]T, Summary, error) {
	ranked, err := Rank(population, workers, rng)
	if err != nil {
		return nil, Summary{}, err
	}
	return Breed(ranked, rng), Summarize(ranked), nil
}

// Breed builds the next generation from an already ranked population.
func Breed[T Individual[T]](ranked []Scored[T], rng *rand.Rand) []T {
	m := Survivors(len(ranked))
	survivors := make([]T, m)
	for i := range survivors {
		survivors[i] = ranked[i].Individual
	}

	next := make([]T, 0, m*m)
	for i, p1 := range survivors {
		for _, p2 := range survivors[:i] {
			c1, c2 := p1.Crossover(p2, rng)
			next = append(next, c1, c2)
		}
	}
	for _, s := range survivors {
		next = append(next, s.Mutate(rng))
	}
	return next
}
