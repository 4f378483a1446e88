// Package bot provides the linear heuristic bot that the evolver trains.
package bot

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/vovakirdan/tetris-evolve/internal/sim"
	"github.com/vovakirdan/tetris-evolve/internal/tetris"
)

// NumFeatures is the number of board features a Weighted bot looks at.
const NumFeatures = 4

// FeatureNames labels the entries of Features and Weights.
var FeatureNames = [NumFeatures]string{"score", "depth", "holes", "bumpiness"}

// Weights holds one coefficient per feature.
type Weights [NumFeatures]float64

func (w Weights) String() string {
	parts := make([]string, NumFeatures)
	for i, v := range w {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// ParseWeights parses the comma separated form produced by Weights.String.
func ParseWeights(s string) (Weights, error) {
	var w Weights
	parts := strings.Split(s, ",")
	if len(parts) != NumFeatures {
		return w, fmt.Errorf("bot: want %d weights, got %d", NumFeatures, len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return w, fmt.Errorf("bot: weight %s: %w", FeatureNames[i], err)
		}
		w[i] = v
	}
	return w, nil
}

// Features measures a state:
//   - score: the game score
//   - depth: the deepest empty column, counted in rows from the top
//   - holes: empty cells below the top filled cell of their column
//   - bumpiness: summed depth difference of adjacent columns
func Features(s tetris.State) [NumFeatures]float64 {
	depth, holes, bump := 0, 0, 0
	for x := range tetris.Width {
		d := s.Board.ColumnDepth(x)
		depth = max(depth, d)
		holes += s.Board.Holes(x)
		if x > 0 {
			bump += abs(d - s.Board.ColumnDepth(x-1))
		}
	}
	return [NumFeatures]float64{float64(s.Score), float64(depth), float64(holes), float64(bump)}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Env is the fitness test a Weighted genome is put through.
type Env struct {
	Games int
	Sim   sim.Config
}

// DefaultEnv averages five games with the default kill line.
func DefaultEnv() Env {
	return Env{Games: 5, Sim: sim.DefaultConfig()}
}

// Weighted rates a state as the dot product of its features and weights.
type Weighted struct {
	Weights Weights
	Env     Env
}

// New returns a bot with fixed weights.
func New(w Weights, env Env) Weighted {
	return Weighted{Weights: w, Env: env}
}

// Random returns a bot with every weight drawn uniformly from (-100, 100).
func Random(rng *rand.Rand, env Env) Weighted {
	var w Weights
	for i := range w {
		w[i] = (rng.Float64() - 0.5) * 200
	}
	return Weighted{Weights: w, Env: env}
}

// RandomPopulation returns n random bots.
func RandomPopulation(n int, rng *rand.Rand, env Env) []Weighted {
	pop := make([]Weighted, n)
	for i := range pop {
		pop[i] = Random(rng, env)
	}
	return pop
}

// Evaluate implements sim.Bot.
func (b Weighted) Evaluate(s tetris.State) float64 {
	f := Features(s)
	v := 0.0
	for i, w := range b.Weights {
		v += f[i] * w
	}
	return v
}

// Fitness is the average score over b.Env.Games simulated games.
func (b Weighted) Fitness(seed int64) (float64, error) {
	return sim.New(seed, b.Env.Sim).Simulate(b.Env.Games, b)
}

// Crossover splits the genes of b and other with a random mask. The mask
// always takes at least one gene from each parent, and the two children get
// complementary halves.
func (b Weighted) Crossover(other Weighted, rng *rand.Rand) (Weighted, Weighted) {
	mask := rng.Intn((1<<NumFeatures)-2) + 1
	return fromMask(b, other, mask), fromMask(other, b, mask)
}

func fromMask(p1, p2 Weighted, mask int) Weighted {
	child := p1
	for i := range child.Weights {
		if mask&(1<<i) == 0 {
			child.Weights[i] = p2.Weights[i]
		}
	}
	return child
}

// Mutate scales one randomly chosen gene by up to ±10%.
func (b Weighted) Mutate(rng *rand.Rand) Weighted {
	i := rng.Intn(NumFeatures)
	p := (rng.Float64() - 0.5) * 0.2
	b.Weights[i] += b.Weights[i] * p
	return b
}

func (b Weighted) String() string {
	return b.Weights.String()
}
