// Package sim plays complete games with a bot choosing every placement.
// It is the fitness source for evolution and the decision maker behind the
// protocol server.
package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/vovakirdan/tetris-evolve/internal/tetris"
)

// DefaultKillLines is the line count at which a simulated game is stopped.
const DefaultKillLines = 300

// ErrNoGames is returned by Simulate when asked to average zero games.
var ErrNoGames = errors.New("sim: number of games must be positive")

// Bot scores game states. Higher is better.
// Evaluate must be deterministic and must never return NaN.
type Bot interface {
	Evaluate(s tetris.State) float64
}

// BotFunc adapts a plain function to the Bot interface.
type BotFunc func(s tetris.State) float64

// Evaluate calls f(s).
func (f BotFunc) Evaluate(s tetris.State) float64 { return f(s) }

// Best returns the placement of shape that bot rates highest.
// Ties go to the placement enumerated first. Returns false when the shape
// has no legal placement, which ends the game.
func Best(state tetris.State, shape tetris.Shape, bot Bot) (tetris.Placement, bool) {
	var (
		best      tetris.Placement
		bestScore float64
		found     bool
	)

	for _, p := range state.Placements(shape) {
		v := bot.Evaluate(p.State)
		if math.IsNaN(v) {
			panic(fmt.Sprintf("sim: bot returned NaN for placement %v", p.Piece))
		}
		if !found || v > bestScore {
			best, bestScore, found = p, v, true
		}
	}
	return best, found
}

// Config controls how simulated games end.
type Config struct {
	// KillLines stops a game once this many lines are cleared.
	// Zero or negative plays until the board tops out.
	KillLines int
	// StartLevel is the level every game begins at.
	StartLevel int
}

// DefaultConfig returns the standard simulation settings.
func DefaultConfig() Config {
	return Config{KillLines: DefaultKillLines}
}

// Move describes one completed turn.
type Move struct {
	Turn   int
	Shape  tetris.Shape
	Piece  tetris.Piece
	Before tetris.State
	After  tetris.State
}

// Simulator plays games with a private random piece sequence.
// A Simulator is not safe for concurrent use.
type Simulator struct {
	cfg Config
	rng *rand.Rand
}

// New creates a simulator whose piece sequence is determined by seed.
func New(seed int64, cfg Config) *Simulator {
	return &Simulator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NextShape draws the next piece uniformly from the seven shapes.
func (s *Simulator) NextShape() tetris.Shape {
	return tetris.Shapes[s.rng.Intn(len(tetris.Shapes))]
}

// Turn draws a shape and lets bot place it.
// Returns false if the shape could not be placed.
func (s *Simulator) Turn(state tetris.State, bot Bot) (Move, bool) {
	shape := s.NextShape()
	p, ok := Best(state, shape, bot)
	if !ok {
		return Move{Shape: shape, Before: state, After: state}, false
	}
	return Move{Shape: shape, Piece: p.Piece, Before: state, After: p.State}, true
}

// Play runs one game from a fresh state and returns the final state.
// observe, if non-nil, is called after every successful turn.
func (s *Simulator) Play(bot Bot, observe func(Move)) tetris.State {
	state := tetris.WithStartLevel(s.cfg.StartLevel)

	for turn := 0; !s.Done(state); turn++ {
		m, ok := s.Turn(state, bot)
		if !ok {
			break
		}
		m.Turn = turn
		if observe != nil {
			observe(m)
		}
		state = m.After
	}
	return state
}

// Done reports whether state has reached the kill line.
func (s *Simulator) Done(state tetris.State) bool {
	return s.cfg.KillLines > 0 && state.Lines >= s.cfg.KillLines
}

// Simulate plays n games back to back and returns the mean final score.
func (s *Simulator) Simulate(n int, bot Bot) (float64, error) {
	if n <= 0 {
		return 0, ErrNoGames
	}

	total := 0.0
	for range n {
		total += float64(s.Play(bot, nil).Score)
	}
	return total / float64(n), nil
}
