package tui

import (
	"fmt"

	"github.com/vovakirdan/tetris-evolve/internal/sim"
	"github.com/vovakirdan/tetris-evolve/internal/storage"
	"github.com/vovakirdan/tetris-evolve/internal/tetris"
)

// Feed supplies the moves shown by the watch screen.
type Feed interface {
	// Title names the feed in the status panel.
	Title() string
	// Start returns the state before the first move.
	Start() tetris.State
	// Next returns the next move, or false once the game is over.
	Next() (sim.Move, bool)
	// Restart begins the next game and returns its start state.
	Restart() tetris.State
}

// LiveFeed plays games with a bot as the viewer asks for moves.
type LiveFeed struct {
	name  string
	bot   sim.Bot
	cfg   sim.Config
	seed  int64
	sim   *sim.Simulator
	state tetris.State
	turn  int
}

// NewLiveFeed creates a feed in which bot plays games seeded from seed.
// Each restart advances the seed by one.
func NewLiveFeed(name string, bot sim.Bot, seed int64, cfg sim.Config) *LiveFeed {
	f := &LiveFeed{name: name, bot: bot, cfg: cfg, seed: seed - 1}
	f.Restart()
	return f
}

func (f *LiveFeed) Title() string {
	return fmt.Sprintf("%s (seed %d)", f.name, f.seed)
}

func (f *LiveFeed) Start() tetris.State {
	return tetris.WithStartLevel(f.cfg.StartLevel)
}

func (f *LiveFeed) Next() (sim.Move, bool) {
	if f.sim.Done(f.state) {
		return sim.Move{}, false
	}
	m, ok := f.sim.Turn(f.state, f.bot)
	if !ok {
		return m, false
	}
	m.Turn = f.turn
	f.turn++
	f.state = m.After
	return m, true
}

func (f *LiveFeed) Restart() tetris.State {
	f.seed++
	f.sim = sim.New(f.seed, f.cfg)
	f.state = f.Start()
	f.turn = 0
	return f.state
}

// TraceFeed replays one game of a recorded trace.
type TraceFeed struct {
	name  string
	games [][]storage.TraceRow
	game  int
	pos   int
	prev  tetris.State
}

// NewTraceFeed creates a feed over the rows of a trace file. Restart moves
// on to the next recorded game, wrapping around after the last.
func NewTraceFeed(name string, rows []storage.TraceRow) *TraceFeed {
	f := &TraceFeed{name: name}
	for i, r := range rows {
		if i == 0 || r.Game != rows[i-1].Game {
			f.games = append(f.games, nil)
		}
		f.games[len(f.games)-1] = append(f.games[len(f.games)-1], r)
	}
	return f
}

func (f *TraceFeed) Title() string {
	if len(f.games) == 0 {
		return f.name + " (empty)"
	}
	return fmt.Sprintf("%s (game %d of %d)", f.name, f.game+1, len(f.games))
}

func (f *TraceFeed) Start() tetris.State {
	return tetris.New()
}

func (f *TraceFeed) Next() (sim.Move, bool) {
	if f.game >= len(f.games) || f.pos >= len(f.games[f.game]) {
		return sim.Move{}, false
	}
	row := f.games[f.game][f.pos]
	piece, err := row.Piece()
	if err != nil {
		return sim.Move{}, false
	}
	after, err := row.State()
	if err != nil {
		return sim.Move{}, false
	}

	m := sim.Move{Turn: int(row.Turn), Shape: piece.Shape, Piece: piece, Before: f.prev, After: after}
	f.prev = after
	f.pos++
	return m, true
}

func (f *TraceFeed) Restart() tetris.State {
	if len(f.games) > 0 {
		f.game = (f.game + 1) % len(f.games)
	}
	f.pos = 0
	f.prev = f.Start()
	return f.prev
}
