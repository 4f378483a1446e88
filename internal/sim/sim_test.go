package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/vovakirdan/tetris-evolve/internal/tetris"
)

// tidy keeps the stack low and hole free, which is enough to clear lines.
var tidy = BotFunc(func(s tetris.State) float64 {
	height, holes, bump := 0, 0, 0
	for x := range tetris.Width {
		height += s.Board.ColumnHeight(x)
		holes += s.Board.Holes(x)
		if x > 0 {
			d := s.Board.ColumnHeight(x) - s.Board.ColumnHeight(x-1)
			if d < 0 {
				d = -d
			}
			bump += d
		}
	}
	return float64(s.Lines)*8 - float64(height)*0.5 - float64(holes)*4 - float64(bump)*0.2
})

var flat = BotFunc(func(tetris.State) float64 { return 0 })

func TestBestTieGoesToFirst(t *testing.T) {
	s := tetris.New()
	want := s.Placements(tetris.T)[0]

	got, ok := Best(s, tetris.T, flat)
	if !ok {
		t.Fatal("Best found nothing on a blank board")
	}
	if got.Piece != want.Piece {
		t.Errorf("Best = %v, want first placement %v", got.Piece, want.Piece)
	}
}

func TestBestPicksHighest(t *testing.T) {
	leftmost := BotFunc(func(s tetris.State) float64 {
		return float64(s.Board.ColumnHeight(0))
	})
	s := tetris.New()

	var want tetris.Placement
	top := -1.0
	for _, p := range s.Placements(tetris.I) {
		if v := leftmost.Evaluate(p.State); v > top {
			want, top = p, v
		}
	}

	got, ok := Best(s, tetris.I, leftmost)
	if !ok {
		t.Fatal("Best found nothing")
	}
	if got.Piece != want.Piece {
		t.Errorf("Best = %v, want %v", got.Piece, want.Piece)
	}
	if got.State.Board.ColumnHeight(0) != 4 {
		t.Errorf("expected an upright I in column 0, got\n%s", got.State.Board)
	}
}

func TestBestNoPlacement(t *testing.T) {
	s := tetris.New()
	for y := range tetris.Height {
		s.Board[y][tetris.SpawnX] = true
	}
	if _, ok := Best(s, tetris.O, flat); ok {
		t.Error("Best should fail when the spawn point is blocked")
	}
}

func TestBestPanicsOnNaN(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for NaN evaluation")
		}
	}()
	Best(tetris.New(), tetris.S, BotFunc(func(tetris.State) float64 { return math.NaN() }))
}

func TestSimulateNoGames(t *testing.T) {
	for _, n := range []int{0, -3} {
		if _, err := New(1, DefaultConfig()).Simulate(n, flat); !errors.Is(err, ErrNoGames) {
			t.Errorf("Simulate(%d) error = %v, want ErrNoGames", n, err)
		}
	}
}

func TestSimulateDeterministic(t *testing.T) {
	cfg := Config{KillLines: 20}

	a, err := New(42, cfg).Simulate(3, tidy)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(42, cfg).Simulate(3, tidy)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("same seed gave %v and %v", a, b)
	}
}

func TestNextShapeCoversAll(t *testing.T) {
	s := New(7, DefaultConfig())
	seen := make(map[tetris.Shape]bool)
	for range 500 {
		seen[s.NextShape()] = true
	}
	if len(seen) != len(tetris.Shapes) {
		t.Errorf("saw %d shapes in 500 draws, want %d", len(seen), len(tetris.Shapes))
	}
}

func TestPlayStopsAtKillLines(t *testing.T) {
	const kill = 4
	sim := New(3, Config{KillLines: kill})

	var moves []Move
	final := sim.Play(tidy, func(m Move) { moves = append(moves, m) })

	if final.Lines < kill || final.Lines >= kill+4 {
		t.Fatalf("final lines = %d, want in [%d, %d)", final.Lines, kill, kill+4)
	}
	if len(moves) == 0 {
		t.Fatal("observer never called")
	}
	last := moves[len(moves)-1]
	if last.Before.Lines >= kill {
		t.Errorf("a turn was played after reaching %d lines", kill)
	}
	if last.After != final {
		t.Error("final state differs from the last observed move")
	}
}

func TestPlayObserverSequence(t *testing.T) {
	sim := New(11, Config{KillLines: 6})

	var moves []Move
	sim.Play(tidy, func(m Move) { moves = append(moves, m) })

	for i, m := range moves {
		if m.Turn != i {
			t.Errorf("move %d has turn %d", i, m.Turn)
		}
		if i > 0 && m.Before != moves[i-1].After {
			t.Errorf("move %d does not continue from move %d", i, i-1)
		}
		if m.Piece.Shape != m.Shape {
			t.Errorf("move %d placed %s for shape %s", i, m.Piece.Shape, m.Shape)
		}
	}
}

func TestPlayStartLevel(t *testing.T) {
	final := New(5, Config{KillLines: 1, StartLevel: 3}).Play(flat, nil)
	if final.Level < 3 {
		t.Errorf("level = %d, want at least the start level 3", final.Level)
	}
}

func TestPlayEndsWhenToppedOut(t *testing.T) {
	// A bot that never cares about height must eventually top out.
	final := New(9, Config{}).Play(flat, nil)
	if final.Board.Filled() == 0 {
		t.Error("game ended on an empty board")
	}
}
