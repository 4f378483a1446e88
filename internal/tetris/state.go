package tetris

import "fmt"

// lineScores is the base score for clearing 0..4 rows with one piece.
// The base is multiplied by (level + 1).
var lineScores = [5]int{0, 40, 100, 300, 1200}

// LinesPerLevel is the number of cleared rows needed to advance a level.
const LinesPerLevel = 10

// State is a snapshot of a game: the board plus its counters.
// States are never modified after creation; Place and Drop return new ones.
type State struct {
	Board Board
	Score int
	Level int
	Lines int
}

// New returns a blank level 0 state.
func New() State {
	return State{}
}

// WithStartLevel returns a blank state starting at the given level.
func WithStartLevel(level int) State {
	return State{Level: level}
}

// Place locks p into the board, clears full rows and updates the counters.
// Returns false if p overlaps the walls, floor or occupied cells.
func (s State) Place(p Piece) (State, bool) {
	if !s.Board.CanPlace(p) {
		return State{}, false
	}

	board := s.Board
	var touched [Height]bool
	for _, c := range p.Cells() {
		// Cells above the grid are dropped
		if c.Y >= 0 {
			board[c.Y][c.X] = true
			touched[c.Y] = true
		}
	}

	var cleared [Height]bool
	n := 0
	for y := range Height {
		if touched[y] && fullRow(board[y]) {
			cleared[y] = true
			n++
		}
	}
	if n > len(lineScores)-1 {
		panic(fmt.Sprintf("tetris: cleared %d rows with one piece", n))
	}

	if n > 0 {
		// Compact bottom-up. Sources are always at or above the row being
		// written, so the copy can be done in place.
		d := 0
		for y := Height - 1; y >= 0; y-- {
			for y-d >= 0 && cleared[y-d] {
				d++
			}
			if y-d < 0 {
				board[y] = [Width]bool{}
			} else {
				board[y] = board[y-d]
			}
		}
	}

	lines := s.Lines + n
	return State{
		Board: board,
		Score: s.Score + lineScores[n]*(s.Level+1),
		Level: max(s.Level, lines/LinesPerLevel),
		Lines: lines,
	}, true
}

// Drop moves p straight down as far as it goes and places it there.
// Returns false if p cannot be placed where it starts, which is how the
// engine signals that the game is over.
func (s State) Drop(p Piece) (State, bool) {
	if !s.Board.CanPlace(p) {
		return State{}, false
	}
	for s.Board.CanPlace(p.Translated(0, 1)) {
		p = p.Translated(0, 1)
	}
	return s.Place(p)
}

func fullRow(row [Width]bool) bool {
	for _, c := range row {
		if !c {
			return false
		}
	}
	return true
}
