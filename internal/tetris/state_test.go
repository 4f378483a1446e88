package tetris

import "testing"

// fillRows returns a board whose bottom n rows are full except column 0.
func fillRows(n int) Board {
	var b Board
	for y := Height - n; y < Height; y++ {
		for x := 1; x < Width; x++ {
			b[y][x] = true
		}
	}
	return b
}

// verticalI is an upright I piece over column 0.
func verticalI() Piece {
	return Spawn(I).Rotated(1).Translated(-SpawnX, 0)
}

func TestCanPlace(t *testing.T) {
	var b Board
	b[19][4] = true

	tests := []struct {
		name  string
		piece Piece
		want  bool
	}{
		{"spawn", Spawn(T), true},
		{"left wall", Spawn(T).Translated(-5, 5), false},
		{"right wall", Spawn(T).Translated(5, 5), false},
		{"floor", Spawn(T).Translated(0, 19), false},
		{"resting on floor", Spawn(T).Translated(-3, 18), true},
		{"overlap", Piece{Shape: O, X: 5, Y: 18}, false},
		{"above grid", Spawn(I).Rotated(1).Translated(0, -1), true},
		{"above grid out of columns", Piece{Shape: I, Rotation: 1, X: 9, Y: -3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.CanPlace(tt.piece); got != tt.want {
				t.Errorf("CanPlace(%v) = %v, want %v", tt.piece, got, tt.want)
			}
		})
	}
}

func TestPlaceCopiesBoard(t *testing.T) {
	s := New()
	next, ok := s.Place(Spawn(O).Translated(0, 18))
	if !ok {
		t.Fatal("Place failed")
	}
	if s.Board.Filled() != 0 {
		t.Error("Place mutated the original board")
	}
	if next.Board.Filled() != 4 {
		t.Errorf("Filled() = %d, want 4", next.Board.Filled())
	}
}

func TestPlaceInvalid(t *testing.T) {
	s := New()
	if _, ok := s.Place(Spawn(I).Translated(0, 20)); ok {
		t.Error("Place below the floor should fail")
	}
}

func TestLineClearScoring(t *testing.T) {
	tests := []struct {
		rows  int
		level int
		score int
	}{
		{0, 0, 0},
		{1, 0, 40},
		{2, 0, 100},
		{3, 0, 300},
		{4, 0, 1200},
		{1, 2, 120},
		{2, 2, 300},
		{3, 2, 900},
		{4, 3, 4800},
	}

	for _, tt := range tests {
		s := WithStartLevel(tt.level)
		s.Board = fillRows(tt.rows)
		s.Score = 7

		next, ok := s.Drop(verticalI())
		if !ok {
			t.Fatalf("rows=%d: drop failed", tt.rows)
		}
		if got := next.Score - s.Score; got != tt.score {
			t.Errorf("rows=%d level=%d: score delta = %d, want %d", tt.rows, tt.level, got, tt.score)
		}
		if next.Lines != tt.rows {
			t.Errorf("rows=%d: lines = %d", tt.rows, next.Lines)
		}
		if next.Level != tt.level {
			t.Errorf("rows=%d: level changed to %d", tt.rows, next.Level)
		}
	}
}

func TestLineClearCompaction(t *testing.T) {
	s := New()
	s.Board = fillRows(2)
	// A marker above the cleared rows must fall by two.
	s.Board[15][5] = true

	next, ok := s.Drop(verticalI())
	if !ok {
		t.Fatal("drop failed")
	}
	if !next.Board.Cell(5, 17) {
		t.Error("marker did not fall two rows")
	}
	if next.Board.Cell(5, 15) {
		t.Error("marker left behind")
	}
	// Leftover I cells sit in column 0 at the bottom.
	if !next.Board.Cell(0, 18) || !next.Board.Cell(0, 19) {
		t.Errorf("I remains not compacted:\n%s", next.Board)
	}
	if next.Board.Filled() != 3 {
		t.Errorf("Filled() = %d, want 3", next.Board.Filled())
	}
}

func TestLineClearNonAdjacent(t *testing.T) {
	// Rows 17 and 19 full except column 0; row 18 has an extra gap.
	var b Board
	for x := 1; x < Width; x++ {
		b[17][x] = true
		b[19][x] = true
		if x != 5 {
			b[18][x] = true
		}
	}
	s := State{Board: b}

	next, ok := s.Drop(verticalI())
	if !ok {
		t.Fatal("drop failed")
	}
	if next.Lines != 2 {
		t.Fatalf("lines = %d, want 2", next.Lines)
	}
	// Row 18 moves to the bottom; the I cell at row 16 follows it down.
	if next.Board.Cell(5, 19) {
		t.Error("gap in former row 18 should survive at the bottom")
	}
	if !next.Board.Cell(0, 19) || !next.Board.Cell(1, 19) {
		t.Errorf("bottom row wrong:\n%s", next.Board)
	}
	if !next.Board.Cell(0, 18) {
		t.Errorf("I cell from row 16 should land on row 18:\n%s", next.Board)
	}
}

func TestLevelIsMonotonic(t *testing.T) {
	s := State{Lines: 9, Level: 0}
	s.Board = fillRows(1)
	next, ok := s.Drop(verticalI())
	if !ok {
		t.Fatal("drop failed")
	}
	if next.Level != 1 {
		t.Errorf("level = %d, want 1 after reaching 10 lines", next.Level)
	}

	high := State{Level: 5}
	high.Board = fillRows(4)
	next, ok = high.Drop(verticalI())
	if !ok {
		t.Fatal("drop failed")
	}
	if next.Level != 5 {
		t.Errorf("level = %d, want 5 (start level must not drop)", next.Level)
	}
}

func TestDropOne(t *testing.T) {
	s := New()
	next, ok := s.Drop(Spawn(J).Rotated(2).Translated(-2, 0))
	if !ok {
		t.Fatal("drop failed")
	}
	if next.Board.Filled() != 4 {
		t.Errorf("Filled() = %d, want 4", next.Board.Filled())
	}
	if got := next.Board.ColumnDepth(2); got != 18 {
		t.Errorf("ColumnDepth(2) = %d, want 18", got)
	}
	if got := next.Board.ColumnDepth(3); got != 19 {
		t.Errorf("ColumnDepth(3) = %d, want 19", got)
	}
}

func TestDropBlockedSpawnIsGameOver(t *testing.T) {
	s := New()
	for y := range Height {
		s.Board[y][5] = true
	}
	if _, ok := s.Drop(Spawn(T)); ok {
		t.Error("drop into a blocked spawn should fail")
	}
}

// Uses each shape at least once to clear the bottom four rows.
func TestFullClear(t *testing.T) {
	drops := []struct {
		shape Shape
		rot   int
		dx    int
	}{
		{O, 0, -4},
		{L, 1, -3},
		{L, 0, -4},
		{T, 2, -1},
		{T, -1, -2},
		{Z, 0, 1},
		{S, 1, 2},
		{Z, 0, 0},
		{J, 0, 2},
		{I, 1, 4},
	}

	s := New()
	for i, d := range drops {
		var ok bool
		s, ok = s.Drop(Spawn(d.shape).Rotated(d.rot).Translated(d.dx, 0))
		if !ok {
			t.Fatalf("drop %d (%s) failed", i, d.shape)
		}
	}

	if s.Score != 1200 {
		t.Errorf("score = %d, want 1200", s.Score)
	}
	if s.Level != 0 {
		t.Errorf("level = %d, want 0", s.Level)
	}
	if s.Lines != 4 {
		t.Errorf("lines = %d, want 4", s.Lines)
	}
	if s.Board.Filled() != 0 {
		t.Errorf("board not empty after full clear:\n%s", s.Board)
	}
}

func TestBoardViews(t *testing.T) {
	var b Board
	b[10][2] = true
	b[15][2] = true
	b[19][3] = true

	if got := b.ColumnDepth(2); got != 10 {
		t.Errorf("ColumnDepth(2) = %d, want 10", got)
	}
	if got := b.ColumnDepth(0); got != Height {
		t.Errorf("ColumnDepth(0) = %d, want %d", got, Height)
	}
	if got := b.ColumnHeight(3); got != 1 {
		t.Errorf("ColumnHeight(3) = %d, want 1", got)
	}
	if got := b.Holes(2); got != 8 {
		t.Errorf("Holes(2) = %d, want 8", got)
	}
	if col := b.Column(2); !col[10] || !col[15] || col[11] {
		t.Errorf("Column(2) = %v", col)
	}
	if row := b.Row(19); !row[3] || row[2] {
		t.Errorf("Row(19) = %v", row)
	}
}
