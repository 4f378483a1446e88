package tetris

import "testing"

func TestShapeRotations(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{T, 4}, {J, 4}, {L, 4},
		{Z, 2}, {S, 2}, {I, 2},
		{O, 1},
	}

	for _, tt := range tests {
		t.Run(tt.shape.String(), func(t *testing.T) {
			if got := tt.shape.Rotations(); got != tt.want {
				t.Errorf("Rotations() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCellsAreFourDistinct(t *testing.T) {
	for _, s := range Shapes {
		for r := range s.Rotations() {
			p := Piece{Shape: s, Rotation: r, X: 4, Y: 8}
			cells := p.Cells()

			seen := make(map[Point]bool)
			for _, c := range cells {
				seen[c] = true
			}
			if len(seen) != 4 {
				t.Errorf("%v: got %d distinct cells, want 4 (%v)", p, len(seen), cells)
			}
		}
	}
}

func TestCellsContainReferencePoint(t *testing.T) {
	for _, s := range Shapes {
		for r := range s.Rotations() {
			p := Piece{Shape: s, Rotation: r, X: 3, Y: 7}
			found := false
			for _, c := range p.Cells() {
				if c == (Point{3, 7}) {
					found = true
				}
			}
			if !found {
				t.Errorf("%v: reference point not covered", p)
			}
		}
	}
}

func TestCellsInvalidRotationPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for O rotation 1")
		}
	}()
	Piece{Shape: O, Rotation: 1}.Cells()
}

func TestRotatedIsCyclic(t *testing.T) {
	for _, s := range Shapes {
		n := s.Rotations()
		for start := range n {
			for k := -5; k <= 5; k++ {
				p := Piece{Shape: s, Rotation: start, X: 5, Y: 5}
				q := p.Rotated(k)
				if q.Rotation < 0 || q.Rotation >= n {
					t.Fatalf("%v.Rotated(%d) rotation %d out of range", p, k, q.Rotation)
				}
				back := q.Rotated(n - k)
				if back.Rotation != start {
					t.Errorf("%v.Rotated(%d).Rotated(%d) = %d, want %d", p, k, n-k, back.Rotation, start)
				}
				if q.X != p.X || q.Y != p.Y {
					t.Errorf("rotation moved the piece: %v -> %v", p, q)
				}
			}
		}
	}
}

func TestRotatedNegative(t *testing.T) {
	p := Spawn(T) // rotation 2
	if got := p.Rotated(-1).Rotation; got != 1 {
		t.Errorf("Rotated(-1) = %d, want 1", got)
	}
	if got := p.Rotated(-3).Rotation; got != 3 {
		t.Errorf("Rotated(-3) = %d, want 3", got)
	}
}

func TestTranslated(t *testing.T) {
	p := Spawn(L).Translated(-2, 3)
	if p.X != SpawnX-2 || p.Y != 3 {
		t.Errorf("Translated = (%d,%d), want (%d,3)", p.X, p.Y, SpawnX-2)
	}
	if p.Shape != L || p.Rotation != 1 {
		t.Errorf("Translated changed shape/rotation: %v", p)
	}
}

func TestSpawn(t *testing.T) {
	want := map[Shape]int{T: 2, J: 3, Z: 0, O: 0, S: 0, L: 1, I: 1}
	for s, rot := range want {
		p := Spawn(s)
		if p.Rotation != rot || p.X != 5 || p.Y != 0 {
			t.Errorf("Spawn(%s) = %v, want rotation %d at (5,0)", s, p, rot)
		}
	}
}

func TestParseShape(t *testing.T) {
	for _, s := range Shapes {
		got, err := ParseShape(rune(s.String()[0]))
		if err != nil {
			t.Fatalf("ParseShape(%s) error: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseShape(%s) = %s", s, got)
		}
	}

	if _, err := ParseShape('X'); err == nil {
		t.Error("ParseShape('X') should fail")
	}
}
