// Package tetris implements the falling-block engine: piece geometry, the
// 10x20 board, line clears and scoring, and the search over every resting
// placement a piece can reach. It has no external dependencies beyond a
// small integer map and is safe for concurrent use because every operation
// returns a new value instead of mutating its receiver.
package tetris

import "fmt"

// Shape is one of the seven piece shapes.
type Shape int

const (
	I Shape = iota
	J
	L
	O
	S
	T
	Z
)

// Shapes lists every shape in declaration order.
var Shapes = [...]Shape{I, J, L, O, S, T, Z}

// Rotations returns the number of distinct rotation states of the shape.
func (s Shape) Rotations() int {
	switch s {
	case T, J, L:
		return 4
	case Z, S, I:
		return 2
	case O:
		return 1
	default:
		panic(fmt.Sprintf("tetris: unknown shape %d", int(s)))
	}
}

// String returns the single letter used for the shape on the wire.
func (s Shape) String() string {
	if s < I || s > Z {
		return "?"
	}
	return string("IJLOSTZ"[s])
}

// ParseShape converts a piece letter into a Shape.
func ParseShape(r rune) (Shape, error) {
	switch r {
	case 'I':
		return I, nil
	case 'J':
		return J, nil
	case 'L':
		return L, nil
	case 'O':
		return O, nil
	case 'S':
		return S, nil
	case 'T':
		return T, nil
	case 'Z':
		return Z, nil
	default:
		return 0, fmt.Errorf("tetris: unknown piece %q", r)
	}
}

// Point is a (column, row) pair. Row 0 is the top of the board.
type Point struct {
	X, Y int
}

// Piece is a shape at a position and rotation. Pieces are values:
// Rotated and Translated return new pieces.
type Piece struct {
	Shape    Shape
	Rotation int
	X, Y     int
}

// offsets holds the cell offsets for every (shape, rotation) pair, relative
// to the piece's reference point. Unused rotation slots are left zero and are
// rejected by Cells.
var offsets = [7][4][4]Point{
	I: {
		{{0, -2}, {0, -1}, {0, 0}, {0, 1}},
		{{-2, 0}, {-1, 0}, {0, 0}, {1, 0}},
	},
	J: {
		{{0, -1}, {0, 0}, {-1, 1}, {0, 1}},
		{{-1, -1}, {-1, 0}, {0, 0}, {1, 0}},
		{{0, -1}, {1, -1}, {0, 0}, {0, 1}},
		{{-1, 0}, {0, 0}, {1, 0}, {1, 1}},
	},
	L: {
		{{0, -1}, {0, 0}, {0, 1}, {1, 1}},
		{{-1, 0}, {0, 0}, {1, 0}, {-1, 1}},
		{{-1, -1}, {0, -1}, {0, 0}, {0, 1}},
		{{1, -1}, {-1, 0}, {0, 0}, {1, 0}},
	},
	O: {
		{{-1, 0}, {0, 0}, {-1, 1}, {0, 1}},
	},
	S: {
		{{0, 0}, {1, 0}, {-1, 1}, {0, 1}},
		{{0, -1}, {0, 0}, {1, 0}, {1, 1}},
	},
	T: {
		{{-1, 0}, {0, 0}, {1, 0}, {0, -1}},
		{{0, -1}, {0, 0}, {1, 0}, {0, 1}},
		{{-1, 0}, {0, 0}, {1, 0}, {0, 1}},
		{{0, -1}, {-1, 0}, {0, 0}, {0, 1}},
	},
	Z: {
		{{-1, 0}, {0, 0}, {0, 1}, {1, 1}},
		{{1, -1}, {0, 0}, {1, 0}, {0, 1}},
	},
}

// spawnRotation is the rotation a freshly spawned piece starts in.
var spawnRotation = [7]int{
	I: 1,
	J: 3,
	L: 1,
	O: 0,
	S: 0,
	T: 2,
	Z: 0,
}

// SpawnX is the column new pieces appear in.
const SpawnX = 5

// Spawn returns a new piece of the given shape at the spawn point.
func Spawn(s Shape) Piece {
	return Piece{
		Shape:    s,
		Rotation: spawnRotation[s],
		X:        SpawnX,
		Y:        0,
	}
}

// Cells returns the four board cells covered by the piece.
// Panics if the piece's rotation does not exist for its shape.
func (p Piece) Cells() [4]Point {
	if p.Shape < I || p.Shape > Z || p.Rotation < 0 || p.Rotation >= p.Shape.Rotations() {
		panic(fmt.Sprintf("tetris: no geometry for shape %s rotation %d", p.Shape, p.Rotation))
	}

	var cells [4]Point
	for i, d := range offsets[p.Shape][p.Rotation] {
		cells[i] = Point{X: p.X + d.X, Y: p.Y + d.Y}
	}
	return cells
}

// Rotated returns the piece rotated n steps clockwise. Negative n rotates
// counter-clockwise.
func (p Piece) Rotated(n int) Piece {
	r := p.Shape.Rotations()
	n = n%r + r
	p.Rotation = (p.Rotation + n) % r
	return p
}

// Translated returns the piece moved by (dx, dy).
func (p Piece) Translated(dx, dy int) Piece {
	p.X += dx
	p.Y += dy
	return p
}

// String formats the piece for logs and test failures.
func (p Piece) String() string {
	return fmt.Sprintf("%s@(%d,%d)r%d", p.Shape, p.X, p.Y, p.Rotation)
}
