package tetris

import "strings"

// Board dimensions.
const (
	Width  = 10
	Height = 20
)

// Board is the occupancy grid, indexed [row][column]. Row 0 is the top.
// Board is an array so assigning it copies the whole grid.
type Board [Height][Width]bool

// CanPlace reports whether every cell of p is inside the side walls, above
// the floor and unoccupied. Cells above the top row are always allowed.
func (b Board) CanPlace(p Piece) bool {
	for _, c := range p.Cells() {
		if c.X < 0 || c.X >= Width || c.Y >= Height {
			return false
		}
		if c.Y >= 0 && b[c.Y][c.X] {
			return false
		}
	}
	return true
}

// Row returns row y.
func (b Board) Row(y int) [Width]bool {
	return b[y]
}

// Column returns column x, top to bottom.
func (b Board) Column(x int) [Height]bool {
	var col [Height]bool
	for y := range Height {
		col[y] = b[y][x]
	}
	return col
}

// Cell reports whether (x, y) is occupied.
func (b Board) Cell(x, y int) bool {
	return b[y][x]
}

// ColumnDepth returns the number of empty cells at the top of column x,
// i.e. the row of its first occupied cell, or Height if the column is empty.
func (b Board) ColumnDepth(x int) int {
	for y := range Height {
		if b[y][x] {
			return y
		}
	}
	return Height
}

// ColumnHeight returns the height of column x measured from the floor.
func (b Board) ColumnHeight(x int) int {
	return Height - b.ColumnDepth(x)
}

// Holes returns the number of empty cells in column x that lie below its
// first occupied cell.
func (b Board) Holes(x int) int {
	holes := 0
	covered := false
	for y := range Height {
		switch {
		case b[y][x]:
			covered = true
		case covered:
			holes++
		}
	}
	return holes
}

// Filled returns the number of occupied cells.
func (b Board) Filled() int {
	n := 0
	for y := range Height {
		for x := range Width {
			if b[y][x] {
				n++
			}
		}
	}
	return n
}

// String renders the board as Height lines of '.' and 'x'.
func (b Board) String() string {
	var sb strings.Builder
	sb.Grow(Height * (Width + 1))
	for y := range Height {
		for x := range Width {
			if b[y][x] {
				sb.WriteByte('x')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
