package tetris

import "fmt"

// Placement is a resting position for a piece together with the state that
// results from locking it there.
type Placement struct {
	State State
	Piece Piece
}

// visitTable marks (x, y, rotation) triples already explored by a search.
type visitTable [Width][Height][4]bool

// visit marks p and reports whether it was already marked. Pieces outside
// the table are never marked.
func (v *visitTable) visit(p Piece) bool {
	if p.X < 0 || p.X >= Width || p.Y < 0 || p.Y >= Height {
		return false
	}
	seen := v[p.X][p.Y][p.Rotation]
	v[p.X][p.Y][p.Rotation] = true
	return seen
}

// neighbours returns the five single-step moves from p: down, left, right,
// counter-clockwise and clockwise.
func neighbours(p Piece) [5]Piece {
	return [5]Piece{
		p.Translated(0, 1),
		p.Translated(-1, 0),
		p.Translated(1, 0),
		p.Rotated(-1),
		p.Rotated(1),
	}
}

// Placements returns every distinct resting placement of next that can be
// reached from its spawn point by moving down, left, right and rotating.
// Placements are returned in breadth-first discovery order.
func (s State) Placements(next Shape) []Placement {
	var visited visitTable
	queue := []Piece{Spawn(next)}
	var terminal []Piece

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		if !s.Board.CanPlace(p) || visited.visit(p) {
			continue
		}

		for _, n := range neighbours(p) {
			queue = append(queue, n)
		}

		if !s.Board.CanPlace(p.Translated(0, 1)) {
			terminal = append(terminal, p)
		}
	}

	placements := make([]Placement, 0, len(terminal))
	for _, p := range terminal {
		after, ok := s.Place(p)
		if !ok {
			panic(fmt.Sprintf("tetris: terminal piece %v could not be placed", p))
		}
		placements = append(placements, Placement{State: after, Piece: p})
	}
	return placements
}
