package tetris

import "github.com/kamstrup/intmap"

// Waypoint is one leg of a route: move the piece to (X, Y), then rotate it R
// times clockwise (negative R rotates counter-clockwise).
type Waypoint struct {
	X, Y, R int
}

const noParent = int32(-1)

func pieceKey(p Piece) int32 {
	return int32((p.X*Height+p.Y)*4 + p.Rotation)
}

func keyPiece(shape Shape, k int32) Piece {
	rot := int(k % 4)
	k /= 4
	return Piece{Shape: shape, Rotation: rot, X: int(k) / Height, Y: int(k) % Height}
}

// Route finds a shortest sequence of single-step moves from the spawn point
// of target.Shape to target and compresses it into waypoints. Returns false
// if target cannot be reached.
func (s State) Route(target Piece) ([]Waypoint, bool) {
	if target.Rotation < 0 || target.Rotation >= target.Shape.Rotations() {
		return nil, false
	}
	if !s.Board.CanPlace(target) {
		return nil, false
	}

	start := Spawn(target.Shape)
	if !s.Board.CanPlace(start) {
		return nil, false
	}

	parents := intmap.New[int32, int32](Width * Height * 4)
	parents.Put(pieceKey(start), noParent)
	queue := []Piece{start}
	goal := pieceKey(target)

	found := start == target
	for len(queue) > 0 && !found {
		p := queue[0]
		queue = queue[1:]

		for _, n := range neighbours(p) {
			if n.X < 0 || n.X >= Width || n.Y < 0 || n.Y >= Height {
				continue
			}
			if !s.Board.CanPlace(n) || parents.Has(pieceKey(n)) {
				continue
			}
			parents.Put(pieceKey(n), pieceKey(p))
			if pieceKey(n) == goal {
				found = true
				break
			}
			queue = append(queue, n)
		}
	}
	if !found {
		return nil, false
	}

	var path []Piece
	for k := goal; k != noParent; {
		path = append(path, keyPiece(target.Shape, k))
		k, _ = parents.Get(k)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return compressPath(path), true
}

// Move directions used while compressing a path.
const (
	moveNone = iota
	moveDown
	moveSide
)

// compressPath turns a step-by-step path into waypoints. A new waypoint
// starts whenever the piece changes between falling and sliding, or starts
// moving again after rotating.
func compressPath(path []Piece) []Waypoint {
	cur := Waypoint{X: path[0].X, Y: path[0].Y}
	dir := moveNone
	var out []Waypoint

	for i := 1; i < len(path); i++ {
		prev, p := path[i-1], path[i]

		if p.Rotation != prev.Rotation {
			if prev.Rotated(1).Rotation == p.Rotation {
				cur.R++
			} else {
				cur.R--
			}
			continue
		}

		d := moveSide
		if p.Y != prev.Y {
			d = moveDown
		}
		if cur.R != 0 || (dir != moveNone && d != dir) {
			out = append(out, cur)
			cur = Waypoint{X: prev.X, Y: prev.Y}
		}
		dir = d
		cur.X, cur.Y = p.X, p.Y
	}

	return append(out, cur)
}
