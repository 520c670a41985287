package game

import "tactictoe/internal/domain"

// Point is a board coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Direction names the axis of a winning line.
type Direction string

const (
	Horizontal   Direction = "horizontal"
	Vertical     Direction = "vertical"
	Diagonal     Direction = "diagonal"
	AntiDiagonal Direction = "antiDiagonal"
)

// WinLine describes the run that decided the game.
type WinLine struct {
	Start     Point     `json:"start"`
	End       Point     `json:"end"`
	Direction Direction `json:"direction"`
}

var axes = []struct {
	dx, dy int
	dir    Direction
}{
	{1, 0, Horizontal},
	{0, 1, Vertical},
	{1, 1, Diagonal},
	{1, -1, AntiDiagonal},
}

// Board maps each occupied cell to the player holding it.
type Board map[Point]int64

// BoardOf indexes a move list by cell.
func BoardOf(moves []domain.Move) Board {
	b := make(Board, len(moves))
	for _, mv := range moves {
		b[Point{mv.X, mv.Y}] = mv.PlayerID
	}
	return b
}

// Occupied reports whether someone already holds p.
func (b Board) Occupied(p Point) bool {
	_, ok := b[p]
	return ok
}

func (b Board) heldBy(p Point, player int64) bool {
	owner, ok := b[p]
	return ok && owner == player
}

// CheckWin looks only at the lines through the newly placed mark at, counting
// cells held by the same player. A win exists iff some axis holds at least
// runLength consecutive marks.
func CheckWin(board Board, at Point, runLength int) (*WinLine, bool) {
	player, ok := board[at]
	if !ok {
		return nil, false
	}

	for _, a := range axes {
		count := 1
		start, end := at, at

		for p := (Point{at.X + a.dx, at.Y + a.dy}); board.heldBy(p, player); p = (Point{p.X + a.dx, p.Y + a.dy}) {
			count++
			end = p
		}
		for p := (Point{at.X - a.dx, at.Y - a.dy}); board.heldBy(p, player); p = (Point{p.X - a.dx, p.Y - a.dy}) {
			count++
			start = p
		}

		if count >= runLength {
			return &WinLine{Start: start, End: end, Direction: a.dir}, true
		}
	}
	return nil, false
}
