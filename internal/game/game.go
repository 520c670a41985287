package game

import (
	"errors"
	"fmt"

	"tactictoe/internal/domain"
)

// Coordinate bound for the unbounded xo board.
const MaxCoord = 1_000_000

// Run length used by the bounded variants.
const BoundedRunLength = 5

var (
	ErrUnknownGameType = errors.New("unknown game type")
	ErrInvalidWinLines = errors.New("winLines must be 5 or 6")
	ErrInvalidDotSize  = errors.New("dotSize must be one of 10, 15, 20")
	ErrInvalidBlotSize = errors.New("blotSize must be between 7 and 15")
	ErrOutOfBoard      = errors.New("coordinate is outside the board")
)

// Allowed parameter values per game type.
var (
	AllowedWinLines = []int{5, 6}
	AllowedDotSizes = []int{10, 15, 20}
	MinBlotSize     = 7
	MaxBlotSize     = 15
)

// Params are the optional creation parameters sent by the client.
type Params struct {
	WinLines *int `json:"winLines,omitempty"`
	DotSize  *int `json:"dotSize,omitempty"`
	BlotSize *int `json:"blotSize,omitempty"`
}

// Rules are the immutable per-session parameters derived from Params.
type Rules struct {
	Type      domain.GameType
	RunLength int
	Size      int // 0 means unbounded
}

// NewRules validates params against the per-game-type constraint table.
func NewRules(gameType domain.GameType, p Params) (Rules, error) {
	switch gameType {
	case domain.GameTypeXO:
		winLines := 5
		if p.WinLines != nil {
			winLines = *p.WinLines
		}
		if !contains(AllowedWinLines, winLines) {
			return Rules{}, ErrInvalidWinLines
		}
		return Rules{Type: gameType, RunLength: winLines}, nil

	case domain.GameTypeDot:
		if p.DotSize == nil || !contains(AllowedDotSizes, *p.DotSize) {
			return Rules{}, ErrInvalidDotSize
		}
		return Rules{Type: gameType, RunLength: BoundedRunLength, Size: *p.DotSize}, nil

	case domain.GameTypeBlot:
		if p.BlotSize == nil || *p.BlotSize < MinBlotSize || *p.BlotSize > MaxBlotSize {
			return Rules{}, ErrInvalidBlotSize
		}
		return Rules{Type: gameType, RunLength: BoundedRunLength, Size: *p.BlotSize}, nil
	}
	return Rules{}, fmt.Errorf("%w: %q", ErrUnknownGameType, gameType)
}

// RulesOf rebuilds the rules stored on a session record.
func RulesOf(s *domain.Session) Rules {
	r := Rules{Type: s.GameType, RunLength: s.WinLines, Size: s.BoardSize()}
	if r.RunLength == 0 {
		r.RunLength = BoundedRunLength
	}
	return r
}

// Apply copies the rules onto a new session record.
func (r Rules) Apply(s *domain.Session) {
	s.GameType = r.Type
	s.WinLines = r.RunLength
	switch r.Type {
	case domain.GameTypeDot:
		s.DotSize = r.Size
	case domain.GameTypeBlot:
		s.BlotSize = r.Size
	}
}

// Bounded reports whether the board has a finite number of cells.
func (r Rules) Bounded() bool {
	return r.Size > 0
}

// Cells returns the number of cells of a bounded board.
func (r Rules) Cells() int {
	return r.Size * r.Size
}

// CheckCoord rejects coordinates outside the board.
func (r Rules) CheckCoord(x, y int) error {
	if r.Bounded() {
		if x < 0 || y < 0 || x >= r.Size || y >= r.Size {
			return ErrOutOfBoard
		}
		return nil
	}
	if x < -MaxCoord || x > MaxCoord || y < -MaxCoord || y > MaxCoord {
		return ErrOutOfBoard
	}
	return nil
}

func contains(set []int, v int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
