package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tactictoe/internal/domain"
)

func intp(v int) *int { return &v }

func TestNewRules(t *testing.T) {
	cases := []struct {
		name     string
		gameType domain.GameType
		params   Params
		want     Rules
		wantErr  error
	}{
		{"xo default", domain.GameTypeXO, Params{}, Rules{Type: domain.GameTypeXO, RunLength: 5}, nil},
		{"xo six", domain.GameTypeXO, Params{WinLines: intp(6)}, Rules{Type: domain.GameTypeXO, RunLength: 6}, nil},
		{"xo four", domain.GameTypeXO, Params{WinLines: intp(4)}, Rules{}, ErrInvalidWinLines},
		{"dot 15", domain.GameTypeDot, Params{DotSize: intp(15)}, Rules{Type: domain.GameTypeDot, RunLength: 5, Size: 15}, nil},
		{"dot 11", domain.GameTypeDot, Params{DotSize: intp(11)}, Rules{}, ErrInvalidDotSize},
		{"dot missing", domain.GameTypeDot, Params{}, Rules{}, ErrInvalidDotSize},
		{"blot 7", domain.GameTypeBlot, Params{BlotSize: intp(7)}, Rules{Type: domain.GameTypeBlot, RunLength: 5, Size: 7}, nil},
		{"blot 16", domain.GameTypeBlot, Params{BlotSize: intp(16)}, Rules{}, ErrInvalidBlotSize},
		{"unknown", domain.GameType("chess"), Params{}, Rules{}, ErrUnknownGameType},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewRules(tc.gameType, tc.params)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRulesRoundTripThroughSession(t *testing.T) {
	r, err := NewRules(domain.GameTypeBlot, Params{BlotSize: intp(9)})
	require.NoError(t, err)

	var s domain.Session
	r.Apply(&s)
	assert.Equal(t, r, RulesOf(&s))
	assert.Equal(t, 81, RulesOf(&s).Cells())
}

func TestCheckCoord(t *testing.T) {
	bounded := Rules{Type: domain.GameTypeDot, RunLength: 5, Size: 10}
	assert.NoError(t, bounded.CheckCoord(0, 9))
	assert.ErrorIs(t, bounded.CheckCoord(10, 0), ErrOutOfBoard)
	assert.ErrorIs(t, bounded.CheckCoord(-1, 0), ErrOutOfBoard)

	open := Rules{Type: domain.GameTypeXO, RunLength: 5}
	assert.NoError(t, open.CheckCoord(-500, 42))
	assert.ErrorIs(t, open.CheckCoord(MaxCoord+1, 0), ErrOutOfBoard)
}
