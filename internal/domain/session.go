package domain

import "time"

// GameType - вариант игры
type GameType string

const (
	GameTypeXO   GameType = "xo"   // бесконечное поле, 5 или 6 в ряд
	GameTypeDot  GameType = "dot"  // квадратное поле dotSize x dotSize
	GameTypeBlot GameType = "blot" // квадратное поле blotSize x blotSize
)

// SessionStatus - статус партии
type SessionStatus string

const (
	StatusWaiting  SessionStatus = "waiting"
	StatusStarted  SessionStatus = "started"
	StatusFinished SessionStatus = "finished"
)

// WinReason - причина завершения
type WinReason string

const (
	WinReasonFair         WinReason = "fair_win"
	WinReasonTimeout      WinReason = "timeout"
	WinReasonOpponentLeft WinReason = "opponent_left"
	WinReasonDraw         WinReason = "draw"
)

// Session - долговременная запись партии
type Session struct {
	ID        string        `db:"id" json:"id"`
	GameType  GameType      `db:"game_type" json:"gameType"`
	Status    SessionStatus `db:"status" json:"status"`
	CreatorID int64         `db:"creator_id" json:"creatorId"`
	JoinerID  *int64        `db:"joiner_id" json:"joinerId"`

	WinLines int `db:"win_lines" json:"winLines"`
	DotSize  int `db:"dot_size" json:"dotSize,omitempty"`
	BlotSize int `db:"blot_size" json:"blotSize,omitempty"`

	WinnerID  *int64     `db:"winner_id" json:"winnerId"`
	WinReason *WinReason `db:"win_reason" json:"winReason"`

	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	StartedAt *time.Time `db:"started_at" json:"startedAt"`
	EndedAt   *time.Time `db:"ended_at" json:"endedAt"`
	MoveCount int        `db:"move_count" json:"moveCount"`

	CreatorTimeLeftMs *int64 `db:"creator_time_left_ms" json:"creatorTimeLeftMs"`
	JoinerTimeLeftMs  *int64 `db:"joiner_time_left_ms" json:"joinerTimeLeftMs"`
}

// IsParticipant reports whether playerID is the creator or the joiner.
func (s *Session) IsParticipant(playerID int64) bool {
	if s.CreatorID == playerID {
		return true
	}
	return s.JoinerID != nil && *s.JoinerID == playerID
}

// Opponent returns the other participant. ok is false when playerID is not
// seated or the session has no joiner yet.
func (s *Session) Opponent(playerID int64) (int64, bool) {
	if s.JoinerID == nil {
		return 0, false
	}
	switch playerID {
	case s.CreatorID:
		return *s.JoinerID, true
	case *s.JoinerID:
		return s.CreatorID, true
	}
	return 0, false
}

// Players returns creator and joiner (0 while waiting).
func (s *Session) Players() [2]int64 {
	var joiner int64
	if s.JoinerID != nil {
		joiner = *s.JoinerID
	}
	return [2]int64{s.CreatorID, joiner}
}

// BoardSize returns the side of a bounded board, 0 for the unbounded one.
func (s *Session) BoardSize() int {
	switch s.GameType {
	case GameTypeDot:
		return s.DotSize
	case GameTypeBlot:
		return s.BlotSize
	}
	return 0
}

// Move - одна отметка на поле
type Move struct {
	X        int   `json:"x"`
	Y        int   `json:"y"`
	PlayerID int64 `json:"playerId"`
}

// FinishParams - итог партии, записывается один раз
type FinishParams struct {
	SessionID         string
	WinnerID          *int64
	Reason            WinReason
	EndedAt           time.Time
	CreatorTimeLeftMs int64
	JoinerTimeLeftMs  int64
	// Moves - ещё не записанный хвост истории, пишется в той же транзакции
	Moves []Move
}
