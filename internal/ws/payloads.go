package ws

import "tactictoe/internal/domain"

// client → server
type CreateGamePayload struct {
	GameType domain.GameType `json:"gameType"`
	WinLines *int            `json:"winLines,omitempty"`
	DotSize  *int            `json:"dotSize,omitempty"`
	BlotSize *int            `json:"blotSize,omitempty"`
}

type JoinGamePayload struct {
	SessionID string `json:"sessionId"`
}

// DissolveGamePayload may omit the session; the player's current one is used.
type DissolveGamePayload struct {
	SessionID string `json:"sessionId,omitempty"`
}

type MovePayload struct {
	SessionID string `json:"sessionId"`
	X         *int   `json:"x"`
	Y         *int   `json:"y"`
}

type TickPayload struct {
	SessionID string `json:"sessionId"`
}

// server → client
type ErrorPayload struct {
	Message string `json:"message"`
}
