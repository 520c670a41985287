package match

import (
	"tactictoe/internal/domain"
	"tactictoe/internal/game"
)

// Outbound event names.
const (
	EventGameCreated    = "gameCreated"
	EventGameJoined     = "gameJoined"
	EventOpponentJoined = "opponentJoined"
	EventGameDissolved  = "gameDissolved"
	EventMoveMade       = "moveMade"
	EventGameEnded      = "gameEnded"
	EventTimeSync       = "timeSync"
	EventError          = "error"
)

// Event is a delivery intent for one participant.
type Event struct {
	Name    string
	Target  int64
	Payload any
}

// Broadcaster delivers events. Delivery is at-most-once; Publish must not
// block the caller.
type Broadcaster interface {
	Publish(ev Event)
}

// BroadcasterFunc adapts a function to Broadcaster.
type BroadcasterFunc func(Event)

func (f BroadcasterFunc) Publish(ev Event) { f(ev) }

type SessionPayload struct {
	Session *domain.Session `json:"session"`
}

type DissolvedPayload struct {
	SessionID string `json:"sessionId"`
}

type MoveMadePayload struct {
	X        int   `json:"x"`
	Y        int   `json:"y"`
	PlayerID int64 `json:"playerId"`
}

type GameEndedPayload struct {
	Winner            *int64           `json:"winner"`
	Reason            domain.WinReason `json:"reason"`
	CreatorTimeLeftMs int64            `json:"creatorTimeLeftMs"`
	JoinerTimeLeftMs  int64            `json:"joinerTimeLeftMs"`
	Line              *game.WinLine    `json:"line,omitempty"`
}

type TimeSyncPayload struct {
	GameID            string `json:"gameId"`
	CreatorTimeLeftMs int64  `json:"creatorTimeLeftMs"`
	JoinerTimeLeftMs  int64  `json:"joinerTimeLeftMs"`
	Turn              int64  `json:"turn"`
	ServerTs          int64  `json:"serverTs"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func (c *Coordinator) publish(name string, target int64, payload any) {
	if target == 0 {
		return
	}
	c.events.Publish(Event{Name: name, Target: target, Payload: payload})
}

func (c *Coordinator) publishBoth(s *domain.Session, name string, payload any) {
	for _, pid := range s.Players() {
		c.publish(name, pid, payload)
	}
}

func (c *Coordinator) publishTimeSync(s *domain.Session, ts game.TimeState, nowMs int64) {
	c.publishBoth(s, EventTimeSync, TimeSyncPayload{
		GameID:            s.ID,
		CreatorTimeLeftMs: ts.CreatorLeftMs,
		JoinerTimeLeftMs:  ts.JoinerLeftMs,
		Turn:              ts.Turn,
		ServerTs:          nowMs,
	})
}
