package ws

import "encoding/json"

const (
	// client - server
	ActionCreateGame   = "createGame"
	ActionJoinGame     = "joinGame"
	ActionDissolveGame = "dissolveGame"
	ActionMakeMove     = "makeMove"
	ActionTick         = "tick"

	// server - client
	MsgReady = "ready"
	MsgError = "error"
)

// Message is the envelope of every frame sent to a client.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// inbound is the envelope of a client frame.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
