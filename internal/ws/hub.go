package ws

import (
	"encoding/json"
	"sync"

	"tactictoe/internal/logger"
	"tactictoe/internal/match"
)

// Hub tracks live connections per player and delivers coordinator events.
// A player may hold several connections (e.g. two devices); events go to all.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]struct{})}
}

var _ match.Broadcaster = (*Hub)(nil)

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.id.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.id.UserID] = set
	}
	set[c] = struct{}{}
	logger.Debug("ws client registered", "user_id", c.id.UserID, "connections", len(set))
}

// Unregister drops c and reports whether it was the player's last connection.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.id.UserID]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) > 0 {
		return false
	}
	delete(h.clients, c.id.UserID)
	return true
}

// Connections returns the number of live connections of a player.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish delivers ev to every connection of its target without blocking.
// Players without a connection simply miss the event.
func (h *Hub) Publish(ev match.Event) {
	data, err := json.Marshal(Message{Type: ev.Name, Payload: ev.Payload})
	if err != nil {
		logger.Error("ws marshal event", "type", ev.Name, "err", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[ev.Target]))
	for c := range h.clients[ev.Target] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.trySend(data) {
			logger.Warn("ws event dropped", "user_id", ev.Target, "type", ev.Name)
		}
	}
}
