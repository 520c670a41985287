// Package ephemeral holds the fast key/value store used for per-session
// fields that only live while a match is running.
package ephemeral

import (
	"context"
	"errors"
)

// ErrNil is returned by Get when the key does not exist.
var ErrNil = errors.New("ephemeral: key not found")

// Store is a plain string key/value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// SetMany writes all pairs in one atomic step.
	SetMany(ctx context.Context, kv map[string]string) error
	// SetManyNX atomically writes the pairs whose keys do not exist yet.
	SetManyNX(ctx context.Context, kv map[string]string) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// Per-session field names.
const (
	FieldTurn        = "turn"
	FieldBoard       = "board"
	FieldLastTick    = "lastTick"
	FieldCreatorLeft = "creatorLeft"
	FieldJoinerLeft  = "joinerLeft"
)

// SessionFields lists every field kept for a started session.
var SessionFields = []string{FieldTurn, FieldBoard, FieldLastTick, FieldCreatorLeft, FieldJoinerLeft}

// Key builds the store key of a session field.
func Key(sessionID, field string) string {
	return "game:" + sessionID + ":" + field
}

// SessionKeys returns all keys of a session.
func SessionKeys(sessionID string) []string {
	keys := make([]string, 0, len(SessionFields))
	for _, f := range SessionFields {
		keys = append(keys, Key(sessionID, f))
	}
	return keys
}
