// Package match coordinates two-player sessions: lifecycle, move
// arbitration, time control and disconnect resolution.
//
// Every mutation of a session runs under a lock keyed by the session id.
// Durable transitions are conditional writes, so races between actors
// resolve to a single winner.
package match

import (
	"context"
	"time"

	"tactictoe/internal/domain"
	"tactictoe/internal/ephemeral"
)

// SessionStore is the durable record store.
type SessionStore interface {
	CreateSession(ctx context.Context, s *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	ListStarted(ctx context.Context) ([]*domain.Session, error)
	JoinSession(ctx context.Context, id string, joinerID int64, startedAt time.Time) (*domain.Session, error)
	DeleteWaiting(ctx context.Context, id string, creatorID int64) error
	RecordMoves(ctx context.Context, id string, moves ...domain.Move) error
	FinishSession(ctx context.Context, p domain.FinishParams) (*domain.Session, error)
	GetPointer(ctx context.Context, playerID int64) (string, error)
}

// Options tune a Coordinator. Zero values fall back to defaults.
type Options struct {
	DefaultTimeMs int64
	Ledger        Ledger
	Now           func() time.Time
	NewID         func() string
}

const DefaultTimeMs = 180000

type Coordinator struct {
	sessions SessionStore
	state    ephemeral.Store
	events   Broadcaster
	ledger   Ledger
	locks    *keyedMutex

	defaultTimeMs int64
	now           func() time.Time
	newID         func() string
}

func New(sessions SessionStore, state ephemeral.Store, events Broadcaster, opts Options) *Coordinator {
	c := &Coordinator{
		sessions:      sessions,
		state:         state,
		events:        events,
		ledger:        opts.Ledger,
		locks:         newKeyedMutex(),
		defaultTimeMs: opts.DefaultTimeMs,
		now:           opts.Now,
		newID:         opts.NewID,
	}
	if c.ledger == nil {
		c.ledger = NopLedger{}
	}
	if c.defaultTimeMs <= 0 {
		c.defaultTimeMs = DefaultTimeMs
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = newSessionID
	}
	return c
}

func (c *Coordinator) nowMs() int64 {
	return c.now().UnixMilli()
}

// Session returns the durable record of a session.
func (c *Coordinator) Session(ctx context.Context, id string) (*domain.Session, error) {
	s, err := c.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, c.storeErr(err, "game not found")
	}
	return s, nil
}

// CurrentSession returns the id referenced by the player's pointer, or "".
func (c *Coordinator) CurrentSession(ctx context.Context, playerID int64) (string, error) {
	id, err := c.sessions.GetPointer(ctx, playerID)
	if err != nil {
		return "", c.storeErr(err, "player not found")
	}
	return id, nil
}
