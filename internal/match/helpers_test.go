package match

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tactictoe/internal/domain"
	"tactictoe/internal/ephemeral"
	"tactictoe/internal/game"
	"tactictoe/internal/repository"
)

const (
	p1 int64 = 101
	p2 int64 = 202
	p3 int64 = 303

	budget = 10000
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) named(name string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) count(name string, target int64) int {
	n := 0
	for _, ev := range r.named(name) {
		if ev.Target == target {
			n++
		}
	}
	return n
}

func (r *recorder) last(name string) Event {
	evs := r.named(name)
	if len(evs) == 0 {
		return Event{}
	}
	return evs[len(evs)-1]
}

type harness struct {
	opts     Options
	c        *Coordinator
	sessions *repository.MemorySessionRepository
	store    *ephemeral.MemoryStore
	events   *recorder
	clock    *fakeClock
}

func newHarness(t *testing.T, opts ...func(*Options)) *harness {
	t.Helper()
	h := &harness{
		sessions: repository.NewMemorySessionRepository(),
		store:    ephemeral.NewMemoryStore(),
		events:   &recorder{},
		clock:    &fakeClock{t: time.UnixMilli(1_700_000_000_000)},
	}
	var seq atomic.Int64
	o := Options{
		DefaultTimeMs: budget,
		Now:           h.clock.Now,
		NewID:         func() string { return fmt.Sprintf("s%d", seq.Add(1)) },
	}
	for _, fn := range opts {
		fn(&o)
	}
	h.opts = o
	h.c = New(h.sessions, h.store, h.events, o)
	return h
}

// coordinator builds another Coordinator over the given stores, sharing the
// harness clock and events. It has its own session locks, like a second
// process would.
func (h *harness) coordinator(sessions SessionStore, state ephemeral.Store) *Coordinator {
	return New(sessions, state, h.events, h.opts)
}

func (h *harness) create(t *testing.T, creator int64) *domain.Session {
	t.Helper()
	s, err := h.c.Create(context.Background(), creator, domain.GameTypeXO, game.Params{})
	require.NoError(t, err)
	return s
}

// started creates a session by p1 and joins it with p2.
func (h *harness) started(t *testing.T) *domain.Session {
	t.Helper()
	s := h.create(t, p1)
	joined, err := h.c.Join(context.Background(), s.ID, p2)
	require.NoError(t, err)
	return joined
}

func (h *harness) move(sessionID string, player int64, x, y int) error {
	return h.c.ApplyMove(context.Background(), sessionID, player, x, y)
}

func (h *harness) live(t *testing.T, sessionID string) live {
	t.Helper()
	l, err := h.c.loadLive(context.Background(), sessionID)
	require.NoError(t, err)
	return l
}

func (h *harness) pointer(t *testing.T, player int64) string {
	t.Helper()
	id, err := h.sessions.GetPointer(context.Background(), player)
	require.NoError(t, err)
	return id
}
