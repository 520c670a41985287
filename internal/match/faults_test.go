package match

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tactictoe/internal/domain"
	"tactictoe/internal/ephemeral"
	"tactictoe/internal/game"
	"tactictoe/internal/repository"
)

var errInjected = errors.New("injected failure")

// flakyStore fails the multi-key writes selected by failOn.
type flakyStore struct {
	*ephemeral.MemoryStore

	mu     sync.Mutex
	calls  int
	failOn func(call int, kv map[string]string) bool
}

func (s *flakyStore) SetMany(ctx context.Context, kv map[string]string) error {
	s.mu.Lock()
	s.calls++
	fail := s.failOn != nil && s.failOn(s.calls, kv)
	s.mu.Unlock()
	if fail {
		return errInjected
	}
	return s.MemoryStore.SetMany(ctx, kv)
}

// flakySessions fails selected durable calls and can serve an outdated
// session record, the way a second process that read before a transition
// would see it.
type flakySessions struct {
	*repository.MemorySessionRepository

	mu          sync.Mutex
	recordFails int
	finishFails int
	pointerErr  error
	stale       map[string]*domain.Session
}

func (r *flakySessions) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	st, ok := r.stale[id]
	r.mu.Unlock()
	if ok {
		cp := *st
		return &cp, nil
	}
	return r.MemorySessionRepository.GetSession(ctx, id)
}

func (r *flakySessions) RecordMoves(ctx context.Context, id string, moves ...domain.Move) error {
	r.mu.Lock()
	if r.recordFails > 0 {
		r.recordFails--
		r.mu.Unlock()
		return errInjected
	}
	r.mu.Unlock()
	return r.MemorySessionRepository.RecordMoves(ctx, id, moves...)
}

func (r *flakySessions) FinishSession(ctx context.Context, p domain.FinishParams) (*domain.Session, error) {
	r.mu.Lock()
	if r.finishFails > 0 {
		r.finishFails--
		r.mu.Unlock()
		return nil, errInjected
	}
	r.mu.Unlock()
	return r.MemorySessionRepository.FinishSession(ctx, p)
}

func (r *flakySessions) GetPointer(ctx context.Context, playerID int64) (string, error) {
	r.mu.Lock()
	err := r.pointerErr
	r.mu.Unlock()
	if err != nil {
		return "", err
	}
	return r.MemorySessionRepository.GetPointer(ctx, playerID)
}

func touches(kv map[string]string, key string) bool {
	_, ok := kv[key]
	return ok
}

// waitingCopy is s as it looked before anybody joined.
func waitingCopy(s *domain.Session) *domain.Session {
	cp := *s
	cp.Status = domain.StatusWaiting
	cp.JoinerID = nil
	cp.StartedAt = nil
	cp.MoveCount = 0
	return &cp
}

func (h *harness) moves(t *testing.T, id string) []domain.Move {
	t.Helper()
	mv, err := h.sessions.ListMoves(context.Background(), id)
	require.NoError(t, err)
	return mv
}

func TestFailedTurnWriteDoesNotGrantExtraMove(t *testing.T) {
	h := newHarness(t)
	s := h.started(t)

	store := &flakyStore{MemoryStore: h.store}
	turnKey := ephemeral.Key(s.ID, ephemeral.FieldTurn)
	store.failOn = func(call int, kv map[string]string) bool {
		return call == 1 && touches(kv, turnKey)
	}
	c := h.coordinator(h.sessions, store)
	ctx := context.Background()

	err := c.ApplyMove(ctx, s.ID, p1, 0, 0)
	require.ErrorIs(t, err, ErrInfrastructure)
	l := h.live(t, s.ID)
	assert.Empty(t, l.Board)
	assert.Equal(t, p1, l.Time.Turn)

	require.NoError(t, c.ApplyMove(ctx, s.ID, p1, 1, 0))
	err = c.ApplyMove(ctx, s.ID, p1, 2, 0)
	require.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, "not your turn", PublicMessage(err))

	l = h.live(t, s.ID)
	assert.Equal(t, []domain.Move{{X: 1, Y: 0, PlayerID: p1}}, l.Board)
	assert.Equal(t, p2, l.Time.Turn)
	got, err := c.Session(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MoveCount)
	assert.Equal(t, l.Board, h.moves(t, s.ID))
}

func TestFailedRecordRestoresTurn(t *testing.T) {
	h := newHarness(t)
	s := h.started(t)
	repo := &flakySessions{MemorySessionRepository: h.sessions, recordFails: 1}
	c := h.coordinator(repo, h.store)
	ctx := context.Background()

	err := c.ApplyMove(ctx, s.ID, p1, 0, 0)
	require.ErrorIs(t, err, ErrInfrastructure)
	l := h.live(t, s.ID)
	assert.Empty(t, l.Board)
	assert.Equal(t, p1, l.Time.Turn)
	assert.Empty(t, h.events.named(EventMoveMade))

	require.NoError(t, c.ApplyMove(ctx, s.ID, p1, 0, 0))
	got, err := c.Session(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MoveCount)
	assert.Equal(t, p2, h.live(t, s.ID).Time.Turn)
}

func TestHistoryCatchesUpWhenRestoreFails(t *testing.T) {
	h := newHarness(t)
	s := h.started(t)

	// call 1 commits the move, call 2 is the restore after the failed record
	store := &flakyStore{MemoryStore: h.store}
	store.failOn = func(call int, _ map[string]string) bool { return call == 2 }
	repo := &flakySessions{MemorySessionRepository: h.sessions, recordFails: 1}
	c := h.coordinator(repo, store)
	ctx := context.Background()

	require.ErrorIs(t, c.ApplyMove(ctx, s.ID, p1, 0, 0), ErrInfrastructure)
	assert.Len(t, h.live(t, s.ID).Board, 1)
	assert.Empty(t, h.moves(t, s.ID))

	require.NoError(t, c.ApplyMove(ctx, s.ID, p2, 0, 1))
	assert.Equal(t, []domain.Move{
		{X: 0, Y: 0, PlayerID: p1},
		{X: 0, Y: 1, PlayerID: p2},
	}, h.moves(t, s.ID))
	got, err := c.Session(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MoveCount)
}

func TestWinningMoveRetryAfterFailedFinish(t *testing.T) {
	h := newHarness(t)
	s := h.started(t)
	for i := 0; i < 4; i++ {
		require.NoError(t, h.move(s.ID, p1, i, 0))
		require.NoError(t, h.move(s.ID, p2, i, 5))
	}

	repo := &flakySessions{MemorySessionRepository: h.sessions, finishFails: 1}
	c := h.coordinator(repo, h.store)
	ctx := context.Background()

	require.ErrorIs(t, c.ApplyMove(ctx, s.ID, p1, 4, 0), ErrInfrastructure)
	got, err := c.Session(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStarted, got.Status)
	assert.Equal(t, 8, got.MoveCount)
	assert.Len(t, h.live(t, s.ID).Board, 8)

	require.NoError(t, c.ApplyMove(ctx, s.ID, p1, 4, 0))
	got, err = c.Session(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, got.Status)
	assert.Equal(t, 9, got.MoveCount)
	assert.Len(t, h.moves(t, s.ID), 9)
	assert.Equal(t, 1, h.events.count(EventGameEnded, p1))
}

func TestStaleJoinDoesNotResetRunningMatch(t *testing.T) {
	ledger := &fakeLedger{}
	h := newHarness(t, withLedger(ledger))
	s := h.started(t)
	require.NoError(t, h.move(s.ID, p1, 0, 0))
	before := h.live(t, s.ID)

	repo := &flakySessions{
		MemorySessionRepository: h.sessions,
		stale:                   map[string]*domain.Session{s.ID: waitingCopy(s)},
	}
	other := h.coordinator(repo, h.store)

	h.clock.Advance(time.Second)
	_, err := other.Join(context.Background(), s.ID, p3)
	require.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, "not joinable", PublicMessage(err))

	assert.Equal(t, before, h.live(t, s.ID))
	assert.Empty(t, h.pointer(t, p3))
	assert.Equal(t, []int64{p3}, ledger.refunds)

	require.NoError(t, h.move(s.ID, p2, 1, 1))
}

func TestStaleDissolveLeavesStartedSession(t *testing.T) {
	h := newHarness(t)
	s := h.started(t)
	repo := &flakySessions{
		MemorySessionRepository: h.sessions,
		stale:                   map[string]*domain.Session{s.ID: waitingCopy(s)},
	}
	other := h.coordinator(repo, h.store)

	err := other.Dissolve(context.Background(), s.ID, p1)
	require.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, "cannot dissolve", PublicMessage(err))

	got, err := h.c.Session(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStarted, got.Status)
	assert.Equal(t, s.ID, h.pointer(t, p1))
	assert.Equal(t, p1, h.live(t, s.ID).Time.Turn)
	assert.Empty(t, h.events.named(EventGameDissolved))
}

func TestJoinAcrossInstancesHasOneWinner(t *testing.T) {
	h := newHarness(t)
	s := h.create(t, p1)
	instances := []*Coordinator{h.c, h.coordinator(h.sessions, h.store)}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := instances[i%2].Join(context.Background(), s.ID, int64(1000+i))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			assert.ErrorIs(t, err, ErrPrecondition)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	l := h.live(t, s.ID)
	assert.Empty(t, l.Board)
	assert.Equal(t, p1, l.Time.Turn)
}

func TestDissolveAndJoinAcrossInstances(t *testing.T) {
	for i := 0; i < 50; i++ {
		h := newHarness(t)
		s := h.create(t, p1)
		other := h.coordinator(h.sessions, h.store)
		ctx := context.Background()

		var (
			wg               sync.WaitGroup
			joinErr, dissErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, joinErr = other.Join(ctx, s.ID, p2)
		}()
		go func() {
			defer wg.Done()
			dissErr = h.c.Dissolve(ctx, s.ID, p1)
		}()
		wg.Wait()

		require.True(t, (joinErr == nil) != (dissErr == nil), "join=%v dissolve=%v", joinErr, dissErr)
		if joinErr == nil {
			assert.ErrorIs(t, dissErr, ErrPrecondition)
			assert.Equal(t, p1, h.live(t, s.ID).Time.Turn)
			continue
		}
		// a join that read after the delete sees no session at all
		assert.True(t, errors.Is(joinErr, ErrPrecondition) || errors.Is(joinErr, ErrNotFound), "join=%v", joinErr)
		_, err := h.c.Session(ctx, s.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Empty(t, h.pointer(t, p2))
	}
}

func TestJoinReplacesLeftoverSeed(t *testing.T) {
	h := newHarness(t)
	s := h.create(t, p1)
	ctx := context.Background()

	old := game.NewTimeState(p1, 1, h.clock.Now().UnixMilli())
	require.NoError(t, h.c.initLive(ctx, s.ID, old))
	h.clock.Advance(time.Minute)

	_, err := h.c.Join(ctx, s.ID, p2)
	require.NoError(t, err)
	l := h.live(t, s.ID)
	assert.Equal(t, h.clock.Now().UnixMilli(), l.Time.LastTickMs)
	assert.Equal(t, int64(budget), l.Time.CreatorLeftMs)
}

func TestUnknownPlayerIsNotFound(t *testing.T) {
	h := newHarness(t)
	repo := &flakySessions{MemorySessionRepository: h.sessions, pointerErr: repository.ErrNotFound}
	c := h.coordinator(repo, h.store)
	ctx := context.Background()

	_, err := c.Create(ctx, p1, domain.GameTypeXO, game.Params{})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.CurrentSession(ctx, p1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, c.Disconnect(ctx, p1), ErrNotFound)

	repo.pointerErr = errInjected
	_, err = c.CurrentSession(ctx, p1)
	assert.ErrorIs(t, err, ErrInfrastructure)
}
