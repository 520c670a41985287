package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"tactictoe/internal/domain"
)

// MemorySessionRepository mirrors SessionRepository's conditional semantics in
// process memory. Used with STORE_BACKEND=memory and in tests.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	moves    map[string][]domain.Move
	pointers map[int64]string
	now      func() time.Time
	err      error
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]*domain.Session),
		moves:    make(map[string][]domain.Move),
		pointers: make(map[int64]string),
		now:      time.Now,
	}
}

// FailWith makes every following call return err (nil restores service).
func (r *MemorySessionRepository) FailWith(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func clone(s *domain.Session) *domain.Session {
	c := *s
	return &c
}

func (r *MemorySessionRepository) CreateSession(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.pointers[s.CreatorID] != "" {
		return ErrAlreadyInSession
	}

	s.Status = domain.StatusWaiting
	s.CreatedAt = r.now()
	r.sessions[s.ID] = clone(s)
	r.pointers[s.CreatorID] = s.ID
	return nil
}

func (r *MemorySessionRepository) GetSession(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

func (r *MemorySessionRepository) ListStarted(_ context.Context) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var res []*domain.Session
	for _, s := range r.sessions {
		if s.Status == domain.StatusStarted {
			res = append(res, clone(s))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *MemorySessionRepository) JoinSession(_ context.Context, id string, joinerID int64, startedAt time.Time) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	s, ok := r.sessions[id]
	if !ok || s.Status != domain.StatusWaiting || s.JoinerID != nil || s.CreatorID == joinerID {
		return nil, ErrConflict
	}
	if r.pointers[joinerID] != "" {
		return nil, ErrAlreadyInSession
	}

	j := joinerID
	at := startedAt
	s.JoinerID = &j
	s.Status = domain.StatusStarted
	s.StartedAt = &at
	r.pointers[joinerID] = id
	return clone(s), nil
}

func (r *MemorySessionRepository) DeleteWaiting(_ context.Context, id string, creatorID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	s, ok := r.sessions[id]
	if !ok || s.Status != domain.StatusWaiting || s.CreatorID != creatorID || s.JoinerID != nil {
		return ErrConflict
	}
	delete(r.sessions, id)
	if r.pointers[creatorID] == id {
		delete(r.pointers, creatorID)
	}
	return nil
}

func (r *MemorySessionRepository) RecordMoves(_ context.Context, id string, moves ...domain.Move) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	return r.appendMoves(id, moves)
}

func (r *MemorySessionRepository) appendMoves(id string, moves []domain.Move) error {
	s, ok := r.sessions[id]
	if !ok || s.Status != domain.StatusStarted {
		return ErrConflict
	}
	s.MoveCount += len(moves)
	r.moves[id] = append(r.moves[id], moves...)
	return nil
}

func (r *MemorySessionRepository) ListMoves(_ context.Context, id string) ([]domain.Move, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return append([]domain.Move{}, r.moves[id]...), nil
}

func (r *MemorySessionRepository) FinishSession(_ context.Context, p domain.FinishParams) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if err := r.appendMoves(p.SessionID, p.Moves); err != nil {
		return nil, err
	}
	s := r.sessions[p.SessionID]

	reason := p.Reason
	ended := p.EndedAt
	creatorLeft, joinerLeft := p.CreatorTimeLeftMs, p.JoinerTimeLeftMs
	s.Status = domain.StatusFinished
	s.WinnerID = p.WinnerID
	s.WinReason = &reason
	s.EndedAt = &ended
	s.CreatorTimeLeftMs = &creatorLeft
	s.JoinerTimeLeftMs = &joinerLeft

	for _, pid := range s.Players() {
		if r.pointers[pid] == p.SessionID {
			delete(r.pointers, pid)
		}
	}
	return clone(s), nil
}

func (r *MemorySessionRepository) GetPointer(_ context.Context, playerID int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	return r.pointers[playerID], nil
}
