package repository

import (
	"context"
	"sync"
	"time"

	"tactictoe/internal/domain"
)

// MemoryUserRepository keeps users in process memory. The active-session
// pointer is owned by the session repository it is paired with.
type MemoryUserRepository struct {
	mu       sync.Mutex
	seq      int64
	byID     map[int64]*domain.User
	sessions *MemorySessionRepository
}

func NewMemoryUserRepository(sessions *MemorySessionRepository) *MemoryUserRepository {
	return &MemoryUserRepository{byID: make(map[int64]*domain.User), sessions: sessions}
}

func (r *MemoryUserRepository) withPointer(ctx context.Context, u *domain.User) *domain.User {
	c := *u
	if r.sessions != nil {
		if id, err := r.sessions.GetPointer(ctx, u.ID); err == nil && id != "" {
			c.CurrentGame = &id
		}
	}
	return &c
}

func (r *MemoryUserRepository) GetByTgID(ctx context.Context, tgID int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.TgID == tgID {
			return r.withPointer(ctx, u), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.withPointer(ctx, u), nil
}

func (r *MemoryUserRepository) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.TgID == u.TgID {
			existing.Username, existing.FirstName, existing.PhotoURL = u.Username, u.FirstName, u.PhotoURL
			u.ID, u.Gems, u.CreatedAt = existing.ID, existing.Gems, existing.CreatedAt
			return nil
		}
	}
	r.seq++
	u.ID = r.seq
	u.Gems = InitialGems
	u.CreatedAt = time.Now()
	c := *u
	r.byID[u.ID] = &c
	return nil
}
