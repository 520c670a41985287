package middleware

import (
	"context"
	"sync"
	"time"
)

type clientInfo struct {
	start time.Time
	count int
}

// MemoryLimiter is the in-process Limiter used without Redis.
type MemoryLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{clients: make(map[string]*clientInfo), now: time.Now}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, max int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	ci, ok := l.clients[key]
	if !ok || now.Sub(ci.start) > window {
		l.clients[key] = &clientInfo{start: now, count: 1}
		return true
	}
	ci.count++
	return ci.count <= max
}
