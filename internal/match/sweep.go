package match

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"tactictoe/internal/domain"
	"tactictoe/internal/logger"
)

// DefaultSweepInterval is the period of the time-control sweep.
const DefaultSweepInterval = 2 * time.Second

const sweepConcurrency = 16

// RunSweep settles every started session once per interval until ctx is
// done.
func (c *Coordinator) RunSweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("sweep started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweep stopped")
			return
		case <-ticker.C:
			if err := c.Sweep(ctx); err != nil {
				logger.Error("sweep failed", "err", err)
			}
		}
	}
}

// Sweep runs one pass over the started sessions. Per-session failures are
// logged and do not stop the pass.
func (c *Coordinator) Sweep(ctx context.Context) error {
	start := time.Now()
	defer func() { SweepDuration.Observe(time.Since(start).Seconds()) }()

	started, err := c.sessions.ListStarted(ctx)
	if err != nil {
		return infra("list started", err)
	}
	ActiveSessions.Set(float64(len(started)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for _, s := range started {
		id := s.ID
		g.Go(func() error {
			c.sweepSession(gctx, id)
			return nil
		})
	}
	return g.Wait()
}

func (c *Coordinator) sweepSession(ctx context.Context, id string) {
	unlock := c.locks.Lock(id)
	defer unlock()

	s, err := c.sessions.GetSession(ctx, id)
	if err != nil {
		logger.Warn("sweep: load session", "session_id", id, "err", err)
		return
	}
	if s.Status != domain.StatusStarted {
		return
	}
	if _, err := c.settleLocked(ctx, s); err != nil {
		if errors.Is(err, errStateMissing) {
			logger.Warn("sweep: ephemeral state missing", "session_id", id)
			return
		}
		logger.Error("sweep: settle", "session_id", id, "err", err)
	}
}
