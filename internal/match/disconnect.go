package match

import (
	"context"
	"errors"

	"tactictoe/internal/domain"
	"tactictoe/internal/game"
	"tactictoe/internal/logger"
	"tactictoe/internal/repository"
)

// Disconnect resolves the active session of a player whose last connection
// dropped. A waiting session they created is dissolved; a started one is
// finalized, with timeout taking precedence over opponent_left when the
// settlement proves the turn holder already ran out of time.
func (c *Coordinator) Disconnect(ctx context.Context, playerID int64) error {
	sessionID, err := c.sessions.GetPointer(ctx, playerID)
	if err != nil {
		return c.storeErr(err, "player not found")
	}
	if sessionID == "" {
		return nil
	}

	unlock := c.locks.Lock(sessionID)
	defer unlock()

	s, err := c.sessions.GetSession(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return infra("load session", err)
	}
	if !s.IsParticipant(playerID) {
		return nil
	}

	if s.Status == domain.StatusWaiting && s.CreatorID == playerID {
		err := c.dissolveLocked(ctx, s)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrPrecondition) {
			return err
		}
		// A join won the race: resolve as a started session.
		if s, err = c.sessions.GetSession(ctx, sessionID); err != nil {
			return c.storeErr(err, "game not found")
		}
	}
	if s.Status != domain.StatusStarted {
		return nil
	}

	l, err := c.loadLive(ctx, sessionID)
	if err != nil {
		logger.Error("disconnect: ephemeral state unavailable", "session_id", sessionID, "player", playerID, "err", err)
		return infra("load state", err)
	}
	st := game.Settle(l.Time, s.CreatorID, c.nowMs())
	if st.TimedOut {
		return c.finishTimeout(ctx, s, st)
	}

	winner, _ := s.Opponent(playerID)
	logger.Info("player left", "session_id", sessionID, "player", playerID)
	err = c.finish(ctx, s, &winner, domain.WinReasonOpponentLeft, st.State, nil, unrecorded(s, l.Board))
	if errors.Is(err, errAlreadyFinished) {
		return nil
	}
	return err
}
