package match

import (
	"context"
	"errors"

	"tactictoe/internal/domain"
	"tactictoe/internal/game"
	"tactictoe/internal/logger"
	"tactictoe/internal/repository"
)

// Create opens a waiting session owned by requester. No ephemeral state
// exists until somebody joins.
func (c *Coordinator) Create(ctx context.Context, requester int64, gameType domain.GameType, params game.Params) (*domain.Session, error) {
	rules, err := game.NewRules(gameType, params)
	if err != nil {
		return nil, validation(err.Error(), err)
	}

	current, err := c.sessions.GetPointer(ctx, requester)
	if err != nil {
		return nil, c.storeErr(err, "player not found")
	}
	if current != "" {
		return nil, precondition("already in a game")
	}

	s := &domain.Session{ID: c.newID(), GameType: gameType, CreatorID: requester}
	rules.Apply(s)

	unlock := c.locks.Lock(s.ID)
	defer unlock()

	if err := c.stake(ctx, s.ID, requester); err != nil {
		return nil, err
	}
	if err := c.sessions.CreateSession(ctx, s); err != nil {
		c.refund(ctx, s.ID, requester)
		return nil, c.storeErr(err, "cannot create game")
	}

	SessionsCreated.Inc()
	logger.Info("session created", "session_id", s.ID, "creator", requester, "game_type", gameType)
	c.publish(EventGameCreated, requester, SessionPayload{Session: s})
	return s, nil
}

// Join seats requester as the second player and starts both clocks.
func (c *Coordinator) Join(ctx context.Context, sessionID string, requester int64) (*domain.Session, error) {
	unlock := c.locks.Lock(sessionID)
	defer unlock()

	s, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, c.storeErr(err, "game not found")
	}
	switch {
	case s.CreatorID == requester:
		return nil, precondition("cannot join your own game")
	case s.Status != domain.StatusWaiting || s.JoinerID != nil:
		return nil, precondition("not joinable")
	}

	current, err := c.sessions.GetPointer(ctx, requester)
	if err != nil {
		return nil, c.storeErr(err, "player not found")
	}
	if current != "" {
		return nil, precondition("already in a game")
	}

	if err := c.stake(ctx, sessionID, requester); err != nil {
		return nil, err
	}

	// A started session must never exist without its state, so the fields are
	// seeded before the durable transition. They are only written where
	// missing: a joiner holding a stale read cannot reset a running match.
	now := c.now()
	ts := game.NewTimeState(s.CreatorID, c.defaultTimeMs, now.UnixMilli())
	if err := c.initLive(ctx, sessionID, ts); err != nil {
		c.refund(ctx, sessionID, requester)
		return nil, infra("init state", err)
	}

	joined, err := c.sessions.JoinSession(ctx, sessionID, requester, now)
	if err != nil {
		c.refund(ctx, sessionID, requester)
		if errors.Is(err, repository.ErrConflict) {
			logger.Info("join lost race", "session_id", sessionID, "player", requester)
			return nil, precondition("not joinable")
		}
		return nil, c.storeErr(err, "not joinable")
	}
	// Only the winner of the transition gets here; seeds left by an earlier
	// failed attempt are replaced so the clock starts now.
	if err := c.saveLive(ctx, sessionID, nil, ts); err != nil {
		logger.Warn("reset state after join", "session_id", sessionID, "err", err)
	}

	logger.Info("session started", "session_id", sessionID, "creator", joined.CreatorID, "joiner", requester)
	c.publish(EventGameJoined, requester, SessionPayload{Session: joined})
	c.publish(EventOpponentJoined, joined.CreatorID, SessionPayload{Session: joined})
	c.publishTimeSync(joined, ts, now.UnixMilli())
	return joined, nil
}

// Dissolve deletes a waiting session on behalf of its creator. A join that
// already won the race turns this into a rejected no-op.
func (c *Coordinator) Dissolve(ctx context.Context, sessionID string, requester int64) error {
	unlock := c.locks.Lock(sessionID)
	defer unlock()

	s, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return c.storeErr(err, "game not found")
	}
	if s.Status != domain.StatusWaiting || s.CreatorID != requester {
		return precondition("cannot dissolve")
	}
	if err := c.dissolveLocked(ctx, s); err != nil {
		return err
	}
	c.publish(EventGameDissolved, requester, DissolvedPayload{SessionID: sessionID})
	return nil
}

func (c *Coordinator) dissolveLocked(ctx context.Context, s *domain.Session) error {
	if err := c.sessions.DeleteWaiting(ctx, s.ID, s.CreatorID); err != nil {
		return c.storeErr(err, "cannot dissolve")
	}
	if err := c.clearLive(ctx, s.ID); err != nil {
		logger.Warn("clear ephemeral state", "session_id", s.ID, "err", err)
	}
	c.refund(ctx, s.ID, s.CreatorID)
	logger.Info("session dissolved", "session_id", s.ID, "creator", s.CreatorID)
	return nil
}

func (c *Coordinator) stake(ctx context.Context, sessionID string, playerID int64) error {
	if err := c.ledger.Stake(ctx, sessionID, playerID); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return precondition("insufficient funds")
		}
		return infra("stake", err)
	}
	return nil
}

func (c *Coordinator) refund(ctx context.Context, sessionID string, playerID int64) {
	if err := c.ledger.Refund(ctx, sessionID, playerID); err != nil {
		logger.Error("refund failed", "session_id", sessionID, "player", playerID, "err", err)
	}
}
