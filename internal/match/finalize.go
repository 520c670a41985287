package match

import (
	"context"
	"errors"

	"tactictoe/internal/domain"
	"tactictoe/internal/game"
	"tactictoe/internal/logger"
	"tactictoe/internal/repository"
)

// errAlreadyFinished is returned by finish when another actor finalized the
// session first. Callers treat it as a no-op.
var errAlreadyFinished = errors.New("session already finished")

func endErr(err error) error {
	if errors.Is(err, errAlreadyFinished) {
		return precondition("game is not started")
	}
	return err
}

func (c *Coordinator) finishTimeout(ctx context.Context, s *domain.Session, st game.Settlement) error {
	winner, _ := s.Opponent(st.Loser)
	logger.Info("clock expired", "session_id", s.ID, "loser", st.Loser)
	err := c.finish(ctx, s, &winner, domain.WinReasonTimeout, st.State, nil, nil)
	if errors.Is(err, errAlreadyFinished) {
		return nil
	}
	return err
}

// finish commits the outcome durably together with the unrecorded tail of the
// history, then drops the ephemeral state, pays out and notifies both players.
// The caller holds the session lock.
func (c *Coordinator) finish(ctx context.Context, s *domain.Session, winner *int64, reason domain.WinReason, ts game.TimeState, line *game.WinLine, tail []domain.Move) error {
	finished, err := c.sessions.FinishSession(ctx, domain.FinishParams{
		SessionID:         s.ID,
		WinnerID:          winner,
		Reason:            reason,
		EndedAt:           c.now(),
		CreatorTimeLeftMs: ts.CreatorLeftMs,
		JoinerTimeLeftMs:  ts.JoinerLeftMs,
		Moves:             tail,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			logger.Debug("finalize skipped", "session_id", s.ID, "reason", reason)
			return errAlreadyFinished
		}
		return infra("finish session", err)
	}

	if err := c.clearLive(ctx, s.ID); err != nil {
		logger.Warn("clear ephemeral state", "session_id", s.ID, "err", err)
	}
	if err := c.ledger.Payout(ctx, finished); err != nil {
		logger.Error("payout failed", "session_id", s.ID, "err", err)
	}

	SessionsFinished.WithLabelValues(string(reason)).Inc()
	logger.Info("session finished", "session_id", s.ID, "reason", reason, "winner", winner,
		"creator_left_ms", ts.CreatorLeftMs, "joiner_left_ms", ts.JoinerLeftMs)

	c.publishBoth(finished, EventGameEnded, GameEndedPayload{
		Winner:            winner,
		Reason:            reason,
		CreatorTimeLeftMs: ts.CreatorLeftMs,
		JoinerTimeLeftMs:  ts.JoinerLeftMs,
		Line:              line,
	})
	return nil
}
