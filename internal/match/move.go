package match

import (
	"context"
	"errors"

	"tactictoe/internal/domain"
	"tactictoe/internal/game"
	"tactictoe/internal/logger"
	"tactictoe/internal/repository"
)

// ApplyMove places playerID's mark at (x, y). The clock is settled before any
// check; a timeout found here ends the session instead of accepting the move.
func (c *Coordinator) ApplyMove(ctx context.Context, sessionID string, playerID int64, x, y int) error {
	unlock := c.locks.Lock(sessionID)
	defer unlock()

	s, err := c.startedSession(ctx, sessionID, playerID)
	if err != nil {
		return err
	}
	rules := game.RulesOf(s)
	if err := rules.CheckCoord(x, y); err != nil {
		return validation(err.Error(), err)
	}

	l, err := c.loadLive(ctx, sessionID)
	if err != nil {
		return infra("load state", err)
	}

	nowMs := c.nowMs()
	st := game.Settle(l.Time, s.CreatorID, nowMs)
	if st.TimedOut {
		if err := c.finishTimeout(ctx, s, st); err != nil {
			return err
		}
		if st.Loser == playerID {
			return precondition("time is over")
		}
		return nil
	}

	if st.State.Turn != playerID {
		return precondition("not your turn")
	}
	at := game.Point{X: x, Y: y}
	if l.Cells.Occupied(at) {
		return precondition("cell is occupied")
	}

	mv := domain.Move{X: x, Y: y, PlayerID: playerID}
	board := append(l.Board, mv)
	l.Cells[at] = playerID

	if line, won := game.CheckWin(l.Cells, at, rules.RunLength); won {
		logger.Info("winning move", "session_id", sessionID, "player", playerID, "x", x, "y", y)
		winner := playerID
		return c.finishMove(ctx, s, &winner, domain.WinReasonFair, st.State, line, board)
	}
	if rules.Bounded() && len(board) >= rules.Cells() {
		logger.Info("board exhausted", "session_id", sessionID, "moves", len(board))
		return c.finishMove(ctx, s, nil, domain.WinReasonDraw, st.State, nil, board)
	}

	opponent, _ := s.Opponent(playerID)
	next := st.State.Pass(opponent, nowMs)
	if err := c.saveLive(ctx, sessionID, board, next); err != nil {
		return infra("save state", err)
	}
	// The history may lag the board after an earlier failed write; the
	// missing suffix goes in with this move.
	if err := c.sessions.RecordMoves(ctx, sessionID, unrecorded(s, board)...); err != nil {
		if rerr := c.saveLive(ctx, sessionID, l.Board, st.State); rerr != nil {
			logger.Error("restore state after failed record", "session_id", sessionID, "err", rerr)
		}
		if errors.Is(err, repository.ErrConflict) {
			return precondition("game is not started")
		}
		return c.storeErr(err, "record move")
	}
	MovesAccepted.Inc()

	c.publishBoth(s, EventMoveMade, MoveMadePayload{X: x, Y: y, PlayerID: playerID})
	c.publishTimeSync(s, next, nowMs)
	return nil
}

// finishMove ends the session on the move that completed board. The move and
// any history the durable record is missing are committed with the outcome.
func (c *Coordinator) finishMove(ctx context.Context, s *domain.Session, winner *int64, reason domain.WinReason, ts game.TimeState, line *game.WinLine, board []domain.Move) error {
	if err := c.finish(ctx, s, winner, reason, ts, line, unrecorded(s, board)); err != nil {
		return endErr(err)
	}
	MovesAccepted.Inc()
	return nil
}

// Tick settles the clock on demand and answers with a timeSync.
func (c *Coordinator) Tick(ctx context.Context, sessionID string, playerID int64) error {
	unlock := c.locks.Lock(sessionID)
	defer unlock()

	s, err := c.startedSession(ctx, sessionID, playerID)
	if err != nil {
		return err
	}
	_, err = c.settleLocked(ctx, s)
	return err
}

// settleLocked charges elapsed time, then either finalizes on timeout or
// persists the clock and broadcasts a timeSync. It reports whether the
// session ended.
func (c *Coordinator) settleLocked(ctx context.Context, s *domain.Session) (bool, error) {
	l, err := c.loadLive(ctx, s.ID)
	if err != nil {
		return false, infra("load state", err)
	}
	nowMs := c.nowMs()
	st := game.Settle(l.Time, s.CreatorID, nowMs)
	if st.TimedOut {
		return true, c.finishTimeout(ctx, s, st)
	}
	if err := c.saveClock(ctx, s.ID, st.State); err != nil {
		return false, infra("save clock", err)
	}
	c.publishTimeSync(s, st.State, nowMs)
	return false, nil
}

func (c *Coordinator) startedSession(ctx context.Context, sessionID string, playerID int64) (*domain.Session, error) {
	s, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, c.storeErr(err, "game not found")
	}
	if !s.IsParticipant(playerID) {
		return nil, precondition("not a participant")
	}
	if s.Status != domain.StatusStarted {
		return nil, precondition("game is not started")
	}
	return s, nil
}
