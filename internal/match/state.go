package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"tactictoe/internal/domain"
	"tactictoe/internal/ephemeral"
	"tactictoe/internal/game"
	"tactictoe/internal/repository"
)

func newSessionID() string {
	return uuid.NewString()
}

// live is the ephemeral part of a started session. Cells indexes Board.
type live struct {
	Time  game.TimeState
	Board []domain.Move
	Cells game.Board
}

func (c *Coordinator) loadLive(ctx context.Context, id string) (live, error) {
	var l live
	ints := []struct {
		field string
		dst   *int64
	}{
		{ephemeral.FieldTurn, &l.Time.Turn},
		{ephemeral.FieldLastTick, &l.Time.LastTickMs},
		{ephemeral.FieldCreatorLeft, &l.Time.CreatorLeftMs},
		{ephemeral.FieldJoinerLeft, &l.Time.JoinerLeftMs},
	}
	for _, f := range ints {
		raw, err := c.state.Get(ctx, ephemeral.Key(id, f.field))
		if err != nil {
			return live{}, stateErr(f.field, err)
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return live{}, fmt.Errorf("parse %s: %w", f.field, err)
		}
		*f.dst = v
	}

	raw, err := c.state.Get(ctx, ephemeral.Key(id, ephemeral.FieldBoard))
	if err != nil {
		return live{}, stateErr(ephemeral.FieldBoard, err)
	}
	if err := json.Unmarshal([]byte(raw), &l.Board); err != nil {
		return live{}, fmt.Errorf("parse board: %w", err)
	}
	l.Cells = game.BoardOf(l.Board)
	return l, nil
}

func stateErr(field string, err error) error {
	if errors.Is(err, ephemeral.ErrNil) {
		return fmt.Errorf("%s: %w", field, errStateMissing)
	}
	return fmt.Errorf("get %s: %w", field, err)
}

func clockFields(id string, ts game.TimeState) map[string]string {
	return map[string]string{
		ephemeral.Key(id, ephemeral.FieldTurn):        strconv.FormatInt(ts.Turn, 10),
		ephemeral.Key(id, ephemeral.FieldLastTick):    strconv.FormatInt(ts.LastTickMs, 10),
		ephemeral.Key(id, ephemeral.FieldCreatorLeft): strconv.FormatInt(ts.CreatorLeftMs, 10),
		ephemeral.Key(id, ephemeral.FieldJoinerLeft):  strconv.FormatInt(ts.JoinerLeftMs, 10),
	}
}

func liveFields(id string, board []domain.Move, ts game.TimeState) (map[string]string, error) {
	if board == nil {
		board = []domain.Move{}
	}
	b, err := json.Marshal(board)
	if err != nil {
		return nil, err
	}
	kv := clockFields(id, ts)
	kv[ephemeral.Key(id, ephemeral.FieldBoard)] = string(b)
	return kv, nil
}

// saveClock writes the four clock fields atomically.
func (c *Coordinator) saveClock(ctx context.Context, id string, ts game.TimeState) error {
	if err := c.state.SetMany(ctx, clockFields(id, ts)); err != nil {
		return fmt.Errorf("set clock: %w", err)
	}
	return nil
}

// saveLive writes board and clock in one atomic step, so a reader sees either
// the previous turn or the next one.
func (c *Coordinator) saveLive(ctx context.Context, id string, board []domain.Move, ts game.TimeState) error {
	kv, err := liveFields(id, board, ts)
	if err != nil {
		return err
	}
	if err := c.state.SetMany(ctx, kv); err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

// initLive seeds the state of a session about to start without touching
// fields that already exist.
func (c *Coordinator) initLive(ctx context.Context, id string, ts game.TimeState) error {
	kv, err := liveFields(id, nil, ts)
	if err != nil {
		return err
	}
	if err := c.state.SetManyNX(ctx, kv); err != nil {
		return fmt.Errorf("init state: %w", err)
	}
	return nil
}

// unrecorded returns the suffix of board missing from the durable history.
func unrecorded(s *domain.Session, board []domain.Move) []domain.Move {
	if s.MoveCount >= len(board) {
		return nil
	}
	return board[s.MoveCount:]
}

func (c *Coordinator) clearLive(ctx context.Context, id string) error {
	return c.state.Del(ctx, ephemeral.SessionKeys(id)...)
}

// storeErr maps durable store errors; msg is used for the not-found and
// conflict cases.
func (c *Coordinator) storeErr(err error, msg string) *Error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFound(msg)
	case errors.Is(err, repository.ErrConflict):
		return precondition(msg)
	case errors.Is(err, repository.ErrAlreadyInSession):
		return precondition("already in a game")
	}
	return infra("durable store", err)
}
