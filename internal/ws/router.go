package ws

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"tactictoe/internal/domain"
	"tactictoe/internal/game"
	"tactictoe/internal/logger"
	"tactictoe/internal/match"
)

// Coordinator is the part of match.Coordinator the router drives.
type Coordinator interface {
	Create(ctx context.Context, requester int64, gameType domain.GameType, params game.Params) (*domain.Session, error)
	Join(ctx context.Context, sessionID string, requester int64) (*domain.Session, error)
	Dissolve(ctx context.Context, sessionID string, requester int64) error
	ApplyMove(ctx context.Context, sessionID string, playerID int64, x, y int) error
	Tick(ctx context.Context, sessionID string, playerID int64) error
	Disconnect(ctx context.Context, playerID int64) error
	CurrentSession(ctx context.Context, playerID int64) (string, error)
}

// Limiter counts actions per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string, max int, window time.Duration) bool
}

// Router turns client frames into coordinator calls. Successful actions are
// answered through coordinator events; Handle only returns the error frame
// meant for the acting player.
type Router struct {
	coord       Coordinator
	limiter     Limiter
	actionLimit int
}

func NewRouter(coord Coordinator, limiter Limiter, actionsPerSecond int) *Router {
	return &Router{coord: coord, limiter: limiter, actionLimit: actionsPerSecond}
}

func errorMessage(msg string) *Message {
	return &Message{Type: MsgError, Payload: ErrorPayload{Message: msg}}
}

// Handle dispatches one raw frame on behalf of the identity in ctx.
func (r *Router) Handle(ctx context.Context, raw []byte) *Message {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return errorMessage("unauthorized")
	}

	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return errorMessage("malformed message")
	}

	if r.limiter != nil && r.actionLimit > 0 {
		key := "ws:" + strconv.FormatInt(id.UserID, 10)
		if !r.limiter.Allow(ctx, key, r.actionLimit, time.Second) {
			return errorMessage("too many actions")
		}
	}

	err := r.dispatch(ctx, id.UserID, in)
	if err == nil {
		return nil
	}
	var perr *payloadError
	if errors.As(err, &perr) {
		return errorMessage(perr.msg)
	}
	if errors.Is(err, match.ErrInfrastructure) || !isMatchError(err) {
		logger.Error("ws action failed", "user_id", id.UserID, "type", in.Type, "err", err)
	} else {
		logger.Debug("ws action rejected", "user_id", id.UserID, "type", in.Type, "err", err)
	}
	return errorMessage(match.PublicMessage(err))
}

func isMatchError(err error) bool {
	var me *match.Error
	return errors.As(err, &me)
}

type payloadError struct{ msg string }

func (e *payloadError) Error() string { return e.msg }

func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return &payloadError{"payload required"}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &payloadError{"malformed payload"}
	}
	return nil
}

func (r *Router) dispatch(ctx context.Context, userID int64, in inbound) error {
	switch in.Type {
	case ActionCreateGame:
		var p CreateGamePayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		_, err := r.coord.Create(ctx, userID, p.GameType, game.Params{
			WinLines: p.WinLines, DotSize: p.DotSize, BlotSize: p.BlotSize,
		})
		return err

	case ActionJoinGame:
		var p JoinGamePayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		if p.SessionID == "" {
			return &payloadError{"sessionId required"}
		}
		_, err := r.coord.Join(ctx, p.SessionID, userID)
		return err

	case ActionDissolveGame:
		var p DissolveGamePayload
		if len(in.Payload) > 0 {
			if err := decode(in.Payload, &p); err != nil {
				return err
			}
		}
		if p.SessionID == "" {
			current, err := r.coord.CurrentSession(ctx, userID)
			if err != nil {
				return err
			}
			if current == "" {
				return &payloadError{"no active game"}
			}
			p.SessionID = current
		}
		return r.coord.Dissolve(ctx, p.SessionID, userID)

	case ActionMakeMove:
		var p MovePayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		if p.SessionID == "" || p.X == nil || p.Y == nil {
			return &payloadError{"sessionId, x and y required"}
		}
		return r.coord.ApplyMove(ctx, p.SessionID, userID, *p.X, *p.Y)

	case ActionTick:
		var p TickPayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		return r.coord.Tick(ctx, p.SessionID, userID)
	}
	return &payloadError{"unknown message type"}
}

// Disconnect resolves the session of the player in ctx.
func (r *Router) Disconnect(ctx context.Context) {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return
	}
	if err := r.coord.Disconnect(ctx, id.UserID); err != nil {
		logger.Error("disconnect resolution failed", "user_id", id.UserID, "err", err)
	}
}
