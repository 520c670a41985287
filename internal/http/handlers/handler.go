package handlers

import (
	"context"

	"tactictoe/internal/domain"
)

// UserStore is the user lookup the handlers need.
type UserStore interface {
	GetByTgID(ctx context.Context, tgID int64) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

// Games reads session state from the coordinator.
type Games interface {
	Session(ctx context.Context, id string) (*domain.Session, error)
	CurrentSession(ctx context.Context, playerID int64) (string, error)
}

type TokenIssuer interface {
	Generate(userID, tgID int64) (string, error)
}

// Invitations prepares the Telegram share message of a session.
type Invitations interface {
	PrepareInvitation(tgUserID int64, inviter string, s *domain.Session) (string, error)
}

type Handler struct {
	Users    UserStore
	Games    Games
	Tokens   TokenIssuer
	Invites  Invitations
	BotToken string
	DevMode  bool
}

func userJSON(u *domain.User) map[string]any {
	return map[string]any{
		"id":           u.ID,
		"tg_id":        u.TgID,
		"username":     u.Username,
		"first_name":   u.FirstName,
		"photo_url":    u.PhotoURL,
		"gems":         u.Gems,
		"current_game": u.CurrentGame,
	}
}
