package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tactictoe/internal/domain"
	"tactictoe/internal/http/middleware"
	"tactictoe/internal/logger"
	"tactictoe/internal/match"
)

func matchStatus(err error) int {
	switch {
	case errors.Is(err, match.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, match.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, match.ErrPrecondition):
		return http.StatusConflict
	case errors.Is(err, match.ErrInfrastructure):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// GetGame returns the durable record of a session.
func (h *Handler) GetGame(c *gin.Context) {
	s, err := h.Games.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(matchStatus(err), gin.H{"error": match.PublicMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

// ShareMessage prepares the Telegram invitation for the caller's waiting
// session. The session is taken from ?gameId= or the caller's current one.
func (h *Handler) ShareMessage(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	tgID, _ := middleware.TgID(c)
	if h.Invites == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "bot is not configured"})
		return
	}

	ctx := c.Request.Context()
	id := c.Query("gameId")
	if id == "" {
		current, err := h.Games.CurrentSession(ctx, userID)
		if err != nil {
			c.JSON(matchStatus(err), gin.H{"error": match.PublicMessage(err)})
			return
		}
		if current == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active game"})
			return
		}
		id = current
	}

	s, err := h.Games.Session(ctx, id)
	if err != nil {
		c.JSON(matchStatus(err), gin.H{"error": match.PublicMessage(err)})
		return
	}
	if s.CreatorID != userID || s.Status != domain.StatusWaiting {
		c.JSON(http.StatusConflict, gin.H{"error": "game is not open for invitations"})
		return
	}

	inviter := "A friend"
	if u, err := h.Users.GetByID(ctx, userID); err == nil {
		switch {
		case u.Username != "":
			inviter = "@" + u.Username
		case u.FirstName != "":
			inviter = u.FirstName
		}
	}

	msgID, err := h.Invites.PrepareInvitation(tgID, inviter, s)
	if err != nil {
		logger.Error("prepare invitation", "session_id", s.ID, "user_id", userID, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "telegram request failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messageId": msgID})
}
