package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tactictoe/internal/domain"
	"tactictoe/internal/logger"
	"tactictoe/internal/service"
)

const maxInitDataLen = 4096

type AuthRequest struct {
	InitData string `json:"init_data"`
}

// Auth exchanges Telegram Mini App init data for a session token.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if len(req.InitData) > maxInitDataLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data too long"})
		return
	}

	var tgUser *service.TelegramUser
	if h.DevMode {
		if u, ok := service.ParseDevInitData(req.InitData); ok {
			tgUser = u
		}
	}
	if tgUser == nil {
		u, err := service.ValidateTelegramInitData(req.InitData, h.BotToken, time.Now())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or stale telegram data"})
			return
		}
		tgUser = u
	}

	user := &domain.User{
		TgID:      tgUser.ID,
		Username:  tgUser.Username,
		FirstName: tgUser.FirstName,
		PhotoURL:  tgUser.PhotoURL,
	}
	ctx := c.Request.Context()
	if err := h.Users.Create(ctx, user); err != nil {
		logger.Error("auth: upsert user", "tg_id", tgUser.ID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	token, err := h.Tokens.Generate(user.ID, user.TgID)
	if err != nil {
		logger.Error("auth: generate token", "user_id", user.ID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	// current_game comes from the read path
	if fresh, err := h.Users.GetByID(ctx, user.ID); err == nil {
		user = fresh
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userJSON(user),
	})
}
