package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tactictoe/internal/http/middleware"
	"tactictoe/internal/repository"
)

func (h *Handler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	user, err := h.Users.GetByID(c.Request.Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, userJSON(user))
}
