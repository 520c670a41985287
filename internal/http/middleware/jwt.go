package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "user_id"
	ctxTgID   = "tg_id"
)

// TokenParser verifies a bearer token.
type TokenParser interface {
	Parse(token string) (userID, tgID int64, err error)
}

// JWT requires "Authorization: Bearer <token>" and stores the ids in the
// gin context.
func JWT(p TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}
		userID, tgID, err := p.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxUserID, userID)
		c.Set(ctxTgID, tgID)
		c.Next()
	}
}

// UserID returns the id set by JWT.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// TgID returns the Telegram id set by JWT.
func TgID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxTgID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
