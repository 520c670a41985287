package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"tactictoe/internal/logger"
)

// TokenParser resolves a session token to the player's ids.
type TokenParser interface {
	Parse(token string) (userID, tgID int64, err error)
}

// HandleWS authenticates the handshake with the token query parameter and
// serves the connection. An empty allowedOrigin accepts any origin.
func HandleWS(parser TokenParser, hub *Hub, router *Router, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		userID, tgID, err := parser.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade error", "user_id", userID, "err", err)
			return
		}

		// the connection outlives the handshake request
		ctx := WithIdentity(context.WithoutCancel(c.Request.Context()), Identity{UserID: userID, TgID: tgID})
		go NewClient(ctx, conn, hub, router).Run()
	}
}
