package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tactictoe/internal/http/handlers"
	"tactictoe/internal/http/middleware"
	"tactictoe/internal/ws"
)

// authRateLimit caps login attempts per IP and minute.
const authRateLimit = 5

// Deps carries everything the router needs.
type Deps struct {
	Handler       *handlers.Handler
	Health        *handlers.HealthHandler
	Tokens        middleware.TokenParser
	Limiter       middleware.Limiter
	Hub           *ws.Hub
	WSRouter      *ws.Router
	AllowedOrigin string
	APIRateLimit  int
	APIRateWindow time.Duration
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middleware.CORS(d.AllowedOrigin), middleware.Metrics())

	// Health checks (no rate limiting)
	r.GET("/health", d.Health.Health)
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.RateLimit(d.Limiter, d.APIRateLimit, d.APIRateWindow))
	registerAPIRoutes(api, d)

	r.GET("/ws", ws.HandleWS(d.Tokens, d.Hub, d.WSRouter, d.AllowedOrigin))
}

func registerAPIRoutes(api *gin.RouterGroup, d Deps) {
	h := d.Handler
	auth := middleware.JWT(d.Tokens)

	api.POST("/auth", middleware.ScopedRateLimit(d.Limiter, "auth", authRateLimit, time.Minute), h.Auth)
	api.GET("/me", auth, h.Me)

	games := api.Group("/games", auth, middleware.UserRateLimit(d.Limiter, d.APIRateLimit, d.APIRateWindow))
	{
		games.GET("/share-message", h.ShareMessage)
		games.GET("/:id", h.GetGame)
	}
}
