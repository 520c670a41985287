package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"tactictoe/internal/config"
	"tactictoe/internal/db"
	"tactictoe/internal/ephemeral"
	httpServer "tactictoe/internal/http"
	"tactictoe/internal/http/handlers"
	"tactictoe/internal/http/middleware"
	"tactictoe/internal/logger"
	"tactictoe/internal/match"
	"tactictoe/internal/repository"
	"tactictoe/internal/service"
	"tactictoe/internal/telegram"
	"tactictoe/internal/ws"
)

var version = "dev"

// ephemeralTTL outlives any started game; it only reaps state orphaned by a
// crash between the durable finish and the cleanup.
const ephemeralTTL = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", "err", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := map[string]handlers.Pinger{}

	var (
		sessions match.SessionStore
		users    handlers.UserStore
		ledger   match.Ledger = match.NopLedger{}
	)
	switch cfg.StoreBackend {
	case "memory":
		mem := repository.NewMemorySessionRepository()
		sessions = mem
		users = repository.NewMemoryUserRepository(mem)
		if cfg.GameStake > 0 {
			logger.Warn("GAME_STAKE ignored with the memory store")
		}
	default:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("connect database", "err", err)
		}
		defer pool.Close()
		deps["database"] = pool
		sessions = repository.NewSessionRepository(pool)
		users = repository.NewUserRepository(pool)
		if cfg.GameStake > 0 {
			ledger = service.NewBalanceService(pool, cfg.GameStake)
		}
	}

	var (
		state   ephemeral.Store
		limiter middleware.Limiter
	)
	switch cfg.EphemeralBackend {
	case "memory":
		state = ephemeral.NewMemoryStore()
		limiter = middleware.NewMemoryLimiter()
	default:
		client, err := ephemeral.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal("connect redis", "addr", cfg.RedisAddr, "err", err)
		}
		defer closeRedis(client)
		state = ephemeral.NewRedisStore(client, ephemeralTTL)
		limiter = middleware.NewRedisLimiter(client)
	}
	deps["ephemeral"] = state

	hub := ws.NewHub()
	coord := match.New(sessions, state, hub, match.Options{
		DefaultTimeMs: cfg.DefaultTimeMs,
		Ledger:        ledger,
	})

	tokens := service.NewJWTIssuer(cfg.JWTSecret)
	h := &handlers.Handler{
		Users:    users,
		Games:    coord,
		Tokens:   tokens,
		BotToken: cfg.BotToken,
		DevMode:  cfg.DevMode,
	}
	if cfg.BotToken != "" {
		inviter, err := telegram.NewInviter(cfg.BotToken, cfg.BotUsername)
		if err != nil {
			logger.Warn("telegram bot unavailable, share messages disabled", "err", err)
		} else {
			h.Invites = inviter
		}
	}

	if !cfg.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	httpServer.RegisterRoutes(r, httpServer.Deps{
		Handler:       h,
		Health:        handlers.NewHealthHandler(deps, version),
		Tokens:        tokens,
		Limiter:       limiter,
		Hub:           hub,
		WSRouter:      ws.NewRouter(coord, limiter, cfg.WSActionLimit),
		AllowedOrigin: cfg.AllowedOrigin,
		APIRateLimit:  cfg.APIRateLimit,
		APIRateWindow: cfg.APIRateWindow,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		coord.RunSweep(gctx, cfg.SweepInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "err", err)
		return
	}
	logger.Info("server exited")
}

func closeRedis(c *redis.Client) {
	if err := c.Close(); err != nil {
		logger.Warn("close redis", "err", err)
	}
}
