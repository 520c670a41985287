package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"tactictoe/internal/config"
	"tactictoe/internal/db"
	"tactictoe/internal/domain"
	"tactictoe/internal/logger"
	"tactictoe/internal/repository"
	"tactictoe/internal/service"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Plays a short XO game between two smoke users against a running server:
// the creator builds a vertical five while the joiner answers beside it.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", "err", err)
	}
	logger.Init(cfg.LogLevel, true)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect database", "err", err)
	}
	defer pool.Close()

	users := repository.NewUserRepository(pool)
	issuer := service.NewJWTIssuer(cfg.JWTSecret)

	token := func(tgID int64, name string) string {
		u := &domain.User{TgID: tgID, Username: name, FirstName: name}
		if err := users.Create(ctx, u); err != nil {
			logger.Fatal("create user", "username", name, "err", err)
		}
		t, err := issuer.Generate(u.ID, u.TgID)
		if err != nil {
			logger.Fatal("generate token", "err", err)
		}
		return t
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	dial := func(tok string) *websocket.Conn {
		url := fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", cfg.AppPort, tok)
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			logger.Fatal("dial", "err", err)
		}
		return conn
	}

	connA := dial(token(3001, "smokeA"))
	defer connA.Close()
	connB := dial(token(3002, "smokeB"))
	defer connB.Close()

	send := func(conn *websocket.Conn, typ string, payload any) {
		if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
			logger.Fatal("write", "type", typ, "err", err)
		}
	}
	await := func(conn *websocket.Conn, name, typ string) frame {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				logger.Fatal("read", "player", name, "waiting_for", typ, "err", err)
			}
			logger.Debug("frame", "player", name, "type", f.Type, "payload", string(f.Payload))
			if f.Type == "error" {
				logger.Fatal("server error", "player", name, "payload", string(f.Payload))
			}
			if f.Type == typ {
				return f
			}
		}
	}

	send(connA, "createGame", map[string]any{"gameType": "xo", "winLines": 5})
	created := await(connA, "A", "gameCreated")
	var sp struct {
		Session domain.Session `json:"session"`
	}
	if err := json.Unmarshal(created.Payload, &sp); err != nil {
		logger.Fatal("decode gameCreated", "err", err)
	}
	id := sp.Session.ID
	logger.Info("game created", "session_id", id)

	send(connB, "joinGame", map[string]any{"sessionId": id})
	await(connB, "B", "gameJoined")
	await(connA, "A", "opponentJoined")

	for i := 0; i < 5; i++ {
		send(connA, "makeMove", map[string]any{"sessionId": id, "x": 0, "y": i})
		if i == 4 {
			break
		}
		await(connB, "B", "moveMade")
		send(connB, "makeMove", map[string]any{"sessionId": id, "x": 1, "y": i})
		await(connA, "A", "moveMade")
	}

	ended := await(connB, "B", "gameEnded")
	logger.Info("smoke test finished", "result", string(ended.Payload))
}
