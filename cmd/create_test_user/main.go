package main

import (
	"context"
	"flag"
	"fmt"

	"tactictoe/internal/config"
	"tactictoe/internal/db"
	"tactictoe/internal/domain"
	"tactictoe/internal/logger"
	"tactictoe/internal/repository"
	"tactictoe/internal/service"
)

// Creates (or refreshes) a player and prints a session token for it.
func main() {
	tgID := flag.Int64("tg", 1234567890, "telegram user id")
	username := flag.String("username", "testuser", "telegram username")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", "err", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect database", "err", err)
	}
	defer pool.Close()

	repo := repository.NewUserRepository(pool)
	u := &domain.User{TgID: *tgID, Username: *username, FirstName: "Tester"}
	if err := repo.Create(ctx, u); err != nil {
		logger.Fatal("create user", "err", err)
	}
	logger.Info("user ready", "id", u.ID, "tg_id", u.TgID, "gems", u.Gems)

	token, err := service.NewJWTIssuer(cfg.JWTSecret).Generate(u.ID, u.TgID)
	if err != nil {
		logger.Fatal("generate token", "err", err)
	}
	fmt.Println(token)
}
