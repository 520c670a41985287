package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"tactictoe/internal/config"
	"tactictoe/internal/db"
	"tactictoe/internal/logger"
)

func main() {
	apply := flag.Bool("apply", false, "apply migrations instead of listing them")
	dir := flag.String("dir", filepath.Join("internal", "migrations"), "migrations directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", "err", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	files, err := os.ReadDir(*dir)
	if err != nil {
		logger.Fatal("read migrations dir", "dir", *dir, "err", err)
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		if !f.IsDir() && filepath.Ext(f.Name()) == ".sql" {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)

	if !*apply {
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect database", "err", err)
	}
	defer pool.Close()

	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(*dir, name))
		if err != nil {
			logger.Fatal("read migration", "file", name, "err", err)
		}
		if _, err := pool.Exec(ctx, string(b)); err != nil {
			logger.Fatal("apply migration", "file", name, "err", err)
		}
		logger.Info("migration applied", "file", name)
	}
}
