package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"tactictoe/internal/domain"
	"tactictoe/internal/repository"
)

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "migrations")
	files, err := os.ReadDir(migDir)
	require.NoError(t, err)
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		require.NoError(t, err)
		_, err = db.Exec(context.Background(), string(b))
		require.NoError(t, err, "apply migration %s", f.Name())
	}
}

func openDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	db, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	applyMigrations(t, db)
	return db
}

// freshUser creates a player with a unique Telegram id so reruns never
// collide with sessions left by earlier runs.
func freshUser(t *testing.T, users *repository.UserRepository, name string) *domain.User {
	t.Helper()
	u := &domain.User{TgID: time.Now().UnixNano(), Username: name, FirstName: name}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func gems(t *testing.T, users *repository.UserRepository, id int64) int64 {
	t.Helper()
	u, err := users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u.Gems
}
