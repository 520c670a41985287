package repository

import (
	"context"
	"errors"

	"tactictoe/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Начальный баланс для новых пользователей
const InitialGems = 120

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, tg_id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(photo_url, ''),
	gems, current_game, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.TgID,
		&u.Username,
		&u.FirstName,
		&u.PhotoURL,
		&u.Gems,
		&u.CurrentGame,
		&u.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByTgID(ctx context.Context, tgID int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE tg_id = $1`, tgID))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// Create inserts the user, or refreshes the profile fields if the Telegram id
// is already known.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO users (tg_id, username, first_name, photo_url, gems)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (tg_id) DO UPDATE
		   SET username = EXCLUDED.username, first_name = EXCLUDED.first_name, photo_url = EXCLUDED.photo_url
		 RETURNING id, gems, created_at`,
		u.TgID,
		u.Username,
		u.FirstName,
		u.PhotoURL,
		InitialGems,
	).Scan(&u.ID, &u.Gems, &u.CreatedAt)
}
