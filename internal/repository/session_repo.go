package repository

import (
	"context"
	"errors"
	"time"

	"tactictoe/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, game_type, status, creator_id, joiner_id, win_lines, dot_size, blot_size,
	winner_id, win_reason, created_at, started_at, ended_at, move_count,
	creator_time_left_ms, joiner_time_left_ms`

func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	if err := row.Scan(
		&s.ID, &s.GameType, &s.Status, &s.CreatorID, &s.JoinerID,
		&s.WinLines, &s.DotSize, &s.BlotSize,
		&s.WinnerID, &s.WinReason, &s.CreatedAt, &s.StartedAt, &s.EndedAt, &s.MoveCount,
		&s.CreatorTimeLeftMs, &s.JoinerTimeLeftMs,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// CreateSession inserts a waiting session and points the creator at it.
// Fails with ErrAlreadyInSession if the creator's pointer is taken.
func (r *SessionRepository) CreateSession(ctx context.Context, s *domain.Session) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx,
		`INSERT INTO sessions (id, game_type, status, creator_id, win_lines, dot_size, blot_size)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		s.ID, s.GameType, domain.StatusWaiting, s.CreatorID, s.WinLines, s.DotSize, s.BlotSize,
	).Scan(&s.CreatedAt)
	if err != nil {
		return err
	}
	s.Status = domain.StatusWaiting

	if err := claimPointer(ctx, tx, s.CreatorID, s.ID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *SessionRepository) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	return scanSession(r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
}

// ListStarted returns every session currently in play.
func (r *SessionRepository) ListStarted(ctx context.Context) ([]*domain.Session, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE status = 'started' ORDER BY started_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// JoinSession seats the joiner only if the session is still waiting for one.
// A lost race surfaces as ErrConflict.
func (r *SessionRepository) JoinSession(ctx context.Context, id string, joinerID int64, startedAt time.Time) (*domain.Session, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	s, err := scanSession(tx.QueryRow(ctx,
		`UPDATE sessions
		 SET joiner_id = $2, status = 'started', started_at = $3
		 WHERE id = $1 AND status = 'waiting' AND joiner_id IS NULL AND creator_id <> $2
		 RETURNING `+sessionColumns,
		id, joinerID, startedAt,
	))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}

	if err := claimPointer(ctx, tx, joinerID, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// DeleteWaiting removes a session nobody joined and frees the creator.
func (r *SessionRepository) DeleteWaiting(ctx context.Context, id string, creatorID int64) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`DELETE FROM sessions
		 WHERE id = $1 AND status = 'waiting' AND creator_id = $2 AND joiner_id IS NULL`,
		id, creatorID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET current_game = NULL WHERE id = $1 AND current_game = $2`,
		creatorID, id,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RecordMoves appends moves to the history and bumps move_count in one
// transaction.
func (r *SessionRepository) RecordMoves(ctx context.Context, id string, moves ...domain.Move) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := appendMoves(ctx, tx, id, moves); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func appendMoves(ctx context.Context, tx pgx.Tx, id string, moves []domain.Move) error {
	if len(moves) == 0 {
		return nil
	}
	var seq int
	err := tx.QueryRow(ctx,
		`UPDATE sessions SET move_count = move_count + $2
		 WHERE id = $1 AND status = 'started'
		 RETURNING move_count`,
		id, len(moves),
	).Scan(&seq)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrConflict
	}
	if err != nil {
		return err
	}

	first := seq - len(moves) + 1
	for i, mv := range moves {
		if _, err := tx.Exec(ctx,
			`INSERT INTO session_moves (session_id, seq, x, y, player_id) VALUES ($1, $2, $3, $4, $5)`,
			id, first+i, mv.X, mv.Y, mv.PlayerID,
		); err != nil {
			return err
		}
	}
	return nil
}

// ListMoves returns the persisted move history in order.
func (r *SessionRepository) ListMoves(ctx context.Context, id string) ([]domain.Move, error) {
	rows, err := r.db.Query(ctx,
		`SELECT x, y, player_id FROM session_moves WHERE session_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	moves := []domain.Move{}
	for rows.Next() {
		var mv domain.Move
		if err := rows.Scan(&mv.X, &mv.Y, &mv.PlayerID); err != nil {
			return nil, err
		}
		moves = append(moves, mv)
	}
	return moves, rows.Err()
}

// FinishSession moves a started session to finished exactly once. The
// remaining history and both participants' pointers are written in the same
// transaction.
func (r *SessionRepository) FinishSession(ctx context.Context, p domain.FinishParams) (*domain.Session, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := appendMoves(ctx, tx, p.SessionID, p.Moves); err != nil {
		return nil, err
	}

	s, err := scanSession(tx.QueryRow(ctx,
		`UPDATE sessions
		 SET status = 'finished', winner_id = $2, win_reason = $3, ended_at = $4,
		     creator_time_left_ms = $5, joiner_time_left_ms = $6
		 WHERE id = $1 AND status = 'started'
		 RETURNING `+sessionColumns,
		p.SessionID, p.WinnerID, p.Reason, p.EndedAt, p.CreatorTimeLeftMs, p.JoinerTimeLeftMs,
	))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}

	players := s.Players()
	if _, err := tx.Exec(ctx,
		`UPDATE users SET current_game = NULL WHERE id = ANY($1) AND current_game = $2`,
		players[:], p.SessionID,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// GetPointer returns the player's active session id, or "" when free.
func (r *SessionRepository) GetPointer(ctx context.Context, playerID int64) (string, error) {
	var current *string
	err := r.db.QueryRow(ctx, `SELECT current_game FROM users WHERE id = $1`, playerID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if current == nil {
		return "", nil
	}
	return *current, nil
}

func claimPointer(ctx context.Context, tx pgx.Tx, playerID int64, sessionID string) error {
	tag, err := tx.Exec(ctx,
		`UPDATE users SET current_game = $2 WHERE id = $1 AND current_game IS NULL`,
		playerID, sessionID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, playerID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrAlreadyInSession
}
