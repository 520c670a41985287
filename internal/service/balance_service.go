package service

import (
	"context"
	"errors"

	"tactictoe/internal/domain"
	"tactictoe/internal/match"
	"tactictoe/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInsufficientFunds = match.ErrInsufficientFunds
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// BalanceService takes game stakes from gem balances and pays out the pot.
// It implements match.Ledger.
type BalanceService struct {
	db              *pgxpool.Pool
	transactionRepo *repository.TransactionRepository
	stake           int64
}

// NewBalanceService creates a ledger charging stake gems per player and game.
func NewBalanceService(db *pgxpool.Pool, stake int64) *BalanceService {
	return &BalanceService{
		db:              db,
		transactionRepo: repository.NewTransactionRepository(db),
		stake:           stake,
	}
}

var _ match.Ledger = (*BalanceService)(nil)

// Stake debits the stake from the player before they enter a session.
func (s *BalanceService) Stake(ctx context.Context, sessionID string, playerID int64) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.DebitWithTx(ctx, tx, playerID, s.stake); err != nil {
			return err
		}
		return s.record(ctx, tx, playerID, sessionID, domain.TxTypeStake, -s.stake)
	})
}

// Refund returns the stake of a session that never started.
func (s *BalanceService) Refund(ctx context.Context, sessionID string, playerID int64) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.CreditWithTx(ctx, tx, playerID, s.stake); err != nil {
			return err
		}
		return s.record(ctx, tx, playerID, sessionID, domain.TxTypeRefund, s.stake)
	})
}

// Payout credits the pot to the winner, or returns each stake on a draw.
func (s *BalanceService) Payout(ctx context.Context, sess *domain.Session) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if sess.WinnerID != nil {
			pot := 2 * s.stake
			if _, err := s.CreditWithTx(ctx, tx, *sess.WinnerID, pot); err != nil {
				return err
			}
			return s.record(ctx, tx, *sess.WinnerID, sess.ID, domain.TxTypePayout, pot)
		}
		for _, pid := range sess.Players() {
			if _, err := s.CreditWithTx(ctx, tx, pid, s.stake); err != nil {
				return err
			}
			if err := s.record(ctx, tx, pid, sess.ID, domain.TxTypePayout, s.stake); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BalanceService) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *BalanceService) record(ctx context.Context, tx pgx.Tx, userID int64, sessionID, txType string, amount int64) error {
	id := sessionID
	return s.transactionRepo.CreateWithTx(ctx, tx, &domain.Transaction{
		UserID:    userID,
		SessionID: &id,
		Type:      txType,
		Amount:    amount,
		Meta:      map[string]interface{}{"stake": s.stake},
	})
}

// DebitWithTx deducts amount within an existing transaction
func (s *BalanceService) DebitWithTx(ctx context.Context, tx pgx.Tx, userID int64, amount int64) (newBalance int64, err error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	err = tx.QueryRow(ctx,
		`UPDATE users SET gems = gems - $1 WHERE id = $2 AND gems >= $1 RETURNING gems`,
		amount, userID,
	).Scan(&newBalance)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Could be not found or insufficient funds, check which
			var exists bool
			_ = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
			if !exists {
				return 0, ErrUserNotFound
			}
			return 0, ErrInsufficientFunds
		}
		return 0, err
	}

	return newBalance, nil
}

// CreditWithTx adds amount within an existing transaction
func (s *BalanceService) CreditWithTx(ctx context.Context, tx pgx.Tx, userID int64, amount int64) (newBalance int64, err error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	err = tx.QueryRow(ctx,
		`UPDATE users SET gems = gems + $1 WHERE id = $2 RETURNING gems`,
		amount, userID,
	).Scan(&newBalance)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	return newBalance, nil
}
