package match

import (
	"context"

	"tactictoe/internal/domain"
)

// Ledger takes and returns stakes. It is opaque to the coordinator: Stake may
// fail with ErrInsufficientFunds, the others are best effort.
type Ledger interface {
	Stake(ctx context.Context, sessionID string, playerID int64) error
	Refund(ctx context.Context, sessionID string, playerID int64) error
	Payout(ctx context.Context, s *domain.Session) error
}

// NopLedger is used when games are played without a stake.
type NopLedger struct{}

func (NopLedger) Stake(context.Context, string, int64) error    { return nil }
func (NopLedger) Refund(context.Context, string, int64) error   { return nil }
func (NopLedger) Payout(context.Context, *domain.Session) error { return nil }
