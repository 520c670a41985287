package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tactictoe/internal/domain"
	"tactictoe/internal/match"
	"tactictoe/internal/repository"
	"tactictoe/internal/service"
)

func TestBalanceService_StakeRefund(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db)
	txs := repository.NewTransactionRepository(db)
	ledger := service.NewBalanceService(db, 50)

	u := freshUser(t, users, "ledgerA")
	sid := uuid.NewString()

	require.NoError(t, ledger.Stake(ctx, sid, u.ID))
	require.NoError(t, ledger.Stake(ctx, sid, u.ID))
	assert.Equal(t, int64(repository.InitialGems-100), gems(t, users, u.ID))

	err := ledger.Stake(ctx, sid, u.ID)
	require.ErrorIs(t, err, match.ErrInsufficientFunds)
	assert.Equal(t, int64(repository.InitialGems-100), gems(t, users, u.ID), "failed stake leaves balance")

	require.NoError(t, ledger.Refund(ctx, sid, u.ID))
	assert.Equal(t, int64(repository.InitialGems-50), gems(t, users, u.ID))

	rows, err := txs.GetBySession(ctx, sid)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.TxTypeRefund, rows[2].Type)
	assert.Equal(t, int64(50), rows[2].Amount)
}

func TestBalanceService_PayoutDraw(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db)
	ledger := service.NewBalanceService(db, 10)

	a, b := freshUser(t, users, "drawA"), freshUser(t, users, "drawB")
	sid := uuid.NewString()
	require.NoError(t, ledger.Stake(ctx, sid, a.ID))
	require.NoError(t, ledger.Stake(ctx, sid, b.ID))

	joiner := b.ID
	require.NoError(t, ledger.Payout(ctx, &domain.Session{ID: sid, CreatorID: a.ID, JoinerID: &joiner}))
	assert.Equal(t, int64(repository.InitialGems), gems(t, users, a.ID))
	assert.Equal(t, int64(repository.InitialGems), gems(t, users, b.ID))
}
