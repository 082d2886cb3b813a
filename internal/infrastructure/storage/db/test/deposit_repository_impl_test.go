package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestDepositRepositoryImplementations(t *testing.T) {
	managers := createRepoManagers(t)

	for i := range managers {
		m := managers[i]

		t.Run(m.Name, func(t *testing.T) {
			t.Run("add_and_get_deposits", func(t *testing.T) {
				testAddAndGetDeposits(t, m.Manager.DepositRepository())
			})
			t.Run("update_deposit", func(t *testing.T) {
				testUpdateDeposit(t, m.Manager.DepositRepository())
			})
			t.Run("delete_deposit", func(t *testing.T) {
				testDeleteDeposit(t, m.Manager.DepositRepository())
			})
		})
	}
}

func testAddAndGetDeposits(t *testing.T, repo domain.DepositRepository) {
	ctx := context.Background()
	ownerID := randomHex(10)

	deposits := make([]*domain.DepositRequest, 0, 5)
	for i := 0; i < 5; i++ {
		d := makeRandomDeposit(t, ownerID)
		require.NoError(t, repo.AddDeposit(ctx, d))
		deposits = append(deposits, d)
	}

	err := repo.AddDeposit(ctx, deposits[0])
	require.ErrorIs(t, err, domain.ErrDepositAlreadyExists)

	deposit, err := repo.GetDeposit(ctx, deposits[0].ID)
	require.NoError(t, err)
	require.Equal(t, deposits[0].ID, deposit.ID)
	require.Equal(t, deposits[0].Address, deposit.Address)
	require.True(t, deposits[0].Amount.Equal(*deposit.Amount))
	require.True(t, deposits[0].ExpiresAt.Equal(deposit.ExpiresAt))
	require.Equal(
		t, domain.DefaultDepositTTL, deposit.ExpiresAt.Sub(deposit.CreatedAt),
	)

	_, err = repo.GetDeposit(ctx, randomHex(16))
	require.ErrorIs(t, err, domain.ErrDepositNotFound)

	ownerDeposits, err := repo.GetDepositsForOwner(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, ownerDeposits, 5)

	ownerDeposits, err = repo.GetDepositsForOwner(ctx, randomHex(10))
	require.NoError(t, err)
	require.Empty(t, ownerDeposits)

	allDeposits, err := repo.GetAllDeposits(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(allDeposits), 5)
}

func testUpdateDeposit(t *testing.T, repo domain.DepositRepository) {
	ctx := context.Background()
	deposit := makeRandomDeposit(t, randomHex(10))
	require.NoError(t, repo.AddDeposit(ctx, deposit))

	completed := domain.DepositStatusCompleted
	expired := domain.DepositStatusExpired
	hash := randomHex(32)
	confirmedAt := now.Add(time.Minute)

	updated, err := repo.UpdateDeposit(ctx, deposit.ID, domain.DepositUpdate{
		Status:          &completed,
		TransactionHash: &hash,
		ConfirmedAt:     &confirmedAt,
	})
	require.NoError(t, err)
	require.Equal(t, completed, updated.Status)
	require.Equal(t, hash, updated.TransactionHash)

	stored, err := repo.GetDeposit(ctx, deposit.ID)
	require.NoError(t, err)
	require.Equal(t, completed, stored.Status)
	require.Equal(t, hash, stored.TransactionHash)
	require.True(t, confirmedAt.Equal(*stored.ConfirmedAt))
	require.Equal(t, deposit.Asset, stored.Asset)
	require.Equal(t, deposit.Memo, stored.Memo)

	_, err = repo.UpdateDeposit(ctx, deposit.ID, domain.DepositUpdate{
		Status: &expired,
	})
	require.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	stored, err = repo.GetDeposit(ctx, deposit.ID)
	require.NoError(t, err)
	require.Equal(t, completed, stored.Status)

	_, err = repo.UpdateDeposit(ctx, randomHex(16), domain.DepositUpdate{
		Status: &completed,
	})
	require.ErrorIs(t, err, domain.ErrDepositNotFound)
}

func testDeleteDeposit(t *testing.T, repo domain.DepositRepository) {
	ctx := context.Background()
	deposit := makeRandomDeposit(t, randomHex(10))
	require.NoError(t, repo.AddDeposit(ctx, deposit))

	deleted, err := repo.DeleteDeposit(ctx, deposit.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = repo.DeleteDeposit(ctx, deposit.ID)
	require.NoError(t, err)
	require.False(t, deleted)

	_, err = repo.GetDeposit(ctx, deposit.ID)
	require.ErrorIs(t, err, domain.ErrDepositNotFound)
}
