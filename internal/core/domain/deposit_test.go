package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	t0      = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	address = "GBRPYHIL2CI3FNQ4BXLFMNDLFJUNPU2HY3ZMFSHONUCEOASW7QC7OX2H"
)

func TestNewDepositRequest(t *testing.T) {
	t.Parallel()

	amount := decimal.RequireFromString("10.5")
	ttl := 30 * time.Minute

	d, err := domain.NewDepositRequest(
		"u1", address, domain.AssetXLM, &amount, "order-1", t0, ttl,
	)
	require.NoError(t, err)
	require.NotEmpty(t, d.ID)
	require.Equal(t, domain.DepositStatusPending, d.Status)
	require.Equal(t, ttl, d.ExpiresAt.Sub(d.CreatedAt))
	require.Nil(t, d.ConfirmedAt)
	require.Empty(t, d.TransactionHash)

	other, err := domain.NewDepositRequest(
		"u1", address, domain.AssetXLM, nil, "", t0, ttl,
	)
	require.NoError(t, err)
	require.NotEqual(t, d.ID, other.ID)
	require.Nil(t, other.Amount)
}

func TestFailingNewDepositRequest(t *testing.T) {
	t.Parallel()

	zero := decimal.Zero
	negative := decimal.RequireFromString("-1")

	tests := []struct {
		name          string
		ownerID       string
		address       string
		asset         domain.Asset
		amount        *decimal.Decimal
		memo          string
		ttl           time.Duration
		expectedError error
	}{
		{
			name:          "missing_owner",
			address:       address,
			asset:         domain.AssetXLM,
			ttl:           time.Minute,
			expectedError: domain.ErrMissingOwner,
		},
		{
			name:          "missing_address",
			ownerID:       "u1",
			asset:         domain.AssetXLM,
			ttl:           time.Minute,
			expectedError: domain.ErrMissingAddress,
		},
		{
			name:          "unsupported_asset",
			ownerID:       "u1",
			address:       address,
			asset:         "BTC",
			ttl:           time.Minute,
			expectedError: domain.ErrUnsupportedAsset,
		},
		{
			name:          "zero_amount",
			ownerID:       "u1",
			address:       address,
			asset:         domain.AssetUSDC,
			amount:        &zero,
			ttl:           time.Minute,
			expectedError: domain.ErrInvalidAmount,
		},
		{
			name:          "negative_amount",
			ownerID:       "u1",
			address:       address,
			asset:         domain.AssetUSDC,
			amount:        &negative,
			ttl:           time.Minute,
			expectedError: domain.ErrInvalidAmount,
		},
		{
			name:          "memo_too_long",
			ownerID:       "u1",
			address:       address,
			asset:         domain.AssetUSDT,
			memo:          strings.Repeat("m", domain.MaxMemoLength+1),
			ttl:           time.Minute,
			expectedError: domain.ErrInvalidMemo,
		},
		{
			name:          "invalid_ttl",
			ownerID:       "u1",
			address:       address,
			asset:         domain.AssetXLM,
			expectedError: domain.ErrInvalidTTL,
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, err := domain.NewDepositRequest(
				tt.ownerID, tt.address, tt.asset, tt.amount, tt.memo, t0, tt.ttl,
			)
			require.ErrorIs(t, err, tt.expectedError)
			require.Nil(t, d)
		})
	}
}

func TestDepositStaleness(t *testing.T) {
	t.Parallel()

	d, err := domain.NewDepositRequest(
		"u1", address, domain.AssetXLM, nil, "", t0, 30*time.Minute,
	)
	require.NoError(t, err)

	require.False(t, d.IsStale(t0.Add(30*time.Minute)))
	require.Equal(
		t, domain.DepositStatusPending, d.EffectiveStatus(t0.Add(30*time.Minute)),
	)

	now := t0.Add(31 * time.Minute)
	require.True(t, d.IsStale(now))
	require.Equal(t, domain.DepositStatusExpired, d.EffectiveStatus(now))
	require.Equal(t, domain.DepositStatusPending, d.Status)

	completed := domain.DepositStatusCompleted
	require.NoError(t, d.Apply(domain.DepositUpdate{Status: &completed}))
	require.False(t, d.IsStale(now))
	require.Equal(t, domain.DepositStatusCompleted, d.EffectiveStatus(now))
}

func TestDepositApply(t *testing.T) {
	t.Parallel()

	completed := domain.DepositStatusCompleted
	failed := domain.DepositStatusFailed
	pending := domain.DepositStatusPending
	invalid := domain.DepositStatus("refunded")
	hash := "3389e9f0f1a65f19736cacf544c2e825313e8447f569233bb8db39aa607c8889"
	otherHash := "aa"
	confirmedAt := t0.Add(5 * time.Minute)

	t.Run("complete", func(t *testing.T) {
		t.Parallel()

		d := newDeposit(t)
		err := d.Apply(domain.DepositUpdate{
			Status:          &completed,
			TransactionHash: &hash,
			ConfirmedAt:     &confirmedAt,
		})
		require.NoError(t, err)
		require.Equal(t, completed, d.Status)
		require.Equal(t, hash, d.TransactionHash)
		require.Equal(t, confirmedAt, *d.ConfirmedAt)

		// Same outcome notified twice.
		err = d.Apply(domain.DepositUpdate{
			Status:          &completed,
			TransactionHash: &hash,
		})
		require.NoError(t, err)
	})

	t.Run("terminal statuses never change", func(t *testing.T) {
		t.Parallel()

		d := newDeposit(t)
		require.NoError(t, d.Apply(domain.DepositUpdate{Status: &failed}))

		for _, u := range []domain.DepositUpdate{
			{Status: &completed},
			{Status: &pending},
			{TransactionHash: &otherHash},
			{ConfirmedAt: &confirmedAt},
		} {
			err := d.Apply(u)
			require.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
		}
		require.Equal(t, failed, d.Status)
		require.Empty(t, d.TransactionHash)
		require.Nil(t, d.ConfirmedAt)
	})

	t.Run("invalid status", func(t *testing.T) {
		t.Parallel()

		d := newDeposit(t)
		err := d.Apply(domain.DepositUpdate{Status: &invalid})
		require.ErrorIs(t, err, domain.ErrInvalidStatus)
		require.Equal(t, pending, d.Status)
	})
}

func TestDepositOwnership(t *testing.T) {
	t.Parallel()

	d := newDeposit(t)
	require.True(t, d.IsOwnedBy("u1", ""))
	require.True(t, d.IsOwnedBy("", address))
	require.True(t, d.IsOwnedBy("u2", address))
	require.False(t, d.IsOwnedBy("u2", "GOTHER"))
	require.False(t, d.IsOwnedBy("", ""))
}

func newDeposit(t *testing.T) *domain.DepositRequest {
	d, err := domain.NewDepositRequest(
		"u1", address, domain.AssetXLM, nil, "", t0, domain.DefaultDepositTTL,
	)
	require.NoError(t, err)
	return d
}
