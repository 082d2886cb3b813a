package optimistic_test

import (
	"testing"
	"time"

	"github.com/paystell/paystell-daemon/internal/core/application/optimistic"
	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/paystell/paystell-daemon/pkg/scheduler"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSubmit(t *testing.T) {
	queue, _ := newQueue()

	id, err := queue.Submit(draft("10", domain.AssetXLM))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	pending := queue.ListByStatus(domain.TransactionStatusPending)
	require.Len(t, pending, 1)
	require.Equal(t, id, pending[0].ID)
	require.Equal(t, start, pending[0].Timestamp)

	buckets := queue.Buckets()
	require.Len(t, buckets.Pending, 1)
	require.Empty(t, buckets.Processing)

	require.NoError(t, queue.AttachHash(id, "h1"))
	buckets = queue.Buckets()
	require.Empty(t, buckets.Pending)
	require.Len(t, buckets.Processing, 1)

	_, err = queue.Submit(domain.TransactionDraft{
		Type: "swap", Amount: decimal.NewFromInt(1), Asset: domain.AssetXLM,
	})
	require.ErrorIs(t, err, domain.ErrInvalidTransactionType)

	_, err = queue.Submit(draft("0", domain.AssetXLM))
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = queue.Submit(draft("1", "DOGE"))
	require.ErrorIs(t, err, domain.ErrUnsupportedAsset)
}

func TestReconcile(t *testing.T) {
	t.Run("by recency amount and asset", func(t *testing.T) {
		queue, clock := newQueue()

		id, err := queue.Submit(draft("10", domain.AssetXLM))
		require.NoError(t, err)

		clock.Advance(30 * time.Second)
		matched := queue.Reconcile(domain.TransactionEvent{
			TransactionHash: "h1",
			Status:          domain.TransactionStatusConfirmed,
			Timestamp:       clock.Now(),
		})
		require.True(t, matched)

		tx, err := queue.Get(id)
		require.NoError(t, err)
		require.Equal(t, domain.TransactionStatusConfirmed, tx.Status)
		require.Equal(t, "h1", tx.TransactionHash)
		require.Empty(t, queue.ListByStatus(domain.TransactionStatusPending))
		require.Len(t, queue.Buckets().Completed, 1)
	})

	t.Run("by hash", func(t *testing.T) {
		queue, _ := newQueue()

		first, err := queue.Submit(draft("10", domain.AssetXLM))
		require.NoError(t, err)
		second, err := queue.Submit(draft("10", domain.AssetXLM))
		require.NoError(t, err)
		require.NoError(t, queue.AttachHash(second, "h2"))

		matched := queue.Reconcile(domain.TransactionEvent{
			TransactionHash: "h2",
			Status:          domain.TransactionStatusFailed,
			Error:           "tx_bad_seq",
		})
		require.True(t, matched)

		tx, err := queue.Get(second)
		require.NoError(t, err)
		require.Equal(t, domain.TransactionStatusFailed, tx.Status)
		require.Equal(t, "tx_bad_seq", tx.Error)

		tx, err = queue.Get(first)
		require.NoError(t, err)
		require.Equal(t, domain.TransactionStatusPending, tx.Status)
	})

	t.Run("earliest submitted wins ties", func(t *testing.T) {
		queue, clock := newQueue()

		first, err := queue.Submit(draft("5", domain.AssetUSDC))
		require.NoError(t, err)
		clock.Advance(time.Second)
		second, err := queue.Submit(draft("5", domain.AssetUSDC))
		require.NoError(t, err)

		amount := decimal.RequireFromString("5.00")
		event := domain.TransactionEvent{
			Status: domain.TransactionStatusConfirmed,
			Amount: &amount,
			Asset:  domain.AssetUSDC,
		}
		event.TransactionHash = "a"
		require.True(t, queue.Reconcile(event))
		event.TransactionHash = "b"
		require.True(t, queue.Reconcile(event))

		tx, err := queue.Get(first)
		require.NoError(t, err)
		require.Equal(t, "a", tx.TransactionHash)
		tx, err = queue.Get(second)
		require.NoError(t, err)
		require.Equal(t, "b", tx.TransactionHash)
	})

	t.Run("unmatched events are ignored", func(t *testing.T) {
		queue, clock := newQueue()

		id, err := queue.Submit(draft("5", domain.AssetUSDC))
		require.NoError(t, err)

		amount := decimal.RequireFromString("6")
		require.False(t, queue.Reconcile(domain.TransactionEvent{
			TransactionHash: "x",
			Status:          domain.TransactionStatusConfirmed,
			Amount:          &amount,
		}))
		require.False(t, queue.Reconcile(domain.TransactionEvent{
			TransactionHash: "x",
			Status:          domain.TransactionStatusConfirmed,
			Asset:           domain.AssetUSDT,
		}))
		require.False(t, queue.Reconcile(domain.TransactionEvent{
			TransactionHash: "x",
			Status:          domain.TransactionStatusPending,
		}))

		clock.Advance(optimistic.DefaultReconcileWindow + time.Second)
		require.False(t, queue.Reconcile(domain.TransactionEvent{
			TransactionHash: "x",
			Status:          domain.TransactionStatusConfirmed,
			Timestamp:       clock.Now(),
		}))

		tx, err := queue.Get(id)
		require.NoError(t, err)
		require.Equal(t, domain.TransactionStatusPending, tx.Status)
	})

	t.Run("window applies on both sides of the submission", func(t *testing.T) {
		queue, _ := newQueue()

		id, err := queue.Submit(draft("7", domain.AssetXLM))
		require.NoError(t, err)

		require.False(t, queue.Reconcile(domain.TransactionEvent{
			TransactionHash: "early",
			Status:          domain.TransactionStatusConfirmed,
			Timestamp:       start.Add(-optimistic.DefaultReconcileWindow - time.Second),
		}))
		require.True(t, queue.Reconcile(domain.TransactionEvent{
			TransactionHash: "skewed",
			Status:          domain.TransactionStatusConfirmed,
			Timestamp:       start.Add(-time.Minute),
		}))

		tx, err := queue.Get(id)
		require.NoError(t, err)
		require.Equal(t, "skewed", tx.TransactionHash)
	})

	t.Run("settle returns the transition", func(t *testing.T) {
		queue, _ := newQueue()

		id, err := queue.Submit(draft("3", domain.AssetUSDT))
		require.NoError(t, err)
		require.NoError(t, queue.AttachHash(id, "h3"))

		event := domain.TransactionEvent{
			TransactionHash: "h3",
			Status:          domain.TransactionStatusFailed,
		}
		tx, matched := queue.Settle(event)
		require.True(t, matched)
		require.NotNil(t, tx)
		require.Equal(t, id, tx.ID)
		require.Equal(t, domain.TransactionStatusFailed, tx.Status)
		require.NotEmpty(t, tx.Error)

		tx, matched = queue.Settle(event)
		require.True(t, matched)
		require.Nil(t, tx)
	})

	t.Run("settled transactions never change", func(t *testing.T) {
		queue, _ := newQueue()

		id, err := queue.Submit(draft("1", domain.AssetXLM))
		require.NoError(t, err)
		require.NoError(t, queue.AttachHash(id, "h1"))
		require.NoError(t, queue.Fail(id, "rejected"))

		require.True(t, queue.Reconcile(domain.TransactionEvent{
			TransactionHash: "h1",
			Status:          domain.TransactionStatusConfirmed,
		}))
		require.NoError(t, queue.Fail(id, "again"))
		require.NoError(t, queue.AttachHash(id, "h2"))

		tx, err := queue.Get(id)
		require.NoError(t, err)
		require.Equal(t, domain.TransactionStatusFailed, tx.Status)
		require.Equal(t, "rejected", tx.Error)
		require.Equal(t, "h1", tx.TransactionHash)
	})
}

func TestTimeoutSweep(t *testing.T) {
	queue, clock := newQueue()

	old, err := queue.Submit(draft("1", domain.AssetXLM))
	require.NoError(t, err)
	clock.Advance(4 * time.Minute)
	recent, err := queue.Submit(draft("2", domain.AssetXLM))
	require.NoError(t, err)

	clock.Advance(time.Minute + time.Second)
	expired := queue.TimeoutSweep(clock.Now())
	require.Len(t, expired, 1)
	require.Equal(t, old, expired[0].ID)
	require.Equal(t, domain.TransactionStatusFailed, expired[0].Status)
	require.Equal(t, domain.ErrTransactionTimeout.Error(), expired[0].Error)

	tx, err := queue.Get(recent)
	require.NoError(t, err)
	require.Equal(t, domain.TransactionStatusPending, tx.Status)

	// A second sweep doesn't report it again.
	require.Empty(t, queue.TimeoutSweep(clock.Now()))

	clock.Advance(optimistic.DefaultRetention + time.Minute)
	expired = queue.TimeoutSweep(clock.Now())
	require.Len(t, expired, 1)
	require.Equal(t, recent, expired[0].ID)

	_, err = queue.Get(old)
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
	require.Len(t, queue.List(), 1)
}

func TestOperationsOnUnknownTransaction(t *testing.T) {
	queue, _ := newQueue()

	require.ErrorIs(t, queue.AttachHash("x", "h"), domain.ErrTransactionNotFound)
	require.ErrorIs(t, queue.Fail("x", ""), domain.ErrTransactionNotFound)
	_, err := queue.Get("x")
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func newQueue() (*optimistic.Queue, *scheduler.Manual) {
	clock := scheduler.NewManual(start)
	return optimistic.NewQueue(optimistic.Config{Clock: clock}), clock
}

func draft(amount string, asset domain.Asset) domain.TransactionDraft {
	return domain.TransactionDraft{
		OwnerID: "u1",
		Type:    domain.TransactionTypeDeposit,
		Amount:  decimal.RequireFromString(amount),
		Asset:   asset,
	}
}
