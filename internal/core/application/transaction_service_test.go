package application_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/paystell/paystell-daemon/internal/core/application"
	"github.com/paystell/paystell-daemon/internal/core/application/optimistic"
	"github.com/paystell/paystell-daemon/internal/core/application/pubsub"
	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/paystell/paystell-daemon/internal/core/ports"
	"github.com/paystell/paystell-daemon/pkg/replayguard"
	"github.com/paystell/paystell-daemon/pkg/scheduler"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type transactionFixture struct {
	svc     application.TransactionService
	queue   *optimistic.Queue
	network *mockNetwork
	pubsub  *recordingPubSub
}

func newTransactionFixture(t *testing.T) transactionFixture {
	clock := scheduler.NewManual(t0)
	store, err := replayguard.NewMemoryStore(100)
	require.NoError(t, err)
	guard, err := replayguard.NewGuard(store)
	require.NoError(t, err)

	ps := &recordingPubSub{}
	notifier := pubsub.NewService(ps)
	queue := optimistic.NewQueue(optimistic.Config{Clock: clock})
	network := &mockNetwork{}

	svc := application.NewTransactionService(guard, queue, network, notifier, clock)
	t.Cleanup(func() {
		svc.Close()
		notifier.Close()
	})
	return transactionFixture{svc, queue, network, ps}
}

func submitReq(envelope string) application.SubmitTransactionReq {
	return application.SubmitTransactionReq{
		Envelope: envelope,
		Type:     "deposit",
		Amount:   "10",
		Asset:    "XLM",
	}
}

func TestSubmitTransaction(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		f := newTransactionFixture(t)
		f.network.On("SubmitTransaction", mock.Anything, "env-ok").
			Return(networkTx{hash: "h1", successful: true}, nil)

		tx, err := f.svc.SubmitTransaction(ctx, alice, submitReq("env-ok"))
		require.NoError(t, err)
		require.Equal(t, domain.TransactionStatusPending, tx.Status)
		require.Equal(t, alice.UserID, tx.OwnerID)

		f.svc.Close()

		got, err := f.queue.Get(tx.ID)
		require.NoError(t, err)
		require.Equal(t, domain.TransactionStatusConfirmed, got.Status)
		require.Equal(t, "h1", got.TransactionHash)
		f.network.AssertExpectations(t)

		require.Eventually(t, func() bool {
			return len(f.pubsub.topics()) == 2
		}, time.Second, 10*time.Millisecond)
		require.ElementsMatch(t,
			[]string{"transaction.pending", "transaction.confirmed"}, f.pubsub.topics(),
		)
	})

	t.Run("rejected", func(t *testing.T) {
		f := newTransactionFixture(t)
		f.network.On("SubmitTransaction", mock.Anything, "env-bad").Return(
			networkTx{hash: "h2"},
			fmt.Errorf("%w: tx_bad_seq", ports.ErrTransactionRejected),
		)

		tx, err := f.svc.SubmitTransaction(ctx, alice, submitReq("env-bad"))
		require.NoError(t, err)

		f.svc.Close()

		got, err := f.queue.Get(tx.ID)
		require.NoError(t, err)
		require.Equal(t, domain.TransactionStatusFailed, got.Status)
		require.Contains(t, got.Error, "tx_bad_seq")

		// A failed submission can't be retried with the same envelope.
		_, err = f.svc.SubmitTransaction(ctx, alice, submitReq("env-bad"))
		require.ErrorIs(t, err, replayguard.ErrTransactionAlreadyProcessed)
	})

	t.Run("unknown outcome stays pending", func(t *testing.T) {
		f := newTransactionFixture(t)
		f.network.On("SubmitTransaction", mock.Anything, "env-slow").
			Return(nil, fmt.Errorf("horizon replied with status 504: Timeout"))

		tx, err := f.svc.SubmitTransaction(ctx, alice, submitReq("env-slow"))
		require.NoError(t, err)

		f.svc.Close()

		got, err := f.queue.Get(tx.ID)
		require.NoError(t, err)
		require.Equal(t, domain.TransactionStatusPending, got.Status)
	})

	t.Run("network failure", func(t *testing.T) {
		f := newTransactionFixture(t)
		f.network.On("SubmitTransaction", mock.Anything, "env-failed").
			Return(networkTx{hash: "h3", codes: []string{"tx_failed", "op_no_trust"}}, nil)

		tx, err := f.svc.SubmitTransaction(ctx, alice, submitReq("env-failed"))
		require.NoError(t, err)

		f.svc.Close()

		got, err := f.queue.Get(tx.ID)
		require.NoError(t, err)
		require.Equal(t, domain.TransactionStatusFailed, got.Status)
		require.Equal(t, "tx_failed,op_no_trust", got.Error)
		require.Equal(t, "h3", got.TransactionHash)
	})
}

func TestSubmitTransactionReplay(t *testing.T) {
	f := newTransactionFixture(t)
	f.network.On("SubmitTransaction", mock.Anything, "env-once").
		Return(networkTx{hash: "h1", successful: true}, nil).Once()

	var (
		wg        sync.WaitGroup
		lock      sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.SubmitTransaction(ctx, alice, submitReq("env-once"))

			lock.Lock()
			defer lock.Unlock()
			if err == nil {
				succeeded++
				return
			}
			if err == replayguard.ErrTransactionAlreadyProcessed {
				rejected++
			}
		}()
	}
	wg.Wait()
	f.svc.Close()

	require.Equal(t, 1, succeeded)
	require.Equal(t, 9, rejected)
	require.Len(t, f.queue.List(), 1)
	f.network.AssertExpectations(t)
}

func TestSubmitTransactionInvalid(t *testing.T) {
	f := newTransactionFixture(t)

	tests := []struct {
		name      string
		requester application.Requester
		req       application.SubmitTransactionReq
		err       error
	}{
		{
			name:      "missing envelope",
			requester: alice,
			req:       submitReq(""),
			err:       domain.ErrMissingEnvelope,
		},
		{
			name:      "invalid type",
			requester: alice,
			req: application.SubmitTransactionReq{
				Envelope: "e1", Type: "swap", Amount: "1", Asset: "XLM",
			},
			err: domain.ErrInvalidTransactionType,
		},
		{
			name:      "missing amount",
			requester: alice,
			req: application.SubmitTransactionReq{
				Envelope: "e2", Type: "withdraw", Asset: "XLM",
			},
			err: domain.ErrInvalidAmount,
		},
		{
			name:      "unsupported asset",
			requester: alice,
			req: application.SubmitTransactionReq{
				Envelope: "e3", Type: "withdraw", Amount: "1", Asset: "EURC",
			},
			err: domain.ErrUnsupportedAsset,
		},
		{
			name:      "anonymous",
			requester: application.Requester{},
			req:       submitReq("e4"),
			err:       application.ErrMissingRequester,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tx, err := f.svc.SubmitTransaction(ctx, tt.requester, tt.req)
			require.ErrorIs(t, err, tt.err)
			require.Nil(t, tx)
		})
	}

	require.Empty(t, f.queue.List())
}

func TestListTransactions(t *testing.T) {
	f := newTransactionFixture(t)
	f.network.On("SubmitTransaction", mock.Anything, "env-a").
		Return(networkTx{hash: "ha", successful: true}, nil)
	f.network.On("SubmitTransaction", mock.Anything, "env-b").
		Return(nil, fmt.Errorf("connection refused"))
	f.network.On("SubmitTransaction", mock.Anything, "env-c").
		Return(nil, fmt.Errorf("connection refused"))

	_, err := f.svc.SubmitTransaction(ctx, alice, submitReq("env-a"))
	require.NoError(t, err)
	_, err = f.svc.SubmitTransaction(ctx, alice, submitReq("env-b"))
	require.NoError(t, err)
	_, err = f.svc.SubmitTransaction(ctx, bob, submitReq("env-c"))
	require.NoError(t, err)
	f.svc.Close()

	txs, err := f.svc.ListTransactions(ctx, alice, "")
	require.NoError(t, err)
	require.Len(t, txs, 2)

	txs, err = f.svc.ListTransactions(ctx, alice, "confirmed")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, "ha", txs[0].TransactionHash)

	_, err = f.svc.ListTransactions(ctx, alice, "done")
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}
