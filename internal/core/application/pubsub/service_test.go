package pubsub_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/paystell/paystell-daemon/internal/core/application/pubsub"
	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/paystell/paystell-daemon/internal/core/ports"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPubSub struct {
	mock.Mock
}

func (m *mockPubSub) Subscribe(
	ownerID, topic, endpoint, secret string,
) (string, error) {
	args := m.Called(ownerID, topic, endpoint, secret)
	return args.String(0), args.Error(1)
}

func (m *mockPubSub) Unsubscribe(ownerID, id string) error {
	return m.Called(ownerID, id).Error(0)
}

func (m *mockPubSub) ListSubscriptionsForTopic(
	ownerID, topic string,
) []ports.Subscription {
	args := m.Called(ownerID, topic)
	var res []ports.Subscription
	if a := args.Get(0); a != nil {
		res = a.([]ports.Subscription)
	}
	return res
}

func (m *mockPubSub) Publish(ownerID, topic, message string) error {
	return m.Called(ownerID, topic, message).Error(0)
}

func (m *mockPubSub) Close() error {
	return m.Called().Error(0)
}

type webhook struct {
	owner, topic, endpoint, secret string
}

func (w webhook) GetOwnerId() string  { return w.owner }
func (w webhook) GetTopic() string    { return w.topic }
func (w webhook) GetEndpoint() string { return w.endpoint }
func (w webhook) GetSecret() string   { return w.secret }

type subscription struct {
	id, owner, topic, endpoint string
}

func (s subscription) Topic() string    { return s.topic }
func (s subscription) Id() string       { return s.id }
func (s subscription) OwnerId() string  { return s.owner }
func (s subscription) IsSecured() bool  { return false }
func (s subscription) NotifyAt() string { return s.endpoint }

func TestWebhooks(t *testing.T) {
	ctx := context.Background()
	topic := domain.DepositTopic(domain.DepositStatusCompleted)
	endpoint := "http://localhost:9000/hook"

	ps := &mockPubSub{}
	ps.On("Subscribe", "alice", topic, endpoint, "secret").Return("hook1", nil)
	ps.On("Unsubscribe", "alice", "hook1").Return(nil)
	ps.On("Unsubscribe", "alice", "unknown").Return(domain.ErrSubscriptionNotFound)
	ps.On("ListSubscriptionsForTopic", "alice", topic).Return([]ports.Subscription{
		subscription{"hook1", "alice", topic, endpoint},
	})
	svc := pubsub.NewService(ps)

	id, err := svc.AddWebhook(ctx, webhook{"alice", topic, endpoint, "secret"})
	require.NoError(t, err)
	require.Equal(t, "hook1", id)

	_, err = svc.AddWebhook(ctx, webhook{"alice", "trade.settled", endpoint, ""})
	require.ErrorIs(t, err, domain.ErrInvalidTopic)

	_, err = svc.AddWebhook(ctx, webhook{"", topic, endpoint, ""})
	require.ErrorIs(t, err, domain.ErrMissingOwner)

	hooks, err := svc.ListWebhooks(ctx, "alice", topic)
	require.NoError(t, err)
	require.Len(t, hooks, 1)
	require.Equal(t, "hook1", hooks[0].GetId())
	require.Equal(t, topic, hooks[0].GetTopic())
	require.Equal(t, endpoint, hooks[0].GetEndpoint())

	_, err = svc.ListWebhooks(ctx, "alice", "unknown")
	require.ErrorIs(t, err, domain.ErrInvalidTopic)
	_, err = svc.ListWebhooks(ctx, "", topic)
	require.ErrorIs(t, err, domain.ErrMissingOwner)

	require.NoError(t, svc.RemoveWebhook(ctx, "alice", "hook1"))
	require.ErrorIs(t, svc.RemoveWebhook(ctx, "alice", "unknown"), domain.ErrSubscriptionNotFound)
	require.ErrorIs(t, svc.RemoveWebhook(ctx, "", "hook1"), domain.ErrMissingOwner)

	ps.AssertExpectations(t)
}

func TestPublishEvents(t *testing.T) {
	amount := decimal.NewFromInt(10)
	deposit := domain.DepositRequest{
		ID:      "d1",
		OwnerID: "user1",
		Address: "GABC",
		Amount:  &amount,
		Asset:   domain.AssetXLM,
		Status:  domain.DepositStatusCompleted,
	}
	tx := domain.OptimisticTransaction{
		ID:              "t1",
		OwnerID:         "user2",
		Type:            domain.TransactionTypeWithdraw,
		Amount:          amount,
		Asset:           domain.AssetUSDC,
		Status:          domain.TransactionStatusFailed,
		TransactionHash: "h1",
		Timestamp:       time.Now(),
	}

	ps := &mockPubSub{}
	ps.On("Publish", "user1", "deposit.completed", mock.MatchedBy(func(msg string) bool {
		payload := struct {
			Event   string                `json:"event"`
			Deposit domain.DepositRequest `json:"deposit"`
		}{}
		if err := json.Unmarshal([]byte(msg), &payload); err != nil {
			return false
		}
		return payload.Event == "deposit.completed" && payload.Deposit.ID == "d1"
	})).Return(nil).Once()
	ps.On("Publish", "user2", "transaction.failed", mock.Anything).
		Return(errors.New("unreachable")).Once()
	ps.On("Close").Return(nil)

	svc := pubsub.NewService(ps)
	svc.PublishDepositEvent(deposit)
	svc.PublishTransactionEvent(tx)
	// Events without an owner are delivered to nobody.
	svc.PublishDepositEvent(domain.DepositRequest{Status: domain.DepositStatusExpired})
	svc.Close()

	ps.AssertExpectations(t)
	ps.AssertNumberOfCalls(t, "Publish", 2)
}

func TestNilServicePublishesNothing(t *testing.T) {
	var svc *pubsub.Service
	require.NotPanics(t, func() {
		svc.PublishDepositEvent(domain.DepositRequest{Status: domain.DepositStatusPending})
	})
}
