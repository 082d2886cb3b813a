package pubsub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/paystell/paystell-daemon/internal/core/ports"
	"github.com/paystell/paystell-daemon/pkg/stats"
	log "github.com/sirupsen/logrus"
)

// Service notifies webhooks about deposit and transaction status changes.
// Notifications are delivered in background, Close waits for the ones in
// flight. A nil Service publishes nothing.
type Service struct {
	pubsub ports.PubSub
	clock  func() time.Time

	wg sync.WaitGroup
}

func NewService(pubsub ports.PubSub) *Service {
	return &Service{pubsub: pubsub, clock: time.Now}
}

// AddWebhook registers a webhook notified about its owner's events only.
func (s *Service) AddWebhook(
	_ context.Context, webhook ports.Webhook,
) (string, error) {
	if webhook.GetOwnerId() == "" {
		return "", domain.ErrMissingOwner
	}
	if !domain.IsValidTopic(webhook.GetTopic()) {
		return "", domain.ErrInvalidTopic
	}
	return s.pubsub.Subscribe(
		webhook.GetOwnerId(), webhook.GetTopic(), webhook.GetEndpoint(),
		webhook.GetSecret(),
	)
}

// RemoveWebhook fails with ErrSubscriptionNotFound if the webhook doesn't
// belong to the owner.
func (s *Service) RemoveWebhook(_ context.Context, ownerID, id string) error {
	if ownerID == "" {
		return domain.ErrMissingOwner
	}
	return s.pubsub.Unsubscribe(ownerID, id)
}

// ListWebhooks returns the owner's webhooks notified for the given topic, or
// all of them if the topic is empty.
func (s *Service) ListWebhooks(
	_ context.Context, ownerID, topic string,
) ([]ports.WebhookInfo, error) {
	if ownerID == "" {
		return nil, domain.ErrMissingOwner
	}
	if topic != "" && !domain.IsValidTopic(topic) {
		return nil, domain.ErrInvalidTopic
	}
	subs := s.pubsub.ListSubscriptionsForTopic(ownerID, topic)
	webhooks := make([]ports.WebhookInfo, 0, len(subs))
	for _, s := range subs {
		webhooks = append(webhooks, webhookInfo{s})
	}
	return webhooks, nil
}

func (s *Service) PublishDepositEvent(deposit domain.DepositRequest) {
	stats.DepositTransitions.WithLabelValues(string(deposit.Status)).Inc()
	topic := domain.DepositTopic(deposit.Status)
	s.publish(deposit.OwnerID, topic, map[string]interface{}{
		"event":   topic,
		"deposit": deposit,
	})
}

func (s *Service) PublishTransactionEvent(tx domain.OptimisticTransaction) {
	stats.TransactionTransitions.WithLabelValues(string(tx.Status)).Inc()
	topic := domain.TransactionTopic(tx.Status)
	s.publish(tx.OwnerID, topic, map[string]interface{}{
		"event":       topic,
		"transaction": tx,
	})
}

func (s *Service) Close() {
	s.wg.Wait()
	if err := s.pubsub.Close(); err != nil {
		log.WithError(err).Warn("pubsub: error while closing store")
	}
}

func (s *Service) publish(
	ownerID, topic string, payload map[string]interface{},
) {
	if s == nil || ownerID == "" {
		return
	}
	payload["timestamp"] = s.clock().UTC().Format(time.RFC3339)
	message, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Warnf("pubsub: failed to encode %s event", topic)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.pubsub.Publish(ownerID, topic, string(message)); err != nil {
			log.WithError(err).Warnf("pubsub: failed to notify %s event", topic)
		}
	}()
}

type webhookInfo struct {
	ports.Subscription
}

func (i webhookInfo) GetId() string {
	return i.Subscription.Id()
}
func (i webhookInfo) GetTopic() string {
	return i.Subscription.Topic()
}
func (i webhookInfo) GetEndpoint() string {
	return i.Subscription.NotifyAt()
}
func (i webhookInfo) IsSecured() bool {
	return i.Subscription.IsSecured()
}
