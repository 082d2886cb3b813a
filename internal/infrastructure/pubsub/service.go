package pubsub

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/paystell/paystell-daemon/internal/core/ports"
	"github.com/paystell/paystell-daemon/pkg/circuitbreaker"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRequestTimeout = 15 * time.Second
	tokenLifetime         = 5 * time.Minute
)

type service struct {
	store      SubscriptionStore
	httpClient *client
	cb         *gobreaker.CircuitBreaker
}

// NewService returns a webhook pubsub service persisting subscriptions in the
// given store. Every request to a webhook endpoint goes through the same
// circuit breaker.
func NewService(
	store SubscriptionStore, requestTimeout time.Duration,
) (ports.PubSub, error) {
	if store == nil {
		return nil, fmt.Errorf("missing subscription store")
	}
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	return &service{
		store:      store,
		httpClient: newHTTPClient(requestTimeout),
		cb:         circuitbreaker.NewCircuitBreaker("webhooks"),
	}, nil
}

func (ws *service) Subscribe(
	ownerID, topic, endpoint, secret string,
) (string, error) {
	sub, err := NewSubscription(ownerID, topic, endpoint, secret)
	if err != nil {
		return "", err
	}

	if err := ws.store.Add(*sub); err != nil {
		return "", err
	}
	return sub.ID, nil
}

func (ws *service) Unsubscribe(ownerID, id string) error {
	found, err := ws.store.Remove(ownerID, id)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

func (ws *service) ListSubscriptionsForTopic(
	ownerID, topic string,
) []ports.Subscription {
	return ws.listSubscriptionsForTopic(ownerID, topic).toPortable()
}

func (ws *service) Publish(ownerID, topic, message string) error {
	if ownerID == "" {
		return nil
	}
	return ws.publishForTopic(ownerID, topic, message)
}

func (ws *service) Close() error {
	return ws.store.Close()
}

func (ws *service) listSubscriptionsForTopic(
	ownerID, topic string,
) subscriptions {
	subs, err := ws.store.ListByTopic(ownerID, topic)
	if err != nil {
		log.WithError(err).Warn("pubsub: failed to list subscriptions")
		return nil
	}
	if topic != domain.AnyTopic && topic != "" {
		subsForAnyTopic, err := ws.store.ListByTopic(ownerID, domain.AnyTopic)
		if err != nil {
			log.WithError(err).Warn("pubsub: failed to list subscriptions")
		}
		subs = append(subs, subsForAnyTopic...)
	}
	return subs
}

func (ws *service) publishForTopic(ownerID, topic, message string) error {
	subs := ws.listSubscriptionsForTopic(ownerID, topic)

	eg := &errgroup.Group{}
	for i := range subs {
		sub := subs[i]
		eg.Go(func() error { return ws.doRequest(sub, message) })
	}
	return eg.Wait()
}

func (ws *service) doRequest(sub Subscription, payload string) error {
	_, err := ws.cb.Execute(func() (interface{}, error) {
		headers := map[string]string{
			"Content-Type": "application/json",
		}
		if sub.IsSecured() {
			tokenString, err := signToken(sub)
			if err != nil {
				return nil, err
			}
			headers["Authorization"] = fmt.Sprintf("Bearer %s", tokenString)
		}

		status, resp, err := ws.httpClient.post(sub.Endpoint, payload, headers)
		if err != nil {
			return nil, err
		}
		if status < 200 || status >= 300 {
			return nil, fmt.Errorf(
				"webhook %s replied with status %d: %s", sub.ID, status, resp,
			)
		}
		return nil, nil
	})

	return err
}

func signToken(sub Subscription) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   sub.Event,
		Id:        sub.ID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(tokenLifetime).Unix(),
	})
	return token.SignedString([]byte(sub.Secret))
}
