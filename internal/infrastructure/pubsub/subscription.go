package pubsub

import (
	"net/url"

	"github.com/google/uuid"
	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/paystell/paystell-daemon/internal/core/ports"
)

type Subscription struct {
	ID       string `json:"id"`
	Owner    string `json:"owner"`
	Event    string `json:"event"`
	Endpoint string `json:"endpoint"`
	Secret   string `json:"secret"`
}

type subscriptions []Subscription

func (s subscriptions) toPortable() []ports.Subscription {
	subs := make([]ports.Subscription, 0, len(s))
	for i := range s {
		sub := s[i]
		subs = append(subs, &sub)
	}
	return subs
}

func NewSubscription(
	owner, event, endpoint, secret string,
) (*Subscription, error) {
	if owner == "" {
		return nil, domain.ErrMissingOwner
	}
	if !domain.IsValidTopic(event) {
		return nil, domain.ErrInvalidTopic
	}
	u, err := url.ParseRequestURI(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, domain.ErrInvalidEndpoint
	}
	id := uuid.New().String()
	return &Subscription{id, owner, event, endpoint, secret}, nil
}

func (h *Subscription) Topic() string {
	return h.Event
}

func (h *Subscription) Id() string {
	return h.ID
}

func (h *Subscription) OwnerId() string {
	return h.Owner
}

func (h *Subscription) NotifyAt() string {
	return h.Endpoint
}

func (h *Subscription) IsSecured() bool {
	return len(h.Secret) > 0
}
