package ports

// Subscription is a webhook registered by a user for a topic.
type Subscription interface {
	Topic() string
	Id() string
	OwnerId() string
	IsSecured() bool
	NotifyAt() string
}

// PubSub defines the methods of a webhook based pubsub service. Every
// subscription belongs to a user and is notified only about that user's
// events.
type PubSub interface {
	// Subscribe adds a new subscription of the owner for the requested topic.
	Subscribe(ownerID, topic, endpoint, secret string) (string, error)
	// Unsubscribe removes the owner's subscription with the given id.
	Unsubscribe(ownerID, id string) error
	// ListSubscriptionsForTopic returns the owner's subscriptions for a
	// certain topic, including those subscribed to any topic. An empty topic
	// returns all of them.
	ListSubscriptionsForTopic(ownerID, topic string) []Subscription
	// Publish publishes a message of the owner for a certain topic. Only the
	// owner's clients subscribed for such topic will receive the message.
	Publish(ownerID, topic, message string) error
	// Close should be used to gracefully close the connection with the store.
	Close() error
}
