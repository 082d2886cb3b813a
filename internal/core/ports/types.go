package ports

import "time"

type Webhook interface {
	GetOwnerId() string
	GetTopic() string
	GetEndpoint() string
	GetSecret() string
}

type WebhookInfo interface {
	GetId() string
	GetTopic() string
	GetEndpoint() string
	IsSecured() bool
}

// NetworkTransaction is the outcome of a transaction as known by the
// network.
type NetworkTransaction interface {
	GetHash() string
	IsSuccessful() bool
	GetLedger() int64
	GetCreatedAt() time.Time
	// GetResultCodes returns the reasons of a failure, if any.
	GetResultCodes() []string
}

type BuildData interface {
	GetVersion() string
	GetCommit() string
	GetDate() string
}
