package domain

import "fmt"

// AnyTopic subscribes to every topic.
const AnyTopic = "*"

// DepositTopic returns the topic published when a deposit reaches the given
// status.
func DepositTopic(status DepositStatus) string {
	return fmt.Sprintf("deposit.%s", status)
}

// TransactionTopic returns the topic published when an optimistic
// transaction reaches the given status.
func TransactionTopic(status TransactionStatus) string {
	return fmt.Sprintf("transaction.%s", status)
}

// Topics returns every topic that can be subscribed to.
func Topics() []string {
	topics := []string{AnyTopic}
	for _, s := range []DepositStatus{
		DepositStatusPending, DepositStatusCompleted,
		DepositStatusFailed, DepositStatusExpired,
	} {
		topics = append(topics, DepositTopic(s))
	}
	for _, s := range []TransactionStatus{
		TransactionStatusPending, TransactionStatusConfirmed,
		TransactionStatusFailed,
	} {
		topics = append(topics, TransactionTopic(s))
	}
	return topics
}

// IsValidTopic ...
func IsValidTopic(topic string) bool {
	for _, t := range Topics() {
		if t == topic {
			return true
		}
	}
	return false
}
