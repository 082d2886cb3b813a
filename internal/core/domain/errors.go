package domain

import "errors"

var (
	// ErrUnsupportedAsset is returned when an asset is not one of the
	// supported ones.
	ErrUnsupportedAsset = errors.New("unsupported asset")
	// ErrInvalidAmount is returned if an amount is not a strictly positive
	// decimal number.
	ErrInvalidAmount = errors.New("amount must be a positive decimal number")
	// ErrInvalidAmountRange ...
	ErrInvalidAmountRange = errors.New("min amount must not exceed max amount")
	// ErrMissingAddress ...
	ErrMissingAddress = errors.New("missing address")
	// ErrMissingOwner ...
	ErrMissingOwner = errors.New("missing owner id")
	// ErrInvalidMemo is returned if a memo exceeds the network text memo limit.
	ErrInvalidMemo = errors.New("memo must be at most 28 bytes long")
	// ErrInvalidTTL ...
	ErrInvalidTTL = errors.New("deposit ttl must be greater than zero")
	// ErrInvalidStatus ...
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidStatusTransition is returned when trying to move a deposit out
	// of a terminal status.
	ErrInvalidStatusTransition = errors.New(
		"deposit status cannot change once completed, failed or expired",
	)
	// ErrDepositNotFound ...
	ErrDepositNotFound = errors.New("deposit not found")
	// ErrDepositAlreadyExists is returned when adding a deposit with an id
	// already in use.
	ErrDepositAlreadyExists = errors.New("deposit already exists")
	// ErrNotDepositOwner is returned when the requester is neither the owner
	// nor the address of a deposit.
	ErrNotDepositOwner = errors.New("deposit does not belong to requester")
	// ErrNotMonitoringOwner is returned when the requester neither registered
	// the monitoring config nor holds the monitored address.
	ErrNotMonitoringOwner = errors.New("monitoring config does not belong to requester")
	// ErrMonitoringConfigNotFound ...
	ErrMonitoringConfigNotFound = errors.New("monitoring config not found")
	// ErrMissingEnvelope ...
	ErrMissingEnvelope = errors.New("missing signed transaction envelope")
	// ErrInvalidTransactionType ...
	ErrInvalidTransactionType = errors.New(
		"transaction type must be either deposit or withdraw",
	)
	// ErrTransactionNotFound ...
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrSubscriptionNotFound ...
	ErrSubscriptionNotFound = errors.New("webhook not found")
	// ErrInvalidTopic ...
	ErrInvalidTopic = errors.New("unknown webhook topic")
	// ErrInvalidEndpoint ...
	ErrInvalidEndpoint = errors.New("invalid webhook endpoint, must be a valid URI")
	// ErrTransactionTimeout is recorded on optimistic transactions still
	// unconfirmed after the timeout.
	ErrTransactionTimeout = errors.New("transaction not confirmed in time")
)
