package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType ...
type TransactionType string

// ParseTransactionType ...
func ParseTransactionType(txType string) (TransactionType, error) {
	t := TransactionType(txType)
	if t != TransactionTypeDeposit && t != TransactionTypeWithdraw {
		return "", ErrInvalidTransactionType
	}
	return t, nil
}

// TransactionStatus ...
type TransactionStatus string

// ParseTransactionStatus ...
func ParseTransactionStatus(status string) (TransactionStatus, error) {
	s := TransactionStatus(status)
	switch s {
	case TransactionStatusPending, TransactionStatusConfirmed,
		TransactionStatusFailed:
		return s, nil
	default:
		return "", ErrInvalidStatus
	}
}

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusConfirmed || s == TransactionStatusFailed
}

// OptimisticTransaction is an operation shown to the user as soon as it's
// submitted to the network, before any confirmation.
type OptimisticTransaction struct {
	ID              string            `json:"id"`
	OwnerID         string            `json:"ownerId,omitempty"`
	Type            TransactionType   `json:"type"`
	Amount          decimal.Decimal   `json:"amount"`
	Asset           Asset             `json:"asset"`
	Status          TransactionStatus `json:"status"`
	Timestamp       time.Time         `json:"timestamp"`
	TransactionHash string            `json:"transactionHash,omitempty"`
	Error           string            `json:"error,omitempty"`
	// SettledAt is when the transaction reached a terminal status.
	SettledAt *time.Time `json:"settledAt,omitempty"`
}

// TransactionDraft holds what's needed to track a newly submitted transaction.
type TransactionDraft struct {
	OwnerID string
	Type    TransactionType
	Amount  decimal.Decimal
	Asset   Asset
}

// Validate ...
func (d TransactionDraft) Validate() error {
	if _, err := ParseTransactionType(string(d.Type)); err != nil {
		return err
	}
	if err := validateAmount(d.Amount); err != nil {
		return err
	}
	if _, err := ParseAsset(d.Asset.String()); err != nil {
		return err
	}
	return nil
}

// TransactionEvent is the authoritative outcome of a transaction, either
// pushed by the realtime channel or found by polling the network.
type TransactionEvent struct {
	TransactionHash string            `json:"transactionHash"`
	Status          TransactionStatus `json:"status"`
	Amount          *decimal.Decimal  `json:"amount,omitempty"`
	Asset           Asset             `json:"asset,omitempty"`
	Error           string            `json:"error,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`
}

// TransactionBuckets groups optimistic transactions as shown to users.
// Processing ones are pending transactions already known by the network.
type TransactionBuckets struct {
	Pending    []OptimisticTransaction `json:"pending"`
	Processing []OptimisticTransaction `json:"processing"`
	Completed  []OptimisticTransaction `json:"completed"`
	Failed     []OptimisticTransaction `json:"failed"`
}
