package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositStatus represents the different statuses that a deposit request can
// assume.
type DepositStatus string

// ParseDepositStatus ...
func ParseDepositStatus(status string) (DepositStatus, error) {
	s := DepositStatus(status)
	switch s {
	case DepositStatusPending, DepositStatusCompleted,
		DepositStatusFailed, DepositStatusExpired:
		return s, nil
	default:
		return "", ErrInvalidStatus
	}
}

// IsTerminal returns whether the status can't be changed anymore.
func (s DepositStatus) IsTerminal() bool {
	return s != DepositStatusPending
}

// DepositRequest is a tracked intent to receive funds to an address.
type DepositRequest struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	Address string `json:"address"`
	// Amount is nil when any amount is accepted.
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	Asset           Asset            `json:"asset"`
	Memo            string           `json:"memo,omitempty"`
	Status          DepositStatus    `json:"status"`
	CreatedAt       time.Time        `json:"createdAt"`
	ExpiresAt       time.Time        `json:"expiresAt"`
	ConfirmedAt     *time.Time       `json:"confirmedAt,omitempty"`
	TransactionHash string           `json:"transactionHash,omitempty"`
}

// NewDepositRequest returns a pending deposit request with a new id, expiring
// after ttl from createdAt.
func NewDepositRequest(
	ownerID, address string, asset Asset, amount *decimal.Decimal, memo string,
	createdAt time.Time, ttl time.Duration,
) (*DepositRequest, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	if address == "" {
		return nil, ErrMissingAddress
	}
	if _, err := ParseAsset(asset.String()); err != nil {
		return nil, err
	}
	if amount != nil {
		if err := validateAmount(*amount); err != nil {
			return nil, err
		}
	}
	if err := validateMemo(memo); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	return &DepositRequest{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Address:   address,
		Amount:    amount,
		Asset:     asset,
		Memo:      memo,
		Status:    DepositStatusPending,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(ttl),
	}, nil
}

// IsStale returns whether the deposit is still pending after its expiration
// time. The stored status is not affected.
func (d *DepositRequest) IsStale(now time.Time) bool {
	return d.Status == DepositStatusPending && now.After(d.ExpiresAt)
}

// EffectiveStatus is the status readers should consider, that is expired for
// stale deposits.
func (d *DepositRequest) EffectiveStatus(now time.Time) DepositStatus {
	if d.IsStale(now) {
		return DepositStatusExpired
	}
	return d.Status
}

// IsOwnedBy returns whether the requester identified by the given user id or
// address owns the deposit.
func (d *DepositRequest) IsOwnedBy(userID, address string) bool {
	if userID != "" && userID == d.OwnerID {
		return true
	}
	return address != "" && address == d.Address
}

// Accepts returns whether an observed payment is compatible with the
// deposit's expected amount and memo.
func (d *DepositRequest) Accepts(amount *decimal.Decimal, memo string) bool {
	if d.Memo != "" && d.Memo != memo {
		return false
	}
	if d.Amount != nil && amount != nil && !d.Amount.Equal(*amount) {
		return false
	}
	return true
}

// DepositUpdate carries the only fields of a deposit that can change after
// creation. Nil fields are left untouched.
type DepositUpdate struct {
	Status          *DepositStatus `json:"status,omitempty"`
	TransactionHash *string        `json:"transactionHash,omitempty"`
	ConfirmedAt     *time.Time     `json:"confirmedAt,omitempty"`
}

// IsEmpty ...
func (u DepositUpdate) IsEmpty() bool {
	return u.Status == nil && u.TransactionHash == nil && u.ConfirmedAt == nil
}

// Apply merges the update into the deposit. A pending deposit can move to
// any status, while a terminal one accepts only updates that leave it as it
// is, so that repeated notifications of the same outcome are harmless.
func (d *DepositRequest) Apply(u DepositUpdate) error {
	if u.Status != nil {
		if _, err := ParseDepositStatus(string(*u.Status)); err != nil {
			return err
		}
	}

	if d.Status.IsTerminal() && d.changedBy(u) {
		return ErrInvalidStatusTransition
	}

	if u.Status != nil {
		d.Status = *u.Status
	}
	if u.TransactionHash != nil {
		d.TransactionHash = *u.TransactionHash
	}
	if u.ConfirmedAt != nil {
		confirmedAt := *u.ConfirmedAt
		d.ConfirmedAt = &confirmedAt
	}
	return nil
}

func (d *DepositRequest) changedBy(u DepositUpdate) bool {
	if u.Status != nil && *u.Status != d.Status {
		return true
	}
	if u.TransactionHash != nil && *u.TransactionHash != d.TransactionHash {
		return true
	}
	if u.ConfirmedAt != nil {
		if d.ConfirmedAt == nil || !d.ConfirmedAt.Equal(*u.ConfirmedAt) {
			return true
		}
	}
	return false
}
