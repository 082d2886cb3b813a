package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MonitoringKey identifies a MonitoringConfig.
type MonitoringKey struct {
	Address string
	Asset   Asset
}

func (k MonitoringKey) String() string {
	return fmt.Sprintf("%s:%s", k.Address, k.Asset)
}

// MonitoringConfig registers interest in the payments of an asset received
// by an address, optionally filtered by amount range and memo.
type MonitoringConfig struct {
	OwnerID   string           `json:"ownerId,omitempty"`
	Address   string           `json:"address"`
	Asset     Asset            `json:"asset"`
	MinAmount *decimal.Decimal `json:"minAmount,omitempty"`
	MaxAmount *decimal.Decimal `json:"maxAmount,omitempty"`
	Memo      string           `json:"memo,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NewMonitoringConfig returns a validated MonitoringConfig.
func NewMonitoringConfig(
	address string, asset Asset, minAmount, maxAmount *decimal.Decimal,
	memo string, createdAt time.Time,
) (*MonitoringConfig, error) {
	if address == "" {
		return nil, ErrMissingAddress
	}
	if _, err := ParseAsset(asset.String()); err != nil {
		return nil, err
	}
	for _, amount := range []*decimal.Decimal{minAmount, maxAmount} {
		if amount != nil {
			if err := validateAmount(*amount); err != nil {
				return nil, err
			}
		}
	}
	if minAmount != nil && maxAmount != nil && minAmount.GreaterThan(*maxAmount) {
		return nil, ErrInvalidAmountRange
	}
	if err := validateMemo(memo); err != nil {
		return nil, err
	}

	return &MonitoringConfig{
		Address:   address,
		Asset:     asset,
		MinAmount: minAmount,
		MaxAmount: maxAmount,
		Memo:      memo,
		CreatedAt: createdAt,
	}, nil
}

func (c *MonitoringConfig) Key() MonitoringKey {
	return MonitoringKey{c.Address, c.Asset}
}

// IsOwnedBy returns whether the requester identified by the given user id or
// address owns the config. The holder of the monitored address always does.
func (c *MonitoringConfig) IsOwnedBy(userID, address string) bool {
	if userID != "" && userID == c.OwnerID {
		return true
	}
	return address != "" && address == c.Address
}

// Accepts returns whether an observed payment passes the config filters. A
// payment of unknown amount passes the amount range.
func (c *MonitoringConfig) Accepts(amount *decimal.Decimal, memo string) bool {
	if c.Memo != "" && c.Memo != memo {
		return false
	}
	if amount == nil {
		return true
	}
	if c.MinAmount != nil && amount.LessThan(*c.MinAmount) {
		return false
	}
	if c.MaxAmount != nil && amount.GreaterThan(*c.MaxAmount) {
		return false
	}
	return true
}

// MonitoringRepository is the abstraction for any kind of database intended
// to persist MonitoringConfigs. There's at most one config per key.
type MonitoringRepository interface {
	// SaveConfig adds the config, or replaces the one with the same key.
	SaveConfig(ctx context.Context, config *MonitoringConfig) error
	// GetConfig returns the config with the given key.
	GetConfig(ctx context.Context, key MonitoringKey) (*MonitoringConfig, error)
	// ListConfigs returns the configs matching the given address and asset.
	// Empty filters match everything.
	ListConfigs(
		ctx context.Context, address string, asset Asset,
	) ([]MonitoringConfig, error)
	// RemoveConfig deletes the config with the given key.
	RemoveConfig(ctx context.Context, key MonitoringKey) error
}
