package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Asset is the code of a supported asset. XLM is the native one.
type Asset string

func (a Asset) IsNative() bool {
	return a == AssetXLM
}

func (a Asset) String() string {
	return string(a)
}

// ParseAsset returns the supported asset matching the given code, case
// insensitive.
func ParseAsset(code string) (Asset, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, asset := range SupportedAssets {
		if code == string(asset) {
			return asset, nil
		}
	}
	return "", ErrUnsupportedAsset
}

// ParseAmount parses an optional decimal amount. An empty string results in
// a nil amount, meaning any amount.
func ParseAmount(amount string) (*decimal.Decimal, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, ErrInvalidAmount
	}
	if err := validateAmount(d); err != nil {
		return nil, err
	}
	return &d, nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func validateMemo(memo string) error {
	if len(memo) > MaxMemoLength {
		return ErrInvalidMemo
	}
	return nil
}
