package domain

import "time"

const (
	AssetXLM  Asset = "XLM"
	AssetUSDC Asset = "USDC"
	AssetUSDT Asset = "USDT"

	// MaxMemoLength is the max size in bytes of a text memo.
	MaxMemoLength = 28

	DefaultDepositTTL = 30 * time.Minute
)

const (
	DepositStatusPending   DepositStatus = "pending"
	DepositStatusCompleted DepositStatus = "completed"
	DepositStatusFailed    DepositStatus = "failed"
	DepositStatusExpired   DepositStatus = "expired"
)

const (
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeWithdraw TransactionType = "withdraw"

	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

var (
	// SupportedAssets is the list of assets deposits and transactions can
	// refer to.
	SupportedAssets = []Asset{AssetXLM, AssetUSDC, AssetUSDT}
)
