package application

import (
	"time"

	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/paystell/paystell-daemon/pkg/realtime"
	"github.com/shopspring/decimal"
)

// Requester is the identity forwarded by the auth gateway.
type Requester struct {
	UserID  string
	Address string
}

type CreateDepositReq struct {
	Amount        string
	Asset         string
	Memo          string
	CustomAddress string
}

type ListDepositsReq struct {
	UserID string
	Status string
}

// UpdateDepositReq lists the only fields a client can change. Nil fields are
// left untouched.
type UpdateDepositReq struct {
	Status          *string
	TransactionHash *string
	ConfirmedAt     *time.Time
}

func (r UpdateDepositReq) toDomain() (domain.DepositUpdate, error) {
	update := domain.DepositUpdate{
		TransactionHash: r.TransactionHash,
		ConfirmedAt:     r.ConfirmedAt,
	}
	if r.Status != nil {
		status, err := domain.ParseDepositStatus(*r.Status)
		if err != nil {
			return domain.DepositUpdate{}, err
		}
		update.Status = &status
	}
	return update, nil
}

type StartMonitoringReq struct {
	Address   string
	Asset     string
	MinAmount string
	MaxAmount string
	Memo      string
}

type SubmitTransactionReq struct {
	Envelope string
	Type     string
	Amount   string
	Asset    string
}

type Webhook struct {
	OwnerID  string
	Topic    string
	Endpoint string
	Secret   string
}

func (w Webhook) GetOwnerId() string {
	return w.OwnerID
}

func (w Webhook) GetTopic() string {
	return w.Topic
}

func (w Webhook) GetEndpoint() string {
	return w.Endpoint
}

func (w Webhook) GetSecret() string {
	return w.Secret
}

// Balance is the latest known balance of an asset held by an address.
type Balance struct {
	Address   string          `json:"address"`
	Asset     domain.Asset    `json:"asset"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// MonitorView is the read-only picture of a user's activity.
type MonitorView struct {
	Deposits     []domain.DepositRequest   `json:"deposits"`
	Transactions domain.TransactionBuckets `json:"transactions"`
	Channel      realtime.Status           `json:"channel"`
	Balances     []Balance                 `json:"balances"`
}

// realtime payloads

type transactionEventData struct {
	TransactionHash string           `json:"transactionHash"`
	Hash            string           `json:"hash"`
	Status          string           `json:"status"`
	Amount          *decimal.Decimal `json:"amount"`
	Asset           string           `json:"asset"`
	Error           string           `json:"error"`
}

type depositEventData struct {
	DepositID       string           `json:"depositId"`
	Address         string           `json:"address"`
	Asset           string           `json:"asset"`
	Amount          *decimal.Decimal `json:"amount"`
	Memo            string           `json:"memo"`
	TransactionHash string           `json:"transactionHash"`
	Status          string           `json:"status"`
	ConfirmedAt     *time.Time       `json:"confirmedAt"`
}

type balanceEventData struct {
	Address string          `json:"address"`
	Asset   string          `json:"asset"`
	Balance decimal.Decimal `json:"balance"`
}

type errorEventData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
