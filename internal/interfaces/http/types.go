package httpinterface

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/paystell/paystell-daemon/internal/core/application"
	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/paystell/paystell-daemon/internal/core/ports"
)

// amount accepts both JSON strings and numbers, and keeps the literal
// representation so that no precision is lost before parsing.
type amount string

func (a *amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = amount(n.String())
	return nil
}

type errorResponse struct {
	Message string `json:"message"`
}

type createDepositRequest struct {
	Amount        amount `json:"amount"`
	Asset         string `json:"asset"`
	Memo          string `json:"memo"`
	CustomAddress string `json:"customAddress"`
}

func (r createDepositRequest) toApp() application.CreateDepositReq {
	return application.CreateDepositReq{
		Amount:        string(r.Amount),
		Asset:         r.Asset,
		Memo:          r.Memo,
		CustomAddress: r.CustomAddress,
	}
}

// updateDepositRequest lists the only fields honoured by an update, any
// other field of the body is ignored.
type updateDepositRequest struct {
	Status          *string    `json:"status"`
	TransactionHash *string    `json:"transactionHash"`
	ConfirmedAt     *time.Time `json:"confirmedAt"`
}

func (r updateDepositRequest) toApp() application.UpdateDepositReq {
	return application.UpdateDepositReq{
		Status:          r.Status,
		TransactionHash: r.TransactionHash,
		ConfirmedAt:     r.ConfirmedAt,
	}
}

type startMonitoringRequest struct {
	Address   string `json:"address"`
	Asset     string `json:"asset"`
	MinAmount amount `json:"minAmount"`
	MaxAmount amount `json:"maxAmount"`
	Memo      string `json:"memo"`
}

func (r startMonitoringRequest) toApp() application.StartMonitoringReq {
	return application.StartMonitoringReq{
		Address:   r.Address,
		Asset:     r.Asset,
		MinAmount: string(r.MinAmount),
		MaxAmount: string(r.MaxAmount),
		Memo:      r.Memo,
	}
}

type submitTransactionRequest struct {
	Envelope string `json:"envelope"`
	Type     string `json:"type"`
	Amount   amount `json:"amount"`
	Asset    string `json:"asset"`
}

func (r submitTransactionRequest) toApp() application.SubmitTransactionReq {
	return application.SubmitTransactionReq{
		Envelope: r.Envelope,
		Type:     r.Type,
		Amount:   string(r.Amount),
		Asset:    r.Asset,
	}
}

type addWebhookRequest struct {
	Topic    string `json:"topic"`
	Endpoint string `json:"endpoint"`
	Secret   string `json:"secret"`
}

type depositResponse struct {
	Deposit *domain.DepositRequest `json:"deposit"`
}

type listDepositsResponse struct {
	Deposits []domain.DepositRequest `json:"deposits"`
	Total    int                     `json:"total"`
}

type monitoringResponse struct {
	Config *domain.MonitoringConfig `json:"config"`
}

type listMonitoringResponse struct {
	Configs []domain.MonitoringConfig `json:"configs"`
	Total   int                       `json:"total"`
}

type transactionResponse struct {
	Transaction *domain.OptimisticTransaction `json:"transaction"`
}

type listTransactionsResponse struct {
	Transactions []domain.OptimisticTransaction `json:"transactions"`
	Total        int                            `json:"total"`
}

type webhookResponse struct {
	ID        string `json:"id"`
	Topic     string `json:"topic"`
	Endpoint  string `json:"endpoint"`
	IsSecured bool   `json:"isSecured"`
}

type listWebhooksResponse struct {
	Webhooks []webhookResponse `json:"webhooks"`
	Total    int               `json:"total"`
}

func toWebhookResponses(hooks []ports.WebhookInfo) []webhookResponse {
	list := make([]webhookResponse, 0, len(hooks))
	for _, h := range hooks {
		list = append(list, webhookResponse{
			ID:        h.GetId(),
			Topic:     h.GetTopic(),
			Endpoint:  h.GetEndpoint(),
			IsSecured: h.IsSecured(),
		})
	}
	return list
}

type healthResponse struct {
	Status string `json:"status"`
}
