package horizon

import (
	"time"
)

type transaction struct {
	Hash       string    `json:"hash"`
	Ledger     int64     `json:"ledger"`
	Successful bool      `json:"successful"`
	CreatedAt  time.Time `json:"created_at"`
	// resultCodes is filled only for rejected submissions.
	resultCodes []string
}

func (t *transaction) GetHash() string {
	return t.Hash
}

func (t *transaction) IsSuccessful() bool {
	return t.Successful
}

func (t *transaction) GetLedger() int64 {
	return t.Ledger
}

func (t *transaction) GetCreatedAt() time.Time {
	return t.CreatedAt
}

func (t *transaction) GetResultCodes() []string {
	return t.resultCodes
}

// problem is the error body returned by horizon.
type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Extras struct {
		Hash        string `json:"hash"`
		ResultCodes struct {
			Transaction string   `json:"transaction"`
			Operations  []string `json:"operations"`
		} `json:"result_codes"`
	} `json:"extras"`
}

func (p problem) resultCodes() []string {
	codes := make([]string, 0, 1+len(p.Extras.ResultCodes.Operations))
	if c := p.Extras.ResultCodes.Transaction; c != "" {
		codes = append(codes, c)
	}
	return append(codes, p.Extras.ResultCodes.Operations...)
}

type response struct {
	status int
	body   []byte
}
